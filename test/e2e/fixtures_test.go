package e2e

import (
	"strings"
	"testing"

	"github.com/hyperjump/awase/internal/extract"
)

func TestWriteMinimalFile_AllExtensionsExtractable(t *testing.T) {
	e := extract.NewExtractor()
	lines := []string{"First paragraph & more.", "Second paragraph."}
	for _, ext := range SupportedFileExtensions {
		t.Run(ext, func(t *testing.T) {
			content, err := WriteMinimalFile(ext, lines)
			if err != nil {
				t.Fatalf("WriteMinimalFile: %v", err)
			}
			got, err := e.ExtractBytes(content, ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if strings.TrimSpace(got) != strings.Join(lines, "\n") {
				t.Errorf("extracted %q", got)
			}
		})
	}
}
