package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// docxWith returns .docx bytes holding body at docPath, plus a
// [Content_Types].xml entry when contentTypes is non-empty.
func docxWith(t *testing.T, docPath, body, contentTypes string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if contentTypes != "" {
		ct, err := w.Create("[Content_Types].xml")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = ct.Write([]byte(contentTypes))
	}
	fw, err := w.Create(docPath)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte(`<w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractBytes_plain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ext  string
		want string
	}{
		{"text", "Hello world\nLine 2", ".txt", "Hello world\nLine 2"},
		{"utf8", "caf\xc3\xa9", ".md", "café"},
		{"invalid utf8 replaced", "hello\x80world", ".rst", "hello\uFFFDworld"},
		{"bom dropped", "\uFEFFStart here.", ".txt", "Start here."},
		{"trailing newline trimmed", "Last line.\n", ".txt", "Last line."},
		{"unknown extension", "Just text.", ".xyz", "Just text."},
		{"no extension", "Just text.", "", "Just text."},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes([]byte(tt.in), tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_docxParagraphs(t *testing.T) {
	body := `<w:p w:rsidR="00A1"><w:r><w:t>Cats are </w:t></w:r><w:r><w:t xml:space="preserve">mammals.</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Fish &amp; chips</w:t><w:tab/><w:t>are food.</w:t></w:r></w:p>` +
		`<w:p></w:p>`
	got, err := NewExtractor().ExtractBytes(docxWith(t, "word/document.xml", body, ""), ".DOCX")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if want := "Cats are mammals.\nFish & chips are food."; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_docxContentTypes(t *testing.T) {
	body := `<w:p><w:r><w:t>From another part</w:t></w:r></w:p>`
	tests := []struct {
		name     string
		override string
	}{
		{"part name first", `<Override PartName="/word/document2.xml" ContentType="` + docxMainContentType + `"/>`},
		{"content type first", `<Override ContentType="` + docxMainContentType + `" PartName="/word/document2.xml"/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
				`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
				tt.override + `</Types>`
			got, err := NewExtractor().ExtractBytes(docxWith(t, "word/document2.xml", body, ct), ".docx")
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != "From another part" {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestExtractBytes_docxErrors(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for non-zip content")
	}
	if _, err := e.ExtractBytes(docxWith(t, "word/other.xml", "", ""), ".docx"); err == nil {
		t.Error("expected error when document part is missing")
	}
}

func xlsxBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetCellValue("Sheet1", "A1", "Title")
	_ = f.SetCellValue("Sheet1", "A2", "Value 1")
	_ = f.SetCellValue("Sheet1", "C2", "Value 2")
	_ = f.SetCellValue("Sheet1", "A4", "  Last row  ")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return buf.Bytes()
}

func TestExtractBytes_xlsx(t *testing.T) {
	got, err := NewExtractor().ExtractBytes(xlsxBytes(t), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if want := "Title\nValue 1 Value 2\nLast row"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_pdfInvalid(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("%PDF-broken"), ".pdf"); err == nil {
		t.Error("expected error for malformed PDF")
	}
}

func TestExtract_files(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(txt, []byte("File content."), 0600); err != nil {
		t.Fatal(err)
	}
	xlsx := filepath.Join(dir, "b.xlsx")
	if err := os.WriteFile(xlsx, xlsxBytes(t), 0600); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	got, err := e.Extract(txt)
	if err != nil || got != "File content." {
		t.Errorf("Extract(txt) = %q, %v", got, err)
	}
	got, err = e.Extract(xlsx)
	if err != nil || !strings.HasPrefix(got, "Title\n") {
		t.Errorf("Extract(xlsx) = %q, %v", got, err)
	}
	if _, err := e.Extract(filepath.Join(dir, "nonexistent.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRead_maxBytes(t *testing.T) {
	e := NewExtractor(WithMaxBytes(5))
	if got, err := e.Read(strings.NewReader("12345"), "stdin"); err != nil || got != "12345" {
		t.Errorf("at limit: %q, %v", got, err)
	}
	_, err := e.Read(strings.NewReader("123456"), "stdin")
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("over limit: err = %v, want ErrTooLarge", err)
	}
}

func TestFormats(t *testing.T) {
	formats := Formats()
	for _, ext := range []string{".pdf", ".docx", ".xlsx", ".txt"} {
		found := false
		for _, f := range formats {
			if f == ext {
				found = true
			}
		}
		if !found {
			t.Errorf("%s missing from %v", ext, formats)
		}
	}
}
