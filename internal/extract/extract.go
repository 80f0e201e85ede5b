// Package extract reads the text of the documents being compared. Plain text,
// PDF, DOCX and XLSX are supported; any other extension is read as plain text.
// Paragraph and row boundaries become line breaks so the segmenter can treat
// them as sentence ends.
package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrTooLarge is returned when a document exceeds the size limit.
var ErrTooLarge = errors.New("document too large")

// Extractor extracts plain text from document files.
type Extractor struct {
	maxBytes int64
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxBytes limits the raw document size. Zero or less means no limit.
func WithMaxBytes(n int64) Option {
	return func(e *Extractor) { e.maxBytes = n }
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the file at path and returns its text.
func (e *Extractor) Extract(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	defer f.Close()
	return e.Read(f, path)
}

// Read extracts text from r, choosing the format by the extension of name.
func (e *Extractor) Read(r io.Reader, name string) (string, error) {
	if e.maxBytes > 0 {
		r = io.LimitReader(r, e.maxBytes+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if e.maxBytes > 0 && int64(len(content)) > e.maxBytes {
		return "", fmt.Errorf("%s: %w (limit %d bytes)", name, ErrTooLarge, e.maxBytes)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(name)))
}

// ExtractBytes extracts text from content based on ext, which includes the
// leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractXLSX(content)
	default:
		return extractPlain(content), nil
	}
}

// Formats lists the extensions with a dedicated reader.
func Formats() []string {
	return []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx"}
}
