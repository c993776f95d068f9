// Package parser extracts plain text from uploaded documents.
package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BitCodeHub/analytics-storyteller/internal/sources"
)

// Parser defines a document parser implementation.
type Parser interface {
	CanParse(filename string) bool
	Parse(content []byte) (string, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ErrUnsupported indicates a format has no text extractor.
var ErrUnsupported = errors.New("unsupported document format")

// ParseBytes selects a parser based on filename and returns the text content.
func ParseBytes(filename string, content []byte) (string, error) {
	for _, p := range registry {
		if p.CanParse(filename) {
			return p.Parse(content)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, extOf(filename))
}

// Extract turns an upload into a DocumentExcerpt. Extraction never fails:
// a document that cannot be read becomes a placeholder excerpt saying why.
func Extract(filename string, content []byte) sources.DocumentExcerpt {
	text, err := ParseBytes(filename, content)
	if err != nil {
		text = "Extraction failed: " + err.Error()
	}
	return sources.CapExcerpt(sources.DocumentExcerpt{
		Name:      filepath.Base(filename),
		MimeLabel: MimeType(filename),
		Content:   text,
	})
}

// ExtractFile reads path from disk and extracts it.
func ExtractFile(path string) (sources.DocumentExcerpt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sources.DocumentExcerpt{}, fmt.Errorf("read file: %w", err)
	}
	return Extract(path, data), nil
}

var mimeTypes = map[string]string{
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".tsv":      "text/tab-separated-values",
	".json":     "application/json",
	".html":     "text/html",
	".htm":      "text/html",
	".pdf":      "application/pdf",
	".doc":      "application/msword",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":      "application/vnd.ms-excel",
	".xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":      "application/vnd.ms-powerpoint",
	".pptx":     "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// MimeType returns the MIME label for a filename, or
// application/octet-stream when the extension is unknown.
func MimeType(filename string) string {
	if m, ok := mimeTypes[extOf(filename)]; ok {
		return m
	}
	return "application/octet-stream"
}

func extOf(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func hasExt(filename string, exts ...string) bool {
	e := extOf(filename)
	for _, x := range exts {
		if e == x {
			return true
		}
	}
	return false
}

func init() {
	// Register default parsers
	Register(txtParser{})
	Register(markdownParser{})
	Register(docxParser{})
	Register(pptxParser{})
	Register(xlsxParser{})
	Register(xlsParser{})
	Register(pdfParser{})
	Register(htmlParser{})
}
