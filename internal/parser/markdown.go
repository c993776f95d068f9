package parser

import (
	"bytes"
	"strings"
)

type markdownParser struct{}

func (markdownParser) CanParse(filename string) bool {
	return hasExt(filename, ".md", ".markdown")
}

func (markdownParser) Parse(content []byte) (string, error) {
	text := string(bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n")))
	return collapseBlankLines(strings.ReplaceAll(text, "\r", "\n")), nil
}

// collapseBlankLines trims text and squeezes runs of blank lines to one.
func collapseBlankLines(text string) string {
	text = strings.TrimSpace(text)
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return text
}
