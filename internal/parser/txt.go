package parser

import (
	"errors"
	"unicode/utf8"
)

var errNotUTF8 = errors.New("text is not valid UTF-8")

// txtParser passes through plain text formats, including delimited data and
// JSON which read fine as text.
type txtParser struct{}

func (txtParser) CanParse(filename string) bool {
	return hasExt(filename, ".txt", ".csv", ".tsv", ".json", ".log")
}

func (txtParser) Parse(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", errNotUTF8
	}
	return string(content), nil
}
