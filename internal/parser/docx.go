package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
	paragraphEnd = regexp.MustCompile(`</(w:p|a:p)>`)
)

type docxParser struct{}

func (docxParser) CanParse(filename string) bool {
	return hasExt(filename, ".docx")
}

func (docxParser) Parse(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	docXML, err := readZipEntry(zr, "word/document.xml")
	if err != nil {
		return "", err
	}
	return xmlText(docXML), nil
}

func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}

// xmlText strips OOXML markup, keeping paragraph breaks.
func xmlText(doc []byte) string {
	text := paragraphEnd.ReplaceAllString(string(doc), "\n")
	text = xmlTag.ReplaceAllString(text, "")
	text = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'").Replace(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return collapseBlankLines(text)
}
