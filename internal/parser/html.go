package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type htmlParser struct{}

func (htmlParser) CanParse(filename string) bool {
	return hasExt(filename, ".html", ".htm")
}

// Parse returns the title and visible body text.
func (htmlParser) Parse(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var lines []string
	if title := strings.TrimSpace(doc.Find("title").Text()); title != "" {
		lines = append(lines, title)
	}
	doc.Find("body").Find("h1, h2, h3, h4, p, li, td, th, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		// nested matches would repeat text
		if s.ParentsFiltered("p, li, td, th, pre, blockquote").Length() > 0 {
			return
		}
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			lines = append(lines, t)
		}
	})
	if len(lines) == 0 {
		lines = append(lines, strings.Join(strings.Fields(doc.Find("body").Text()), " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
