package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slideName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

type pptxParser struct{}

func (pptxParser) CanParse(filename string) bool {
	return hasExt(filename, ".pptx")
}

// Parse concatenates slide text in slide order.
func (pptxParser) Parse(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pptx: %w", err)
	}
	type slide struct {
		n    int
		name string
	}
	var slides []slide
	for _, f := range zr.File {
		if m := slideName.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slide{n: n, name: f.Name})
		}
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("no slides found in PPTX")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	var b strings.Builder
	for _, s := range slides {
		doc, err := readZipEntry(zr, s.name)
		if err != nil {
			return "", err
		}
		text := xmlText(doc)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "--- Slide %d ---\n%s\n\n", s.n, text)
	}
	return strings.TrimSpace(b.String()), nil
}
