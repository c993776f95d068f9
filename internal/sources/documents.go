package sources

import "unicode/utf8"

// MaxDocumentChars caps the extracted text kept per document.
const MaxDocumentChars = 5000

// DocumentExcerpt is text extracted from one uploaded document.
type DocumentExcerpt struct {
	Name      string `json:"name"`
	MimeLabel string `json:"type"`
	Content   string `json:"content"`
}

// CapExcerpt returns d with Content cut to MaxDocumentChars characters.
func CapExcerpt(d DocumentExcerpt) DocumentExcerpt {
	d.Content = truncateRunes(d.Content, MaxDocumentChars)
	return d
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
