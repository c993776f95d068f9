// Package sources holds the non-tabular inputs and merges all inputs into the
// analysis context handed to the prompt builder.
package sources

import (
	"fmt"
	"strings"

	"github.com/BitCodeHub/analytics-storyteller/internal/analysis"
	"github.com/BitCodeHub/analytics-storyteller/internal/apperrors"
)

// Section headers in the analysis context.
const (
	TabularHeader   = "## SPREADSHEET/CSV DATA"
	AnalyticsHeader = "## GOOGLE ANALYTICS 4 DATA"
	DocumentsHeader = "## UPLOADED DOCUMENTS"
)

// Merge renders every present source as a headed section, always in the
// order tabular, analytics, documents. It returns apperrors.ErrNoData when
// no section qualifies.
func Merge(profile *analysis.DatasetProfile, snapshot *MetricSnapshot, docs []DocumentExcerpt) (string, error) {
	var sections []string
	if !profile.Empty() {
		s, err := renderTabular(profile)
		if err != nil {
			return "", err
		}
		sections = append(sections, s)
	}
	if !snapshot.Empty() {
		sections = append(sections, AnalyticsHeader+"\n"+snapshot.Render())
	}
	if len(docs) > 0 {
		sections = append(sections, renderDocuments(docs))
	}
	if len(sections) == 0 {
		return "", apperrors.ErrNoData
	}
	return strings.Join(sections, "\n"), nil
}

func renderTabular(p *analysis.DatasetProfile) (string, error) {
	sample, err := p.SampleJSON()
	if err != nil {
		return "", fmt.Errorf("render sample: %w", err)
	}
	var b strings.Builder
	b.WriteString(TabularHeader + "\n")
	fmt.Fprintf(&b, "- Total rows: %s\n", FormatCount(p.TotalRows))
	fmt.Fprintf(&b, "- Columns: %s\n\n", strings.Join(p.Headers, ", "))
	b.WriteString("Column Analysis:\n")
	for _, c := range p.Columns {
		b.WriteString(c.Describe())
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nSample Data (first %d rows):\n", analysis.MaxSampleRows)
	b.WriteString(sample)
	b.WriteByte('\n')
	return b.String(), nil
}

func renderDocuments(docs []DocumentExcerpt) string {
	var b strings.Builder
	b.WriteString(DocumentsHeader + "\n")
	for _, d := range docs {
		fmt.Fprintf(&b, "\n### %s (%s)\n%s\n", d.Name, d.MimeLabel, d.Content)
	}
	return b.String()
}
