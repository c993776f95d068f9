// Package response turns raw model text into a validated AnalysisResult.
package response

import (
	"fmt"
	"strconv"
	"strings"
)

// AnalysisResult is the structured story returned to callers.
type AnalysisResult struct {
	Story           string     `json:"story"`
	Insights        []string   `json:"insights"`
	Recommendations []string   `json:"recommendations"`
	ChartData       *ChartData `json:"chartData,omitempty"`
}

// ChartData is a suggested chart: one label per x position and one or more
// aligned series.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is one chart series.
type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// Markdown renders the result for terminal output.
func (r *AnalysisResult) Markdown() string {
	var b strings.Builder
	b.WriteString("# Data Story\n\n")
	b.WriteString(strings.TrimSpace(r.Story))
	b.WriteString("\n\n## Key Insights\n\n")
	for i, s := range r.Insights {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\n## Recommendations\n\n")
	for i, s := range r.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	if r.ChartData != nil && len(r.ChartData.Labels) > 0 {
		b.WriteString("\n## Suggested Chart\n\n")
		b.WriteString("| Label |")
		for _, ds := range r.ChartData.Datasets {
			fmt.Fprintf(&b, " %s |", mdCell(ds.Label))
		}
		b.WriteString("\n|---|")
		for range r.ChartData.Datasets {
			b.WriteString("---:|")
		}
		b.WriteByte('\n')
		for i, l := range r.ChartData.Labels {
			fmt.Fprintf(&b, "| %s |", mdCell(l))
			for _, ds := range r.ChartData.Datasets {
				fmt.Fprintf(&b, " %s |", strconv.FormatFloat(ds.Data[i], 'f', -1, 64))
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func mdCell(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
