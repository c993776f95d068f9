package sources

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Metric names recognised in a snapshot, in rendering order.
const (
	MetricActiveUsers            = "activeUsers"
	MetricTotalUsers             = "totalUsers"
	MetricSessions               = "sessions"
	MetricScreenPageViews        = "screenPageViews"
	MetricAverageSessionDuration = "averageSessionDuration"
	MetricBounceRate             = "bounceRate"
	MetricNewUsers               = "newUsers"
	MetricEngagedSessions        = "engagedSessions"
)

type metricLine struct {
	key    string
	label  string
	format func(float64) string
}

var metricLines = []metricLine{
	{MetricActiveUsers, "Active Users", formatCount},
	{MetricTotalUsers, "Total Users", formatCount},
	{MetricSessions, "Sessions", formatCount},
	{MetricScreenPageViews, "Page Views", formatCount},
	{MetricAverageSessionDuration, "Avg Session Duration", formatSeconds},
	{MetricBounceRate, "Bounce Rate", formatRate},
	{MetricNewUsers, "New Users", formatCount},
	{MetricEngagedSessions, "Engaged Sessions", formatCount},
}

const (
	defaultProperty  = "Unknown"
	defaultDateStart = "7daysAgo"
	defaultDateEnd   = "today"
	notAvailable     = "N/A"
)

// DateRange is an analytics reporting window. Values are passed through as
// given (ISO dates or relative forms like "7daysAgo").
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// MetricSnapshot is an aggregate analytics report for one property and window.
// A metric missing from Metrics renders as N/A, never as zero.
type MetricSnapshot struct {
	PropertyLabel string             `json:"property,omitempty"`
	DateRange     DateRange          `json:"dateRange"`
	Metrics       map[string]float64 `json:"metrics"`
}

// Empty reports whether the snapshot carries no property and no metrics.
func (s *MetricSnapshot) Empty() bool {
	return s == nil || (s.PropertyLabel == "" && len(s.Metrics) == 0)
}

// Render writes the analytics section body.
func (s *MetricSnapshot) Render() string {
	var b strings.Builder
	property := s.PropertyLabel
	if property == "" {
		property = defaultProperty
	}
	start, end := s.DateRange.Start, s.DateRange.End
	if start == "" {
		start = defaultDateStart
	}
	if end == "" {
		end = defaultDateEnd
	}
	fmt.Fprintf(&b, "Property: %s\n", property)
	fmt.Fprintf(&b, "Date Range: %s to %s\n\n", start, end)
	b.WriteString("Metrics:\n")
	for _, m := range metricLines {
		val := notAvailable
		if x, ok := s.Metrics[m.key]; ok && !math.IsNaN(x) && !math.IsInf(x, 0) {
			val = m.format(x)
		}
		fmt.Fprintf(&b, "- %s: %s\n", m.label, val)
	}
	return b.String()
}

var printer = message.NewPrinter(language.English)

// formatCount groups thousands, e.g. 37412 -> "37,412".
func formatCount(x float64) string {
	return printer.Sprintf("%v", number.Decimal(x, number.MaxFractionDigits(3)))
}

func formatSeconds(x float64) string {
	return fmt.Sprintf("%d seconds", int64(math.Round(x)))
}

// formatRate renders a 0..1 fraction as a percentage with one decimal.
func formatRate(x float64) string {
	return fmt.Sprintf("%.1f%%", x*100)
}

// FormatCount exposes the grouped integer rendering used across sections.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// snapshotFile accepts both the report export shape (startDate/endDate) and
// the request shape (start/end).
type snapshotFile struct {
	Property  string `json:"property"`
	DateRange struct {
		Start     string `json:"start"`
		End       string `json:"end"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	} `json:"dateRange"`
	Metrics map[string]*float64 `json:"metrics"`
}

// PresentMetrics drops metrics reported as JSON null so they render as N/A
// rather than as zero.
func PresentMetrics(raw map[string]*float64) map[string]float64 {
	if raw == nil {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

// LoadSnapshot reads an analytics report export from disk.
func LoadSnapshot(path string) (*MetricSnapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return ParseSnapshot(b)
}

// ParseSnapshot decodes a snapshot document.
func ParseSnapshot(b []byte) (*MetricSnapshot, error) {
	var f snapshotFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	s := &MetricSnapshot{PropertyLabel: f.Property, Metrics: PresentMetrics(f.Metrics)}
	s.DateRange.Start = firstNonEmpty(f.DateRange.Start, f.DateRange.StartDate)
	s.DateRange.End = firstNonEmpty(f.DateRange.End, f.DateRange.EndDate)
	return s, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
