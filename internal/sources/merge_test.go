package sources

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BitCodeHub/analytics-storyteller/internal/analysis"
	"github.com/BitCodeHub/analytics-storyteller/internal/apperrors"
)

func sampleProfile() *analysis.DatasetProfile {
	rows := []analysis.Row{
		{"region": analysis.StringValue("east"), "revenue": analysis.NumberValue(100)},
		{"region": analysis.StringValue("west"), "revenue": analysis.NumberValue(200)},
	}
	return analysis.Summarize([]string{"region", "revenue"}, rows, 2)
}

func TestMergeTabularOnly(t *testing.T) {
	ctx, err := Merge(sampleProfile(), nil, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ctx, TabularHeader))
	assert.Contains(t, ctx, "- Total rows: 2\n")
	assert.Contains(t, ctx, "- Columns: region, revenue\n")
	assert.Contains(t, ctx, "revenue: numeric (min: 100.00, max: 200.00, avg: 150.00)")
	assert.Contains(t, ctx, "region: categorical (examples: east, west)")
	assert.Contains(t, ctx, "Sample Data (first 50 rows):")
	assert.NotContains(t, ctx, AnalyticsHeader)
	assert.NotContains(t, ctx, DocumentsHeader)
}

func TestMergeAnalyticsOnly(t *testing.T) {
	snap := &MetricSnapshot{Metrics: map[string]float64{MetricActiveUsers: 500}}
	ctx, err := Merge(nil, snap, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ctx, AnalyticsHeader))
	assert.Contains(t, ctx, "Property: Unknown\n")
	assert.Contains(t, ctx, "Date Range: 7daysAgo to today\n")
	assert.Contains(t, ctx, "- Active Users: 500\n")
	assert.Contains(t, ctx, "- Total Users: N/A\n")
	assert.Contains(t, ctx, "- Bounce Rate: N/A\n")
	assert.NotContains(t, ctx, TabularHeader)
}

func TestMergeSectionOrder(t *testing.T) {
	snap := &MetricSnapshot{PropertyLabel: "Shop", Metrics: map[string]float64{MetricSessions: 10}}
	docs := []DocumentExcerpt{{Name: "notes.txt", MimeLabel: "text/plain", Content: "Q3 was strong."}}

	ctx, err := Merge(sampleProfile(), snap, docs)
	require.NoError(t, err)

	ti := strings.Index(ctx, TabularHeader)
	ai := strings.Index(ctx, AnalyticsHeader)
	di := strings.Index(ctx, DocumentsHeader)
	assert.True(t, ti >= 0 && ti < ai && ai < di, "sections out of order")
	assert.Contains(t, ctx, "### notes.txt (text/plain)\nQ3 was strong.")
}

func TestMergeNoData(t *testing.T) {
	empty := analysis.Summarize(nil, nil, 0)
	_, err := Merge(empty, &MetricSnapshot{}, nil)
	assert.True(t, errors.Is(err, apperrors.ErrNoData))

	_, err = Merge(nil, nil, []DocumentExcerpt{})
	assert.ErrorIs(t, err, apperrors.ErrNoData)
}

func TestMergeDoesNotTruncateDocuments(t *testing.T) {
	// capping is the caller's job; the merger renders content as given
	long := strings.Repeat("é", MaxDocumentChars+100)
	ctx, err := Merge(nil, nil, []DocumentExcerpt{{Name: "a", MimeLabel: "text/plain", Content: long}})
	require.NoError(t, err)
	assert.Equal(t, MaxDocumentChars+100, strings.Count(ctx, "é"))
}

func TestMetricFormatting(t *testing.T) {
	snap := &MetricSnapshot{
		PropertyLabel: "properties/123",
		DateRange:     DateRange{Start: "2024-01-01", End: "2024-01-31"},
		Metrics: map[string]float64{
			MetricActiveUsers:            37412,
			MetricScreenPageViews:        1234567,
			MetricAverageSessionDuration: 123.6,
			MetricBounceRate:             0.4523,
			MetricNewUsers:               0,
		},
	}
	out := snap.Render()
	assert.Contains(t, out, "Date Range: 2024-01-01 to 2024-01-31")
	assert.Contains(t, out, "- Active Users: 37,412\n")
	assert.Contains(t, out, "- Page Views: 1,234,567\n")
	assert.Contains(t, out, "- Avg Session Duration: 124 seconds\n")
	assert.Contains(t, out, "- Bounce Rate: 45.2%\n")
	assert.Contains(t, out, "- New Users: 0\n")
	assert.Contains(t, out, "- Engaged Sessions: N/A\n")

	labels := []string{"Active Users", "Total Users", "Sessions", "Page Views", "Avg Session Duration", "Bounce Rate", "New Users", "Engaged Sessions"}
	last := -1
	for _, l := range labels {
		i := strings.Index(out, "- "+l+":")
		require.Greater(t, i, last, l)
		last = i
	}
}

func TestParseSnapshotShapes(t *testing.T) {
	s, err := ParseSnapshot([]byte(`{"property":"p","dateRange":{"startDate":"30daysAgo","endDate":"today"},"metrics":{"sessions":5}}`))
	require.NoError(t, err)
	assert.Equal(t, "30daysAgo", s.DateRange.Start)
	assert.Equal(t, 5.0, s.Metrics[MetricSessions])

	s, err = ParseSnapshot([]byte(`{"dateRange":{"start":"a","end":"b"}}`))
	require.NoError(t, err)
	assert.Equal(t, "b", s.DateRange.End)
	assert.True(t, s.Empty())
}

func TestParseSnapshotNullMetricIsMissing(t *testing.T) {
	s, err := ParseSnapshot([]byte(`{"metrics":{"activeUsers":500,"totalUsers":null}}`))
	require.NoError(t, err)
	_, present := s.Metrics[MetricTotalUsers]
	assert.False(t, present)

	out := s.Render()
	assert.Contains(t, out, "- Active Users: 500\n")
	assert.Contains(t, out, "- Total Users: N/A\n")
	assert.NotContains(t, out, "- Total Users: 0")
}

func TestPresentMetrics(t *testing.T) {
	zero, five := 0.0, 5.0
	got := PresentMetrics(map[string]*float64{"a": &zero, "b": nil, "c": &five})
	assert.Equal(t, map[string]float64{"a": 0, "c": 5}, got)
	assert.Nil(t, PresentMetrics(nil))
}

func TestCapExcerptShort(t *testing.T) {
	d := CapExcerpt(DocumentExcerpt{Content: "short"})
	assert.Equal(t, "short", d.Content)
}
