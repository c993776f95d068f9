package pipeline

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BitCodeHub/analytics-storyteller/internal/ai"
	"github.com/BitCodeHub/analytics-storyteller/internal/analysis"
	"github.com/BitCodeHub/analytics-storyteller/internal/apperrors"
	"github.com/BitCodeHub/analytics-storyteller/internal/sources"
)

type fakeGateway struct {
	text    string
	err     error
	calls   int
	prompts []string
	block   bool
}

func (f *fakeGateway) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	f.calls++
	f.prompts = append(f.prompts, req.Prompt)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ai.Completion{Text: f.text, RequestID: "fake"}, nil
}

const validReply = `Here you go: {"story":"x","insights":["a"],"recommendations":["b"]} Thanks!`

func salesTable() *analysis.Table {
	return &analysis.Table{
		Headers: []string{"region", "revenue"},
		Rows: []analysis.Row{
			{"region": analysis.StringValue("east"), "revenue": analysis.NumberValue(100)},
			{"region": analysis.StringValue("west"), "revenue": analysis.NumberValue(200)},
		},
		TotalRows: 2,
	}
}

func newTestAnalyzer(t *testing.T, g ai.Gateway) (*Analyzer, *Metrics) {
	t.Helper()
	m := NewMetrics(prometheus.NewRegistry())
	return NewAnalyzer(g, Options{Provider: "fake", Model: "m"}, zaptest.NewLogger(t), m), m
}

func TestAnalyzeTabularOnly(t *testing.T) {
	g := &fakeGateway{text: validReply}
	a, m := newTestAnalyzer(t, g)

	res, err := a.Analyze(context.Background(), Input{Tabular: salesTable()})
	require.NoError(t, err)
	assert.Equal(t, "x", res.Story)

	require.Len(t, g.prompts, 1)
	p := g.prompts[0]
	assert.Contains(t, p, "revenue: numeric (min: 100.00, max: 200.00, avg: 150.00)")
	assert.Contains(t, p, "region: categorical (examples: east, west)")
	assert.NotContains(t, p, sources.AnalyticsHeader)
	assert.NotContains(t, p, sources.DocumentsHeader)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("ok")))
}

func TestAnalyzeAnalyticsOnly(t *testing.T) {
	g := &fakeGateway{text: validReply}
	a, _ := newTestAnalyzer(t, g)

	snap := &sources.MetricSnapshot{Metrics: map[string]float64{sources.MetricActiveUsers: 500}}
	_, err := a.Analyze(context.Background(), Input{Analytics: snap})
	require.NoError(t, err)

	p := g.prompts[0]
	assert.Contains(t, p, "Active Users: 500")
	assert.Contains(t, p, "Total Users: N/A")
	assert.NotContains(t, p, sources.TabularHeader)
}

func TestAnalyzeNoDataSkipsModel(t *testing.T) {
	g := &fakeGateway{text: validReply}
	a, m := newTestAnalyzer(t, g)

	_, err := a.Analyze(context.Background(), Input{
		Tabular:   &analysis.Table{},
		Analytics: &sources.MetricSnapshot{},
	})
	require.ErrorIs(t, err, apperrors.ErrNoData)
	assert.Equal(t, 0, g.calls)

	status, msg := Describe(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No data provided for analysis", msg)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("no_data")))
}

func TestAnalyzeUnparseableReply(t *testing.T) {
	g := &fakeGateway{text: "{story: broken"}
	a, _ := newTestAnalyzer(t, g)

	_, err := a.Analyze(context.Background(), Input{Tabular: salesTable()})
	require.ErrorIs(t, err, apperrors.ErrNoJSONFound)

	status, msg := Describe(err)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "Failed to parse AI analysis", msg)
	assert.NotContains(t, msg, "broken")
}

func TestAnalyzeUpstreamError(t *testing.T) {
	g := &fakeGateway{err: &ai.UpstreamError{StatusCode: 529, Body: `{"error":"overloaded"}`}}
	a, _ := newTestAnalyzer(t, g)

	_, err := a.Analyze(context.Background(), Input{Tabular: salesTable()})
	require.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.Equal(t, 1, g.calls)

	status, msg := Describe(err)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, `model endpoint error: status 529: {"error":"overloaded"}`, msg)
}

func TestAnalyzeTimeout(t *testing.T) {
	g := &fakeGateway{block: true}
	m := NewMetrics(nil)
	a := NewAnalyzer(g, Options{Model: "m", Timeout: 20 * time.Millisecond}, nil, m)

	_, err := a.Analyze(context.Background(), Input{Tabular: salesTable()})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	status, _ := Describe(err)
	assert.Equal(t, http.StatusGatewayTimeout, status)
}

func TestAnalyzeBoundsInputs(t *testing.T) {
	rows := make([]analysis.Row, 300)
	for i := range rows {
		rows[i] = analysis.Row{"n": analysis.NumberValue(float64(i))}
	}
	g := &fakeGateway{text: validReply}
	a, _ := newTestAnalyzer(t, g)

	_, err := a.Analyze(context.Background(), Input{
		Tabular:   &analysis.Table{Headers: []string{"n"}, Rows: rows},
		Documents: []sources.DocumentExcerpt{{Name: "d.txt", MimeLabel: "text/plain", Content: strings.Repeat("z", 9000)}},
	})
	require.NoError(t, err)

	p := g.prompts[0]
	// only the first 100 rows are profiled
	assert.Contains(t, p, "n: numeric (min: 0.00, max: 99.00, avg: 49.50)")
	assert.Contains(t, p, "- Total rows: 300")
	assert.Contains(t, p, strings.Repeat("z", sources.MaxDocumentChars))
	assert.NotContains(t, p, strings.Repeat("z", sources.MaxDocumentChars+1))
}

func TestPrepareCapsDocumentsOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", sources.MaxDocumentChars+100)
	p, err := Prepare(Input{Documents: []sources.DocumentExcerpt{{Name: "a", MimeLabel: "text/plain", Content: long}}})
	require.NoError(t, err)
	assert.Equal(t, sources.MaxDocumentChars, strings.Count(p, "é"))
}

func TestPrepareClampsDeclaredTotal(t *testing.T) {
	rows := make([]analysis.Row, 60)
	for i := range rows {
		rows[i] = analysis.Row{"n": analysis.NumberValue(float64(i))}
	}
	p, err := Prepare(Input{Tabular: &analysis.Table{Headers: []string{"n"}, Rows: rows, TotalRows: 3}})
	require.NoError(t, err)
	assert.Contains(t, p, "- Total rows: 60\n")
}

func TestPrepareDeterministic(t *testing.T) {
	in := Input{
		Tabular:   salesTable(),
		Analytics: &sources.MetricSnapshot{PropertyLabel: "p", Metrics: map[string]float64{sources.MetricSessions: 3}},
		Documents: []sources.DocumentExcerpt{{Name: "a", MimeLabel: "text/plain", Content: "c"}},
	}
	a, err := Prepare(in)
	require.NoError(t, err)
	b, err := Prepare(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{apperrors.ErrMalformedResponse, http.StatusBadGateway, MsgNoText},
		{apperrors.ErrInvalidJSON, http.StatusBadGateway, MsgParseFailed},
		{apperrors.ErrSchemaViolation, http.StatusBadGateway, MsgParseFailed},
		{&ai.UnreachableError{Host: "h", Err: errors.New("refused")}, http.StatusBadGateway, MsgUnreachable},
		{ai.ErrMissingAPIKey, http.StatusInternalServerError, MsgNotConfigured},
		{errors.New("disk on fire"), http.StatusInternalServerError, MsgAnalysisFailed},
	}
	for _, c := range cases {
		status, msg := Describe(c.err)
		assert.Equal(t, c.status, status, c.err.Error())
		assert.Equal(t, c.msg, msg)
	}
}
