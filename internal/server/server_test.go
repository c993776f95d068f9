package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BitCodeHub/analytics-storyteller/internal/ai"
	"github.com/BitCodeHub/analytics-storyteller/internal/pipeline"
	"github.com/BitCodeHub/analytics-storyteller/internal/response"
)

type stubGateway struct {
	text   string
	err    error
	prompt string
	calls  int
}

func (g *stubGateway) Complete(_ context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	g.calls++
	g.prompt = req.Prompt
	if g.err != nil {
		return nil, g.err
	}
	return &ai.Completion{Text: g.text}, nil
}

func newTestServer(t *testing.T, g ai.Gateway) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	logger := zaptest.NewLogger(t)
	a := pipeline.NewAnalyzer(g, pipeline.Options{Provider: "stub", Model: "m"}, logger, pipeline.NewMetrics(reg))
	srv := httptest.NewServer(New(a, reg, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestAnalyzeEndpoint(t *testing.T) {
	g := &stubGateway{text: `{"story":"Sales grew","insights":["east leads"],"recommendations":["expand"],"chartData":{"labels":["east","west"],"datasets":[{"label":"rev","data":[100,200]}]}}`}
	srv := newTestServer(t, g)

	resp, out := postJSON(t, srv.URL+"/api/analyze", `{
		"headers": ["region","revenue"],
		"data": [],
		"csvData": [{"region":"east","revenue":100},{"region":"west","revenue":200}],
		"ga4Metrics": {"activeUsers": 1234},
		"ga4Property": "web",
		"dateRange": {"start":"2024-01-01","end":"2024-01-31"},
		"uploadedDocuments": [{"name":"notes.txt","type":"text/plain","content":"Q1 notes"}]
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	assert.Equal(t, "Sales grew", out["story"])
	assert.NotNil(t, out["chartData"])

	assert.Contains(t, g.prompt, "- Total rows: 2")
	assert.Contains(t, g.prompt, "Property: web")
	assert.Contains(t, g.prompt, "Date Range: 2024-01-01 to 2024-01-31")
	assert.Contains(t, g.prompt, "Active Users: 1,234")
	assert.Contains(t, g.prompt, "### notes.txt (text/plain)")
}

func TestAnalyzeEndpointNullMetricRendersNA(t *testing.T) {
	g := &stubGateway{text: `{"story":"s","insights":[],"recommendations":[]}`}
	srv := newTestServer(t, g)

	resp, _ := postJSON(t, srv.URL+"/api/analyze", `{"ga4Metrics":{"activeUsers":500,"totalUsers":null}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, g.prompt, "- Active Users: 500\n")
	assert.Contains(t, g.prompt, "- Total Users: N/A\n")
	assert.NotContains(t, g.prompt, "- Total Users: 0")
}

func TestAnalyzeEndpointNoData(t *testing.T) {
	g := &stubGateway{}
	srv := newTestServer(t, g)

	resp, out := postJSON(t, srv.URL+"/api/analyze", `{"headers":["a"],"data":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, pipeline.MsgNoData, out["error"])
	assert.Equal(t, 0, g.calls)
}

func TestAnalyzeEndpointUpstreamFailure(t *testing.T) {
	g := &stubGateway{err: &ai.UpstreamError{StatusCode: 401, Body: "bad key"}}
	srv := newTestServer(t, g)

	resp, out := postJSON(t, srv.URL+"/api/analyze", `{"ga4Metrics":{"sessions":3}}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "model endpoint error: status 401: bad key", out["error"])
}

func TestAnalyzeEndpointParseFailure(t *testing.T) {
	g := &stubGateway{text: "I could not produce JSON today."}
	srv := newTestServer(t, g)

	resp, out := postJSON(t, srv.URL+"/api/analyze", `{"ga4Metrics":{"sessions":3}}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, pipeline.MsgParseFailed, out["error"])
}

func TestAnalyzeEndpointBadBody(t *testing.T) {
	srv := newTestServer(t, &stubGateway{})

	resp, out := postJSON(t, srv.URL+"/api/analyze", `{"headers": 5}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request body", out["error"])

	get, err := http.Get(srv.URL + "/api/analyze")
	require.NoError(t, err)
	get.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, get.StatusCode)
}

func TestExtractEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubGateway{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "readme.md")
	require.NoError(t, err)
	_, err = fw.Write([]byte("# Title\n\n\n\nBody"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/extract", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out extractResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "readme.md", out.Filename)
	assert.Equal(t, "text/markdown", out.Type)
	assert.Equal(t, int64(15), out.Size)
	assert.Contains(t, out.Text, "Body")
}

func TestExtractEndpointMissingFile(t *testing.T) {
	srv := newTestServer(t, &stubGateway{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/extract", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	g := &stubGateway{text: `{"story":"s","insights":[],"recommendations":[]}`}
	srv := newTestServer(t, g)

	resp, out := postJSON(t, srv.URL+"/api/analyze", `{"ga4Metrics":{"sessions":3}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result response.AnalysisResult
	b, _ := json.Marshal(out)
	require.NoError(t, json.Unmarshal(b, &result))
	assert.Equal(t, "s", result.Story)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	var body bytes.Buffer
	_, err = body.ReadFrom(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), `storyteller_analyses_total{outcome="ok"} 1`)
}
