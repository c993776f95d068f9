package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/BitCodeHub/analytics-storyteller/internal/analysis"
	"github.com/BitCodeHub/analytics-storyteller/internal/parser"
	"github.com/BitCodeHub/analytics-storyteller/internal/pipeline"
	"github.com/BitCodeHub/analytics-storyteller/internal/sources"
)

const (
	maxAnalyzeBody = 10 << 20
	maxExtractBody = 20 << 20
)

// analyzeRequest is the JSON body of POST /api/analyze. csvData is an
// alternate name for data, used when data is empty.
type analyzeRequest struct {
	Headers           []string                  `json:"headers"`
	Data              []analysis.Row            `json:"data"`
	CSVData           []analysis.Row            `json:"csvData"`
	TotalRows         int                       `json:"totalRows"`
	GA4Metrics        map[string]*float64       `json:"ga4Metrics"`
	GA4Property       string                    `json:"ga4Property"`
	DateRange         *sources.DateRange        `json:"dateRange"`
	UploadedDocuments []sources.DocumentExcerpt `json:"uploadedDocuments"`
}

func (req *analyzeRequest) input() pipeline.Input {
	var in pipeline.Input

	rows := req.Data
	if len(rows) == 0 {
		rows = req.CSVData
	}
	if len(req.Headers) > 0 && len(rows) > 0 {
		in.Tabular = &analysis.Table{Headers: req.Headers, Rows: rows, TotalRows: req.TotalRows}
	}

	if req.GA4Metrics != nil {
		snap := &sources.MetricSnapshot{PropertyLabel: req.GA4Property, Metrics: sources.PresentMetrics(req.GA4Metrics)}
		if req.DateRange != nil {
			snap.DateRange = *req.DateRange
		}
		in.Analytics = snap
	}

	in.Documents = req.UploadedDocuments
	return in
}

type extractResponse struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAnalyzeBody)
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = ErrorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		_ = ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req.input())
	if err != nil {
		status, msg := pipeline.Describe(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("Analysis error", zap.Int("status", status), zap.Error(err))
		}
		_ = ErrorResponse(w, status, msg)
		return
	}
	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		s.logger.Warn("Failed to write response", zap.Error(err))
	}
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxExtractBody)
	if err := r.ParseMultipartForm(maxExtractBody); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("Extraction error", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "Failed to extract file content")
		return
	}
	excerpt := parser.Extract(header.Filename, content)
	_ = WriteJSON(w, http.StatusOK, extractResponse{
		Text:     excerpt.Content,
		Filename: header.Filename,
		Size:     header.Size,
		Type:     excerpt.MimeLabel,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
