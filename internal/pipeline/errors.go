package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/BitCodeHub/analytics-storyteller/internal/ai"
	"github.com/BitCodeHub/analytics-storyteller/internal/apperrors"
	"github.com/BitCodeHub/analytics-storyteller/internal/logging"
)

// User-facing messages.
const (
	MsgNoData         = "No data provided for analysis"
	MsgNoText         = "No text response from AI"
	MsgParseFailed    = "Failed to parse AI analysis"
	MsgTimeout        = "Analysis timed out"
	MsgNotConfigured  = "Model endpoint is not configured"
	MsgUnreachable    = "Model endpoint is unreachable"
	MsgAnalysisFailed = "Analysis failed"
)

// maxPublicBody bounds the upstream body echoed back to callers.
const maxPublicBody = 500

// Describe maps a pipeline error to an HTTP status and a message safe to show
// the caller. Raw model text never appears in the message.
func Describe(err error) (int, string) {
	var up *ai.UpstreamError
	var unreachable *ai.UnreachableError
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, apperrors.ErrNoData):
		return http.StatusBadRequest, MsgNoData
	case errors.As(err, &up):
		body := logging.TruncateString(logging.SanitizeText(up.Body), maxPublicBody)
		return http.StatusBadGateway, fmt.Sprintf("model endpoint error: status %d: %s", up.StatusCode, body)
	case errors.Is(err, apperrors.ErrMalformedResponse):
		return http.StatusBadGateway, MsgNoText
	case apperrors.IsParseFailure(err):
		return http.StatusBadGateway, MsgParseFailed
	case errors.As(err, &unreachable):
		return http.StatusBadGateway, MsgUnreachable
	case errors.Is(err, ai.ErrMissingAPIKey):
		return http.StatusInternalServerError, MsgNotConfigured
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, MsgTimeout
	default:
		return http.StatusInternalServerError, MsgAnalysisFailed
	}
}
