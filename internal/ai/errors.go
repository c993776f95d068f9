package ai

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BitCodeHub/analytics-storyteller/internal/apperrors"
)

// UpstreamError is a non-success HTTP answer from the model endpoint. It
// matches apperrors.ErrUpstream under errors.Is.
type UpstreamError struct {
	StatusCode int
	Body       string
	RequestID  string
	RetryAfter time.Duration
}

func (e *UpstreamError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("model endpoint error: status=%d request_id=%s body=%s", e.StatusCode, e.RequestID, e.Body)
	}
	return fmt.Sprintf("model endpoint error: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Is(target error) bool { return target == apperrors.ErrUpstream }

// Retryable reports whether a later identical request may succeed (429 or 5xx).
func (e *UpstreamError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || (e.StatusCode >= 500 && e.StatusCode <= 599)
}

// Auth reports whether the endpoint rejected the credentials.
func (e *UpstreamError) Auth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// UnreachableError indicates the target runtime is not reachable (e.g., local Ollama down).
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// ErrMissingAPIKey is returned before any request when no key is configured.
var ErrMissingAPIKey = errors.New("api key is missing (set STORYTELLER_API_KEY or api_key in config)")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// upstreamFromResponse reads a bounded error body from a non-2xx response.
func upstreamFromResponse(resp *http.Response) *UpstreamError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	e := &UpstreamError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
		RequestID:  extractRequestID(resp),
	}
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := parseRetryAfterSeconds(ra); err == nil && secs > 0 {
			e.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return e
}

// parseRetryAfterSeconds tries to interpret Retry-After header value as seconds or HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	// Try integer seconds first
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	// Try HTTP-date
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	keys := []string{"Request-Id", "X-Request-Id", "Apim-Request-Id", "X-Ms-Request-Id", "OpenAI-Request-ID", "X-Amzn-Requestid"}
	for _, k := range keys {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	// EOF or connection reset
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
