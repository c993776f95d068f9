package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicClient uses the go-anthropic SDK.
type AnthropicClient struct {
	client *anthropic.Client
	apiKey string
}

// NewAnthropicClient builds an SDK client. baseURL is optional and must point
// at the API root (.../v1), not at the messages route.
func NewAnthropicClient(apiKey, baseURL string, httpTimeout time.Duration) *AnthropicClient {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	opts := []anthropic.ClientOption{anthropic.WithHTTPClient(&http.Client{Timeout: httpTimeout})}
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &AnthropicClient{client: anthropic.NewClient(apiKey, opts...), apiKey: apiKey}
}

func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	prompt := req.Prompt
	mreq := anthropic.MessagesRequest{
		MaxTokens: maxTokensOrDefault(req.MaxTokens),
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	}
	setModelID(&mreq.Model, req.Model)

	resp, err := c.client.CreateMessages(ctx, mreq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, mapAnthropicError(err)
	}
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return &Completion{Text: *block.Text, Model: req.Model, RequestID: resp.ID}, nil
		}
	}
	return nil, malformed("response had %d content blocks and none of type text", len(resp.Content))
}

// setModelID assigns a configured model name to the SDK's model field, which
// is a named string type.
func setModelID[T ~string](dst *T, model string) { *dst = T(model) }

// anthropicErrStatus maps the typed error bodies the Messages API returns to
// the status codes that produce them.
var anthropicErrStatus = map[anthropic.ErrType]int{
	anthropic.ErrTypeInvalidRequest: http.StatusBadRequest,
	anthropic.ErrTypeAuthentication: http.StatusUnauthorized,
	anthropic.ErrTypePermission:     http.StatusForbidden,
	anthropic.ErrTypeNotFound:       http.StatusNotFound,
	anthropic.ErrTypeTooLarge:       http.StatusRequestEntityTooLarge,
	anthropic.ErrTypeRateLimit:      http.StatusTooManyRequests,
	anthropic.ErrTypeApi:            http.StatusInternalServerError,
	anthropic.ErrTypeOverloaded:     529,
}

func mapAnthropicError(err error) error {
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode > 0 {
		return &UpstreamError{StatusCode: reqErr.StatusCode, Body: strings.TrimSpace(string(reqErr.Body))}
	}
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		code, ok := anthropicErrStatus[apiErr.Type]
		if !ok {
			code = http.StatusBadGateway
		}
		return &UpstreamError{StatusCode: code, Body: apiErr.Message}
	}
	return fmt.Errorf("anthropic request: %w", err)
}
