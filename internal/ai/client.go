package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultMessagesEndpoint is used when no endpoint is configured.
	DefaultMessagesEndpoint = "https://api.anthropic.com/v1/messages"
	// DefaultAnthropicVersion is sent in the anthropic-version header.
	DefaultAnthropicVersion = "2023-06-01"
)

// MessagesClient posts prompts to a Messages-protocol endpoint over plain HTTP.
type MessagesClient struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
	version    string
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
}

type contentBlock struct {
	Type string  `json:"type"`
	Text *string `json:"text,omitempty"`
}

type messagesResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Content []contentBlock `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewMessagesClient builds a client for endpoint (the full .../v1/messages URL).
func NewMessagesClient(apiKey, endpoint, version string, httpTimeout time.Duration) *MessagesClient {
	if endpoint == "" {
		endpoint = DefaultMessagesEndpoint
	}
	if version == "" {
		version = DefaultAnthropicVersion
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	return &MessagesClient{
		httpClient: &http.Client{Timeout: httpTimeout},
		apiKey:     apiKey,
		endpoint:   endpoint,
		version:    version,
	}
}

// Complete makes exactly one request.
func (c *MessagesClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	payload, err := json.Marshal(messagesRequest{
		Model:     req.Model,
		MaxTokens: maxTokensOrDefault(req.MaxTokens),
		Messages:  userTurn(req.Prompt),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", c.version)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("http request: %w", err)
		}
		return nil, &UnreachableError{Host: c.endpoint, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamFromResponse(resp)
	}

	var out messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, malformed("decode response: %v", err)
	}
	for _, block := range out.Content {
		if block.Type == "text" && block.Text != nil {
			return &Completion{
				Text:         *block.Text,
				Model:        out.Model,
				RequestID:    firstNonEmpty(extractRequestID(resp), out.ID),
				InputTokens:  out.Usage.InputTokens,
				OutputTokens: out.Usage.OutputTokens,
			}, nil
		}
	}
	return nil, malformed("response had %d content blocks and none of type text", len(out.Content))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
