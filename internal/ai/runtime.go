// Package ai talks to hosted or local language models.
package ai

import "context"

// Gateway sends one prompt to a model and returns the first text block of
// the reply. Implementations make a single attempt; retry is opt-in through
// WithRetry.
type Gateway interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// CompletionRequest is a single-turn user prompt.
type CompletionRequest struct {
	Model     string
	Prompt    string
	MaxTokens int
}

// Completion is the text a model returned plus bookkeeping for logs.
type Completion struct {
	Text         string
	Model        string
	RequestID    string
	InputTokens  int
	OutputTokens int
}

// Provider identifiers used in configuration.
const (
	// ProviderMessages speaks the Messages HTTP protocol directly, which also
	// covers Anthropic deployments hosted behind Azure.
	ProviderMessages  = "messages"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
)

// DefaultMaxTokens is the response budget requested when none is configured.
const DefaultMaxTokens = 4096

// Message is one chat turn on the wire.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func userTurn(prompt string) []Message {
	return []Message{{Role: "user", Content: prompt}}
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return DefaultMaxTokens
	}
	return n
}
