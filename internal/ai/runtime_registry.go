package ai

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RuntimeFactory builds a Gateway from the generic config below.
type RuntimeFactory func(RuntimeConfig) Gateway

// RuntimeConfig carries common knobs used by runtimes.
type RuntimeConfig struct {
	HTTPTimeout time.Duration
	APIKey      string
	// Endpoint is the full messages URL for ProviderMessages, the API base
	// URL for the SDK runtimes and the host for Ollama.
	Endpoint         string
	AnthropicVersion string
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[name] = f }

// NewGateway creates a fresh Gateway for the given provider.
func NewGateway(provider string, cfg RuntimeConfig) (Gateway, error) {
	name := strings.ToLower(strings.TrimSpace(provider))
	if name == "" {
		name = ProviderMessages
	}
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)", provider, strings.Join(Providers(), ", "))
	}
	return f(cfg), nil
}

// Providers lists the registered provider names.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// init registers built-in runtimes.
func init() {
	RegisterRuntime(ProviderMessages, func(c RuntimeConfig) Gateway {
		return NewMessagesClient(c.APIKey, c.Endpoint, c.AnthropicVersion, c.HTTPTimeout)
	})
	RegisterRuntime(ProviderAnthropic, func(c RuntimeConfig) Gateway {
		return NewAnthropicClient(c.APIKey, c.Endpoint, c.HTTPTimeout)
	})
	RegisterRuntime(ProviderOpenAI, func(c RuntimeConfig) Gateway {
		return NewOpenAIClient(c.APIKey, c.Endpoint, c.HTTPTimeout)
	})
	RegisterRuntime(ProviderOllama, func(c RuntimeConfig) Gateway {
		return NewOllamaClient(c.Endpoint, c.HTTPTimeout)
	})
}
