package cmd

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/BitCodeHub/analytics-storyteller/internal/ai"
	cfgpkg "github.com/BitCodeHub/analytics-storyteller/internal/config"
	"github.com/BitCodeHub/analytics-storyteller/internal/pipeline"
)

// newGateway is swapped out by tests.
var newGateway = buildGateway

// buildGateway constructs the configured runtime and wraps it in the retry
// policy from config.
func buildGateway(c *cfgpkg.Global) (ai.Gateway, error) {
	g, err := ai.NewGateway(c.Provider, ai.RuntimeConfig{
		HTTPTimeout:      c.HTTPTimeout(),
		APIKey:           c.APIKey,
		Endpoint:         c.Endpoint,
		AnthropicVersion: c.AnthropicVersion,
	})
	if err != nil {
		return nil, err
	}
	return ai.WithRetry(g, ai.RetryPolicy{
		MaxAttempts: c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
	}, logger.Named("gateway")), nil
}

type analyzerOptions struct {
	Model      string
	MaxTokens  int
	TimeoutSec int
}

// buildAnalyzer wires gateway, metrics and logger into a pipeline.Analyzer.
// Flag values override config when non-zero.
func buildAnalyzer(c *cfgpkg.Global, reg prometheus.Registerer, o analyzerOptions) (*pipeline.Analyzer, error) {
	g, err := newGateway(c)
	if err != nil {
		return nil, fmt.Errorf("build gateway: %w", err)
	}
	opts := pipeline.Options{
		Provider:  c.Provider,
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		Timeout:   c.RequestTimeout(),
	}
	if o.Model != "" {
		opts.Model = o.Model
	}
	if o.MaxTokens > 0 {
		opts.MaxTokens = o.MaxTokens
	}
	if o.TimeoutSec > 0 {
		opts.Timeout = time.Duration(o.TimeoutSec) * time.Second
	}
	return pipeline.NewAnalyzer(g, opts, logger, pipeline.NewMetrics(reg)), nil
}

func providerNames() []string { return ai.Providers() }

func validProvider(name string) bool {
	for _, p := range ai.Providers() {
		if p == name {
			return true
		}
	}
	return false
}
