// Package pipeline runs one analysis: profile, merge, prompt, model call,
// extraction.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BitCodeHub/analytics-storyteller/internal/ai"
	"github.com/BitCodeHub/analytics-storyteller/internal/analysis"
	"github.com/BitCodeHub/analytics-storyteller/internal/apperrors"
	"github.com/BitCodeHub/analytics-storyteller/internal/logging"
	"github.com/BitCodeHub/analytics-storyteller/internal/prompt"
	"github.com/BitCodeHub/analytics-storyteller/internal/response"
	"github.com/BitCodeHub/analytics-storyteller/internal/sources"
	"github.com/BitCodeHub/analytics-storyteller/internal/utils"
)

// maxLoggedResponse bounds how much raw model text reaches the logs.
const maxLoggedResponse = 2000

// Input is everything one analysis may draw on. Any part may be absent.
type Input struct {
	Tabular   *analysis.Table
	Analytics *sources.MetricSnapshot
	Documents []sources.DocumentExcerpt
}

// Options configures the model call.
type Options struct {
	Provider  string
	Model     string
	MaxTokens int
	// Timeout bounds the model call. Zero means no extra deadline.
	Timeout time.Duration
}

// Analyzer runs the pipeline against an injected gateway.
type Analyzer struct {
	gateway ai.Gateway
	opts    Options
	logger  *zap.Logger
	metrics *Metrics
}

// NewAnalyzer wires an Analyzer. logger and metrics may be nil.
func NewAnalyzer(gateway ai.Gateway, opts Options, logger *zap.Logger, metrics *Metrics) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = ai.DefaultMaxTokens
	}
	return &Analyzer{gateway: gateway, opts: opts, logger: logger.Named("pipeline"), metrics: metrics}
}

// Prepare runs the pure steps and returns the prompt. It fails with
// apperrors.ErrNoData when no source is present.
func Prepare(in Input) (string, error) {
	var profile *analysis.DatasetProfile
	if in.Tabular != nil {
		profile = in.Tabular.Bounded().Profile()
	}
	docs := make([]sources.DocumentExcerpt, len(in.Documents))
	for i, d := range in.Documents {
		docs[i] = sources.CapExcerpt(d)
	}
	merged, err := sources.Merge(profile, in.Analytics, docs)
	if err != nil {
		return "", err
	}
	return prompt.Build(merged)
}

// Analyze runs the whole pipeline once. The model is called at most once per
// Analyze unless the injected gateway retries.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*response.AnalysisResult, error) {
	start := time.Now()
	requestID := uuid.NewString()
	log := a.logger.With(zap.String("request_id", requestID))

	result, err := a.analyze(ctx, in, log)

	a.metrics.AnalysesTotal.WithLabelValues(apperrors.Kind(err)).Inc()
	a.metrics.AnalysisSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Warn("Analysis failed", zap.String("kind", apperrors.Kind(err)), zap.Error(err))
		return nil, err
	}
	log.Info("Analysis complete",
		zap.Int("insights", len(result.Insights)),
		zap.Int("recommendations", len(result.Recommendations)),
		zap.Bool("chart", result.ChartData != nil),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

func (a *Analyzer) analyze(ctx context.Context, in Input, log *zap.Logger) (*response.AnalysisResult, error) {
	log.Debug("Preparing analysis",
		zap.Bool("tabular", in.Tabular != nil),
		zap.Bool("analytics", !in.Analytics.Empty()),
		zap.Int("documents", len(in.Documents)))

	p, err := Prepare(in)
	if err != nil {
		return nil, err
	}
	a.metrics.PromptChars.Observe(float64(len(p)))
	log.Debug("Prompt assembled", zap.Int("chars", len(p)), zap.Int("tokens_est", utils.CountTokens(p)))

	callCtx := ctx
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}
	callStart := time.Now()
	completion, err := a.gateway.Complete(callCtx, ai.CompletionRequest{
		Model:     a.opts.Model,
		Prompt:    p,
		MaxTokens: a.opts.MaxTokens,
	})
	a.metrics.ModelSeconds.WithLabelValues(a.opts.Provider).Observe(time.Since(callStart).Seconds())
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}
	log.Debug("Model responded",
		zap.String("model_request_id", completion.RequestID),
		zap.Int("input_tokens", completion.InputTokens),
		zap.Int("output_tokens", completion.OutputTokens),
		zap.Duration("latency", time.Since(callStart)))

	result, err := response.Extract(completion.Text)
	if err != nil {
		log.Error("Failed to parse model response",
			zap.Error(err),
			zap.String("raw_response", logging.TruncateString(completion.Text, maxLoggedResponse)))
		return nil, err
	}
	return result, nil
}
