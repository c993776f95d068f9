package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	AnalysesTotal   *prometheus.CounterVec
	AnalysisSeconds prometheus.Histogram
	ModelSeconds    *prometheus.HistogramVec
	PromptChars     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storyteller_analyses_total",
				Help: "Analyses run, by outcome",
			},
			[]string{"outcome"},
		),
		AnalysisSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "storyteller_analysis_duration_seconds",
				Help:    "End-to-end analysis duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			},
		),
		ModelSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storyteller_model_request_duration_seconds",
				Help:    "Model request duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			},
			[]string{"provider"},
		),
		PromptChars: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "storyteller_prompt_chars",
				Help:    "Size of assembled prompts in characters",
				Buckets: prometheus.ExponentialBuckets(1024, 2, 8),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.AnalysesTotal, m.AnalysisSeconds, m.ModelSeconds, m.PromptChars)
	}
	return m
}
