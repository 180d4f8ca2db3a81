package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ustudiopd/eventlive/pkg/config"
)

// GenerationMetrics tracks recommendation generation.
//
// Metrics:
//   - eventlive_engine_generations_total: generate-with-retry runs by outcome
//   - eventlive_engine_generation_attempts: attempts per run
//   - eventlive_engine_generation_duration_seconds: run wall time, backoff included
//   - eventlive_engine_generator_errors_total: failed calls by error type
type GenerationMetrics struct {
	runs     *prometheus.CounterVec
	attempts *prometheus.HistogramVec
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewGenerationMetrics creates and registers generation metrics.
func NewGenerationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GenerationMetrics {
	gm := &GenerationMetrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "generations_total",
				Help:      "Total number of recommendation generation runs by outcome",
			},
			[]string{"generator", "outcome"},
		),

		attempts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "generation_attempts",
				Help:      "Attempts per recommendation generation run",
				Buckets:   []float64{1, 2, 3, 5, 10},
			},
			[]string{"generator"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "generation_duration_seconds",
				Help:      "Recommendation generation duration in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"generator"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "generator_errors_total",
				Help:      "Total number of generator errors by type",
			},
			[]string{"generator", "error_type"},
		),
	}

	registry.MustRegister(
		gm.runs,
		gm.attempts,
		gm.duration,
		gm.errors,
	)

	return gm
}

// RecordRun records one generate-with-retry run.
func (gm *GenerationMetrics) RecordRun(generator, outcome string, attempts int, duration time.Duration) {
	gm.runs.WithLabelValues(generator, outcome).Inc()
	gm.attempts.WithLabelValues(generator).Observe(float64(attempts))
	gm.duration.WithLabelValues(generator).Observe(duration.Seconds())
}

// RecordError records a failed generator call.
//
// Common error types:
//   - "rate_limit": HTTP 429
//   - "timeout": request timeout
//   - "auth": HTTP 401/403
//   - "server_error": HTTP 5xx
//   - "parse": unreadable response or non-JSON answer
//   - "validation": answer failed the decision pack schema
func (gm *GenerationMetrics) RecordError(generator, errorType string) {
	gm.errors.WithLabelValues(generator, errorType).Inc()
}
