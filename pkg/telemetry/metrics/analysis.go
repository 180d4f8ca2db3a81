package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ustudiopd/eventlive/pkg/config"
)

// AnalysisMetrics tracks analysis runs.
//
// Metrics:
//   - eventlive_engine_analyses_total: runs by status
//   - eventlive_engine_analysis_duration_seconds: run wall time
//   - eventlive_engine_analysis_samples: submissions per run
//   - eventlive_engine_stage_duration_seconds: per-stage wall time
//   - eventlive_engine_merge_repairs_total: merge repairs by kind
//   - eventlive_engine_merge_flags_total: advisory target-count flags
type AnalysisMetrics struct {
	runs       *prometheus.CounterVec
	duration   prometheus.Histogram
	samples    prometheus.Histogram
	stages     *prometheus.HistogramVec
	repairs    *prometheus.CounterVec
	flagsTotal prometheus.Counter
}

// NewAnalysisMetrics creates and registers analysis metrics.
func NewAnalysisMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AnalysisMetrics {
	am := &AnalysisMetrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "analyses_total",
				Help:      "Total number of analysis runs by status",
			},
			[]string{"status"},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "analysis_duration_seconds",
				Help:      "Analysis run duration in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),

		samples: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "analysis_samples",
				Help:      "Submissions analyzed per run",
				Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000},
			},
		),

		stages: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"stage"},
		),

		repairs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "merge_repairs_total",
				Help:      "Total number of merge repairs by kind",
			},
			[]string{"kind"},
		),

		flagsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "merge_flags_total",
				Help:      "Total number of advisory target-count flags",
			},
		),
	}

	registry.MustRegister(
		am.runs,
		am.duration,
		am.samples,
		am.stages,
		am.repairs,
		am.flagsTotal,
	)

	return am
}

// RecordRun records a finished run.
func (am *AnalysisMetrics) RecordRun(status string, samples int, duration time.Duration) {
	am.runs.WithLabelValues(status).Inc()
	am.duration.Observe(duration.Seconds())
	am.samples.Observe(float64(samples))
}

// RecordStage records one stage duration.
func (am *AnalysisMetrics) RecordStage(stage string, duration time.Duration) {
	am.stages.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRepair records one merge repair.
func (am *AnalysisMetrics) RecordRepair(kind string) {
	am.repairs.WithLabelValues(kind).Inc()
}

// RecordFlags adds n advisory flags.
func (am *AnalysisMetrics) RecordFlags(n int) {
	if n > 0 {
		am.flagsTotal.Add(float64(n))
	}
}
