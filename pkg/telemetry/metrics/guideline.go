package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"ustudiopd/eventlive/pkg/config"
)

// GuidelineMetrics tracks guideline compilation and lifecycle.
//
// Metrics:
//   - eventlive_engine_compiles_total: compile outcomes
//   - eventlive_engine_reconciles_total: reconcile outcomes
//   - eventlive_engine_reconcile_confidence: confidence of reconciled mappings
//   - eventlive_engine_guidelines_pruned_total: archived packs deleted
type GuidelineMetrics struct {
	compiles   *prometheus.CounterVec
	reconciles *prometheus.CounterVec
	confidence prometheus.Histogram
	pruned     prometheus.Counter
}

// NewGuidelineMetrics creates and registers guideline metrics.
func NewGuidelineMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GuidelineMetrics {
	gm := &GuidelineMetrics{
		compiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "compiles_total",
				Help:      "Total number of guideline compiles by result",
			},
			[]string{"result"},
		),

		reconciles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reconciles_total",
				Help:      "Total number of guideline reconciliations by result",
			},
			[]string{"result"},
		),

		confidence: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reconcile_confidence",
				Help:      "Confidence of reconciled guideline mappings",
				Buckets:   []float64{0.1, 0.3, 0.5, 0.7, 0.9, 1.0},
			},
		),

		pruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "guidelines_pruned_total",
				Help:      "Total number of archived guideline packs deleted by retention",
			},
		),
	}

	registry.MustRegister(
		gm.compiles,
		gm.reconciles,
		gm.confidence,
		gm.pruned,
	)

	return gm
}

// RecordCompile records a compile outcome.
func (gm *GuidelineMetrics) RecordCompile(result string) {
	gm.compiles.WithLabelValues(result).Inc()
}

// RecordReconcile records a reconcile outcome.
func (gm *GuidelineMetrics) RecordReconcile(canReconcile bool, confidence float64) {
	result := "reconciled"
	if !canReconcile {
		result = "rejected"
	}
	gm.reconciles.WithLabelValues(result).Inc()
	gm.confidence.Observe(confidence)
}

// RecordPrune adds deleted packs.
func (gm *GuidelineMetrics) RecordPrune(deleted int64) {
	if deleted > 0 {
		gm.pruned.Add(float64(deleted))
	}
}
