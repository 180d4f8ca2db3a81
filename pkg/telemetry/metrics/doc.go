// Package metrics exposes Prometheus metrics for the analysis engine.
//
// # Metrics Categories
//
//   - Analysis: run count by status, run duration, sample counts, per-stage
//     durations, merge repairs and advisory flags
//   - Generation: recommendation generation outcomes, attempts per run and
//     generator errors by type
//   - Guideline: compile and reconcile outcomes, reconcile confidence and
//     archived packs pruned
//   - Cache: compiled-guideline cache hits, misses and size
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordAnalysis("success", 50, 2*time.Second)
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// All Record methods are no-ops on a nil *Collector or when metrics are
// disabled, so components can hold an optional collector.
package metrics
