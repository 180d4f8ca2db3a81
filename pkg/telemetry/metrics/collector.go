package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ustudiopd/eventlive/pkg/config"
)

// Collector owns the engine's Prometheus metrics.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	analysisMetrics   *AnalysisMetrics
	generationMetrics *GenerationMetrics
	guidelineMetrics  *GuidelineMetrics
	cacheMetrics      *CacheMetrics

	// Generator names are caller-supplied; cap their cardinality.
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector registered on registry, or on a fresh
// registry when nil.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		analysisMetrics:    NewAnalysisMetrics(cfg, registry),
		generationMetrics:  NewGenerationMetrics(cfg, registry),
		guidelineMetrics:   NewGuidelineMetrics(cfg, registry),
		cacheMetrics:       NewCacheMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(100),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordAnalysis records a finished analysis run.
//
// Parameters:
//   - status: "success", "degraded" (analysis only, generation failed) or "error"
//   - samples: submissions analyzed
//   - duration: wall time of the run
func (c *Collector) RecordAnalysis(status string, samples int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.analysisMetrics.RecordRun(status, samples, duration)
}

// RecordStage records the duration of one pipeline stage.
func (c *Collector) RecordStage(stage string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.analysisMetrics.RecordStage(stage, duration)
}

// RecordMerge records the repairs and flags of one merge.
func (c *Collector) RecordMerge(repairKinds []string, flags int) {
	if !c.enabled() {
		return
	}
	for _, k := range repairKinds {
		c.analysisMetrics.RecordRepair(k)
	}
	c.analysisMetrics.RecordFlags(flags)
}

// RecordGeneration records one generate-with-retry run.
//
// Parameters:
//   - generator: generator name
//   - outcome: "success", "validation_failed" or "generation_failed"
//   - attempts: attempts made
//   - duration: wall time including backoff
func (c *Collector) RecordGeneration(generator, outcome string, attempts int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.generationMetrics.RecordRun(c.limitGenerator(generator), outcome, attempts, duration)
}

// RecordGeneratorError records a failed generator call.
//
// Parameters:
//   - generator: generator name
//   - errorType: "rate_limit", "timeout", "auth", "server_error", "parse", "validation" or "other"
func (c *Collector) RecordGeneratorError(generator, errorType string) {
	if !c.enabled() {
		return
	}
	c.generationMetrics.RecordError(c.limitGenerator(generator), errorType)
}

func (c *Collector) limitGenerator(name string) string {
	if !c.cardinalityLimiter.Allow("generator:" + name) {
		return "other"
	}
	return name
}

// RecordCompile records a compile outcome: "success", "failed" or "cached".
func (c *Collector) RecordCompile(result string) {
	if !c.enabled() {
		return
	}
	c.guidelineMetrics.RecordCompile(result)
}

// RecordReconcile records a reconcile attempt and its confidence.
func (c *Collector) RecordReconcile(canReconcile bool, confidence float64) {
	if !c.enabled() {
		return
	}
	c.guidelineMetrics.RecordReconcile(canReconcile, confidence)
}

// RecordPrune records archived guideline packs deleted by retention.
func (c *Collector) RecordPrune(deleted int64) {
	if !c.enabled() {
		return
	}
	c.guidelineMetrics.RecordPrune(deleted)
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit(cacheName string) {
	if !c.enabled() {
		return
	}
	c.cacheMetrics.RecordHit(cacheName)
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(cacheName string) {
	if !c.enabled() {
		return
	}
	c.cacheMetrics.RecordMiss(cacheName)
}

// UpdateCacheSize updates the current size of a cache.
func (c *Collector) UpdateCacheSize(cacheName string, size int) {
	if !c.enabled() {
		return
	}
	c.cacheMetrics.UpdateSize(cacheName, size)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter bounds the number of distinct label sets.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter allowing maxCardinality label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is known or still fits under the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
