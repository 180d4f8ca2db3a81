package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ustudiopd/eventlive/pkg/analysis"
	"ustudiopd/eventlive/pkg/config"
	"ustudiopd/eventlive/pkg/decision"
	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/guideline/cache"
	"ustudiopd/eventlive/pkg/guideline/compiler"
	gpErrors "ustudiopd/eventlive/pkg/guideline/errors"
	"ustudiopd/eventlive/pkg/guideline/reconciler"
	"ustudiopd/eventlive/pkg/merge"
	"ustudiopd/eventlive/pkg/roles"
	"ustudiopd/eventlive/pkg/store/campaign"
	"ustudiopd/eventlive/pkg/store/guidelines"
	"ustudiopd/eventlive/pkg/survey"
	"ustudiopd/eventlive/pkg/telemetry/logging"
	"ustudiopd/eventlive/pkg/telemetry/metrics"
	"ustudiopd/eventlive/pkg/telemetry/tracing"
)

// Run statuses recorded in metrics.
const (
	statusSuccess  = "success"
	statusFallback = "fallback"
	statusFailed   = "failed"
)

// Engine runs analysis requests. It is safe for concurrent use as long as
// its collaborators are.
type Engine struct {
	source        campaign.Source
	guidelines    guidelines.Store
	cache         cache.Cache
	generator     decision.Generator
	generatorName string
	sink          Sink

	config  config.EngineConfig
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	logger  *slog.Logger

	now   func() time.Time
	newID func() string
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithGuidelineStore sets the store consulted for the campaign's published
// pack when a request carries none.
func WithGuidelineStore(s guidelines.Store) Option {
	return func(e *Engine) { e.guidelines = s }
}

// WithCache sets the compiled-guideline cache.
func WithCache(c cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithGenerator sets the recommendation generator. name labels metrics.
func WithGenerator(g decision.Generator, name string) Option {
	return func(e *Engine) {
		e.generator = g
		e.generatorName = name
	}
}

// WithSink sets where finished runs are persisted.
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer sets the tracer.
func WithTracer(t *tracing.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock replaces time.Now for analysis timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the run and analysis pack id generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithSleep replaces the wait between generation attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) { e.sleep = sleep }
}

// New creates an engine reading campaigns from source.
func New(source campaign.Source, cfg config.EngineConfig, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, errors.New("campaign source is required")
	}

	e := &Engine{
		source: source,
		config: cfg,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default().With("component", "engine")
	}
	if e.tracer == nil {
		e.tracer = tracing.Noop()
	}
	if e.generator != nil && e.generatorName == "" {
		e.generatorName = "default"
	}
	return e, nil
}

// Request is one analysis run.
type Request struct {
	CampaignID string
	// Pack overrides the campaign's published guideline pack.
	Pack *guideline.Pack
	// SkipGeneration stops after the analysis pack.
	SkipGeneration bool
}

// Result is the output of a run.
type Result struct {
	RunID      string
	CampaignID string
	// Fingerprint is the live form fingerprint.
	Fingerprint string

	// Guideline is the pack compiled for this run, reconciled when the
	// form had drifted. Nil when the run used default settings.
	Guideline *guideline.Pack
	Reconcile *reconciler.Result
	Compile   *compiler.Result
	CacheHit  bool
	// Fallback is set when a pack was available but could not be used.
	Fallback bool
	// RoleTies lists questions whose inferred role was a tie.
	RoleTies []string

	Analysis   *analysis.Pack
	Generation *decision.Result
	Report     *merge.Report

	Duration time.Duration
}

// Analyze runs the pipeline for one campaign.
func (e *Engine) Analyze(ctx context.Context, req Request) (result *Result, err error) {
	if req.CampaignID == "" {
		return nil, errors.New("campaign id is required")
	}

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	runID := e.newID()
	ctx = logging.WithRunID(ctx, runID)
	ctx = logging.WithCampaignID(ctx, req.CampaignID)
	ctx, span := e.tracer.Start(ctx, "analysis.run")
	defer span.End()
	span.SetAttributes(tracing.NewAttributeBuilder().
		WithString(tracing.AttrRunID, runID).
		WithString(tracing.AttrCampaignID, req.CampaignID).
		Build()...)

	start := time.Now()
	res := &Result{RunID: runID, CampaignID: req.CampaignID}
	samples := 0
	defer func() {
		res.Duration = time.Since(start)
		status := statusSuccess
		switch {
		case err != nil:
			status = statusFailed
			tracing.SetError(span, err)
			e.logger.ErrorContext(ctx, "analysis failed", "error", err, "duration", res.Duration)
		case res.Fallback:
			status = statusFallback
		}
		e.metrics.RecordAnalysis(status, samples, res.Duration)
	}()

	data, err := e.load(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}
	samples = len(data.Submissions)
	res.Fingerprint = survey.FingerprintQuestions(data.Questions)
	tracing.SetCampaignAttributes(span, data.CampaignID, data.FormID, res.Fingerprint)

	questions := e.inferRoles(ctx, data, res)

	pack, err := e.selectPack(ctx, req)
	if err != nil {
		return nil, err
	}

	var compiled *compiler.Compiled
	if pack != nil {
		compiled, err = e.prepareGuideline(ctx, pack, questions, data.FormRevision, res)
		if err != nil {
			return nil, err
		}
	}

	res.Analysis = e.analyze(ctx, data, compiled)

	if e.generator != nil && !req.SkipGeneration {
		if err := e.generate(ctx, res); err != nil {
			return nil, err
		}
		e.merge(ctx, res)
	}

	if e.sink != nil {
		if err := e.persist(ctx, res); err != nil {
			return nil, err
		}
	}

	e.logger.InfoContext(ctx, "analysis complete",
		"samples", samples,
		"guideline", guidelineID(res.Guideline),
		"fallback", res.Fallback,
		"evidence", len(res.Analysis.Evidence),
		"highlights", len(res.Analysis.Highlights))
	return res, nil
}

// stage opens a child span and returns a function that ends it and
// records the stage duration.
func (e *Engine) stage(ctx context.Context, name string) (context.Context, func(err error)) {
	ctx, span := e.tracer.Start(ctx, "analysis."+name)
	span.SetAttributes(tracing.NewAttributeBuilder().WithString(tracing.AttrStage, name).Build()...)
	start := time.Now()
	return ctx, func(err error) {
		tracing.SetError(span, err)
		span.End()
		e.metrics.RecordStage(name, time.Since(start))
	}
}

func (e *Engine) load(ctx context.Context, campaignID string) (*survey.CampaignData, error) {
	ctx, done := e.stage(ctx, StageLoad)
	data, err := e.source.Load(ctx, campaignID)
	if err != nil {
		err = &StageError{Stage: StageLoad, Cause: err}
	}
	done(err)
	return data, err
}

func (e *Engine) inferRoles(ctx context.Context, data *survey.CampaignData, res *Result) []roles.QuestionWithRole {
	ctx, done := e.stage(ctx, StageRoles)
	defer done(nil)

	questions := roles.InferAll(data.Questions)
	for _, q := range roles.Ties(questions) {
		res.RoleTies = append(res.RoleTies, q.ID)
		e.logger.WarnContext(ctx, "role inference tie", "question_id", q.ID, "role", q.Role)
	}
	return questions
}

func (e *Engine) selectPack(ctx context.Context, req Request) (*guideline.Pack, error) {
	if req.Pack != nil {
		return req.Pack, nil
	}
	if e.guidelines == nil {
		return nil, nil
	}

	ctx, done := e.stage(ctx, StageGuideline)
	pack, err := e.guidelines.Published(ctx, req.CampaignID)
	switch {
	case errors.Is(err, guidelines.ErrNotFound):
		e.logger.InfoContext(ctx, "no published guideline, using defaults")
		pack, err = nil, nil
	case err != nil:
		err = &StageError{Stage: StageGuideline, Cause: err}
	}
	done(err)
	return pack, err
}

// prepareGuideline reconciles and compiles pack. A nil compiled result with
// a nil error means the run falls back to default settings.
func (e *Engine) prepareGuideline(ctx context.Context, pack *guideline.Pack, questions []roles.QuestionWithRole, revision string, res *Result) (*compiler.Compiled, error) {
	fingerprint := res.Fingerprint
	if pack.FormFingerprint != fingerprint {
		rctx, done := e.stage(ctx, StageReconcile)
		rec := reconciler.Reconcile(pack, fingerprint, questions)
		res.Reconcile = rec
		e.metrics.RecordReconcile(rec.CanReconcile, rec.Confidence)
		tracing.SetReconcileAttributes(tracing.SpanFromContext(rctx), rec.CanReconcile, rec.Confidence)
		logWarnings(rctx, e.logger, "reconcile warning", rec.Warnings)

		if !rec.CanReconcile {
			err := &ReconcileError{
				PackID:     pack.ID,
				Confidence: rec.Confidence,
				MatchRatio: rec.MatchRatio,
				Warnings:   rec.Warnings,
			}
			if e.config.FallbackToDefaults {
				done(nil)
				e.logger.WarnContext(rctx, "guideline cannot be reconciled, using defaults",
					"guideline", pack.ID, "confidence", rec.Confidence)
				res.Fallback = true
				return nil, nil
			}
			done(err)
			return nil, err
		}
		done(nil)
		e.logger.InfoContext(rctx, "guideline reconciled",
			"guideline", pack.ID, "confidence", rec.Confidence, "match_ratio", rec.MatchRatio)
		pack = rec.Reconciled
	}
	res.Guideline = pack

	ctx, span := e.tracer.Start(ctx, "analysis."+StageCompile)
	start := time.Now()
	compiled, err := e.compile(ctx, pack, questions, revision, res)
	slots := 0
	if compiled != nil {
		slots = len(compiled.Slots)
	}
	tracing.SetCompileAttributes(span, pack.ID, slots, compiled != nil, compileWarnings(res.Compile), res.CacheHit)
	tracing.SetError(span, err)
	span.End()
	e.metrics.RecordStage(StageCompile, time.Since(start))
	if err != nil {
		res.Guideline = nil
		return nil, err
	}
	return compiled, nil
}

func (e *Engine) compile(ctx context.Context, pack *guideline.Pack, questions []roles.QuestionWithRole, revision string, res *Result) (*compiler.Compiled, error) {
	var key string
	if e.cache != nil {
		hash, err := guideline.ContentHash(pack)
		if err != nil {
			e.logger.WarnContext(ctx, "guideline hash failed, compiling without cache", "error", err)
		} else {
			key = cache.Key(pack.ID, hash, revision, res.Fingerprint)
		}
	}
	if key != "" {
		compiled, ok, err := e.cache.Get(ctx, key)
		switch {
		case err != nil:
			e.logger.WarnContext(ctx, "compiled guideline cache read failed", "error", err)
		case ok:
			e.metrics.RecordCacheHit(cacheName)
			e.metrics.RecordCompile("cached")
			res.CacheHit = true
			return compiled, nil
		default:
			e.metrics.RecordCacheMiss(cacheName)
		}
		e.recordCacheSize()
	}

	cr := compiler.Compile(pack, questions, revision)
	res.Compile = cr
	logWarnings(ctx, e.logger, "compile warning", cr.Warnings)
	if !cr.Success {
		e.metrics.RecordCompile("failed")
		return nil, &CompileError{PackID: pack.ID, Errors: cr.Errors}
	}
	e.metrics.RecordCompile("success")

	if key != "" {
		if err := e.cache.Set(ctx, key, cr.Compiled); err != nil {
			e.logger.WarnContext(ctx, "compiled guideline cache write failed", "error", err)
		}
		e.recordCacheSize()
	}
	return cr.Compiled, nil
}

const cacheName = "compiled_guideline"

// recordCacheSize reports the entry count of caches that track one. Set may
// evict and Get may drop expired entries, so it runs after both.
func (e *Engine) recordCacheSize() {
	if sized, ok := e.cache.(interface{ Len() int }); ok {
		e.metrics.UpdateCacheSize(cacheName, sized.Len())
	}
}

func (e *Engine) analyze(ctx context.Context, data *survey.CampaignData, compiled *compiler.Compiled) *analysis.Pack {
	ctx, done := e.stage(ctx, StageAnalyze)
	defer done(nil)

	ap := analysis.BuildAnalysisPack(data, compiled, analysis.Options{
		Now:          e.now,
		NewID:        e.newID,
		MinCellCount: e.config.MinCellCount,
	})
	span := tracing.SpanFromContext(ctx)
	span.SetAttributes(tracing.NewAttributeBuilder().
		WithInt(tracing.AttrSampleCount, ap.Campaign.SampleCount).
		WithInt(tracing.AttrQuestionCount, ap.Campaign.QuestionCount).
		WithInt(tracing.AttrCrossTabs, len(ap.Crosstabs)).
		Build()...)
	return ap
}

func (e *Engine) generate(ctx context.Context, res *Result) error {
	ctx, done := e.stage(ctx, StageGenerate)

	base, err := decision.BaseContext(res.Analysis)
	if err != nil {
		err = &StageError{Stage: StageGenerate, Cause: fmt.Errorf("build prompt: %w", err)}
		done(err)
		return err
	}

	start := time.Now()
	gen, err := decision.GenerateWithRetry(ctx, e.generator, base, decision.RetryConfig{
		MaxAttempts: e.config.MaxAttempts,
		BaseDelay:   e.config.BaseDelay,
		Sleep:       e.sleep,
		Logger:      e.logger,
	})
	elapsed := time.Since(start)

	attempts := attemptCount(gen, err)
	tracing.SetGenerationAttributes(tracing.SpanFromContext(ctx), e.generatorName, attempts)

	var (
		genErr *decision.GenerationError
		valErr *decision.ValidationFailure
	)
	switch {
	case err == nil:
		e.metrics.RecordGeneration(e.generatorName, "success", attempts, elapsed)
		res.Generation = gen
	case errors.As(err, &genErr):
		e.metrics.RecordGeneration(e.generatorName, "generation_error", attempts, elapsed)
		e.metrics.RecordGeneratorError(e.generatorName, errorType(genErr.Cause))
	case errors.As(err, &valErr):
		e.metrics.RecordGeneration(e.generatorName, "validation_failure", attempts, elapsed)
	}
	if err != nil {
		err = &StageError{Stage: StageGenerate, Cause: err}
	}
	done(err)
	return err
}

func (e *Engine) merge(ctx context.Context, res *Result) {
	ctx, done := e.stage(ctx, StageMerge)
	defer done(nil)

	report := merge.Merge(res.Analysis, res.Generation.Pack, e.logger)
	kinds := make([]string, len(report.Repairs))
	for i, r := range report.Repairs {
		kinds[i] = string(r.Kind)
	}
	e.metrics.RecordMerge(kinds, len(report.Flags))
	tracing.SpanFromContext(ctx).SetAttributes(tracing.NewAttributeBuilder().
		WithInt(tracing.AttrRepairs, len(report.Repairs)).
		WithInt(tracing.AttrFlags, len(report.Flags)).
		Build()...)
	res.Report = report
}

func (e *Engine) persist(ctx context.Context, res *Result) error {
	ctx, done := e.stage(ctx, StagePersist)
	err := e.sink.Save(ctx, res)
	if err != nil {
		err = &StageError{Stage: StagePersist, Cause: err}
	}
	done(err)
	return err
}

func attemptCount(gen *decision.Result, err error) int {
	if gen != nil {
		return len(gen.Attempts)
	}
	var genErr *decision.GenerationError
	if errors.As(err, &genErr) {
		return len(genErr.Attempts)
	}
	var valErr *decision.ValidationFailure
	if errors.As(err, &valErr) {
		return len(valErr.Attempts)
	}
	return 0
}

func compileWarnings(r *compiler.Result) int {
	if r == nil {
		return 0
	}
	return len(r.Warnings)
}

func guidelineID(p *guideline.Pack) string {
	if p == nil {
		return ""
	}
	return p.ID
}

func logWarnings(ctx context.Context, logger *slog.Logger, msg string, warnings []*gpErrors.Error) {
	for _, w := range warnings {
		logger.WarnContext(ctx, msg, "code", w.Code, "path", w.Path, "message", w.Message)
	}
}
