package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/spf13/cobra"

	"ustudiopd/eventlive/pkg/cli"
	"ustudiopd/eventlive/pkg/config"
	"ustudiopd/eventlive/pkg/engine"
	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/guideline/source"
	gitsource "ustudiopd/eventlive/pkg/guideline/source/git"
	"ustudiopd/eventlive/pkg/server/middleware"
	"ustudiopd/eventlive/pkg/store/campaign"
	"ustudiopd/eventlive/pkg/store/guidelines"
	"ustudiopd/eventlive/pkg/store/guidelines/retention"
	"ustudiopd/eventlive/pkg/telemetry/health"
	"ustudiopd/eventlive/pkg/telemetry/metrics"
)

var serveFlags struct {
	listenAddress string
	outDir        string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis service",
	Long: `Run the analysis service with the specified configuration.

The service exposes:
  - POST /campaigns/{id}/analyze   run an analysis (?skip_generation=true)
  - GET  /metrics                  Prometheus metrics
  - GET  /health, /ready, /version health and build information

It also prunes archived guideline packs on the retention schedule and, when
server.guideline_dir is set, re-lints the pack files there on every change
and imports the valid ones into the guideline store as drafts. With
server.guideline_git the packs come from a checkout of a git repository
that is pulled on server.guideline_git.poll_interval. Imported drafts are
published with "eventlive guideline publish".

Examples:
  # Start with custom config
  eventlive serve --config /etc/eventlive/config.yaml

  # Override listen address
  eventlive serve --listen 0.0.0.0:9090

  # Validate config without starting the service
  eventlive serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVarP(&serveFlags.outDir, "out", "o", "reports", "output directory for analysis runs (empty disables writing)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting the service")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	out := cmd.OutOrStdout()
	if serveFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SignalContext(commandContext(cmd))
	defer stop()

	collector, tracer, err := newTelemetry(&cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer tracer.Shutdown(context.Background())

	store, err := openGuidelineStore(cfg.Storage.Guidelines)
	if err != nil {
		return fmt.Errorf("failed to open guideline store: %w", err)
	}
	defer store.Close()
	fmt.Fprintf(out, "✓ Guideline store initialized (%s)\n", cfg.Storage.Guidelines.Backend)

	src, err := openCampaignSource(ctx, cfg.Storage.Campaigns, true, logger)
	if err != nil {
		return fmt.Errorf("failed to open campaign source: %w", err)
	}
	defer src.Close()
	fmt.Fprintf(out, "✓ Campaign source initialized (%s)\n", cfg.Storage.Campaigns.Backend)

	opts := []engine.Option{
		engine.WithGuidelineStore(store),
		engine.WithLogger(logger.With("component", "engine")),
		engine.WithMetrics(collector),
		engine.WithTracer(tracer),
	}
	compiledCache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if compiledCache != nil {
		defer compiledCache.Close()
		opts = append(opts, engine.WithCache(compiledCache))
	}
	gen, err := newGenerator(cfg.Generator, logger)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}
	if gen != nil {
		defer gen.Close()
		opts = append(opts, engine.WithGenerator(gen, gen.Name()))
	}
	sink := engine.DirSink{Dir: serveFlags.outDir}
	if sink.Dir != "" {
		opts = append(opts, engine.WithSink(sink))
	}
	eng, err := engine.New(src, cfg.Engine, opts...)
	if err != nil {
		return err
	}

	checker := health.New(health.DefaultCheckTimeout)
	checker.Register("guideline_store", func(ctx context.Context) error {
		_, err := store.List(ctx, guidelines.Filter{Status: guideline.StatusPublished})
		return err
	})

	pruner := retention.NewPruner(store, retentionConfig(cfg.Retention), nil)
	pruner.SetMetrics(collector)
	scheduler := retention.NewScheduler(pruner)
	if err := scheduler.Start(ctx); err != nil {
		logger.Warn("failed to start retention scheduler", "error", err)
	} else {
		defer scheduler.Stop()
		if next := scheduler.NextRun(); next != nil {
			logger.Debug("guideline retention scheduler started", "next_run", next)
		}
	}

	dir := cfg.Server.GuidelineDir
	if gitCfg := cfg.Server.GuidelineGit; gitCfg.Repository != "" {
		repo, err := gitsource.NewRepository(&gitCfg, logger.With("component", "guideline_git"))
		if err != nil {
			return fmt.Errorf("failed to configure guideline repository: %w", err)
		}
		poller := gitsource.NewPoller(repo, gitCfg.PollInterval, logger.With("component", "guideline_git"))
		res, err := poller.Poll(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to sync guideline repository: %w", err)
		}
		checker.Register("guideline_git", poller.Check)
		gitPacks := source.NewFileSource(repo.PackDir(), logger.With("component", "guideline_git"))
		syncGitPacks := func(ctx context.Context, _ *gitsource.SyncResult) {
			entries, err := gitPacks.Load(ctx)
			if err != nil {
				logger.Warn("failed to load guideline repository packs", "error", err)
				return
			}
			importDrafts(ctx, store, entries, logger)
		}
		syncGitPacks(ctx, res)
		go poller.Run(ctx, syncGitPacks)
		fmt.Fprintf(out, "✓ Guideline repository synced (%s@%.8s)\n", gitCfg.Branch, res.ToSHA)
		if dir == "" {
			dir = repo.PackDir()
		}
	}

	if dir != "" {
		packs := &packDirState{}
		checker.Register("guideline_dir", packs.check)
		if err := startPackWatcher(ctx, dir, packs, store, logger); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Watching guideline packs in %s\n", dir)
	}

	mux := http.NewServeMux()
	mountRoutes(mux, &analyzeHandler{engine: eng, sink: sink, logger: logger}, checker, collector, cfg.Telemetry.Metrics.Path)

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddress,
		Handler:      middleware.Chain(mux, logger.With("component", "http")),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "address", cfg.Server.ListenAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	fmt.Fprintf(out, "✓ Listening on %s\n", cfg.Server.ListenAddress)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	select {
	case err := <-errChan:
		return cli.NewCommandError("serve", err)
	case <-ctx.Done():
		fmt.Fprintln(out, "\nShutting down gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// mountRoutes registers the service endpoints. A nil collector leaves the
// metrics endpoint out.
func mountRoutes(mux *http.ServeMux, analyze http.Handler, checker *health.Checker, collector *metrics.Collector, metricsPath string) {
	mux.Handle("POST /campaigns/{id}/analyze", analyze)
	health.Mount(mux, checker, Version, GitCommit, BuildDate)
	if collector != nil {
		if metricsPath == "" {
			metricsPath = config.DefaultMetricsPath
		}
		mux.Handle(metricsPath, collector.Handler())
	}
}

// analyzeHandler serves POST /campaigns/{id}/analyze.
type analyzeHandler struct {
	engine *engine.Engine
	sink   engine.DirSink
	logger *slog.Logger
}

type errorBody struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

func (h *analyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := engine.Request{CampaignID: r.PathValue("id")}
	if v := r.URL.Query().Get("skip_generation"); v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			writeJSONResponse(w, http.StatusBadRequest, errorBody{Error: "skip_generation must be a boolean"})
			return
		}
		req.SkipGeneration = skip
	}

	res, err := h.engine.Analyze(r.Context(), req)
	if err != nil {
		code, body := analyzeErrorResponse(err)
		if code >= http.StatusInternalServerError {
			h.logger.Error("analysis request failed", "campaign_id", req.CampaignID, "error", err)
		}
		writeJSONResponse(w, code, body)
		return
	}

	outputDir := ""
	if h.sink.Dir != "" {
		outputDir = h.sink.RunDir(res)
	}
	writeJSONResponse(w, http.StatusOK, newAnalyzeOutput(res, outputDir))
}

func analyzeErrorResponse(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}
	var stageErr *engine.StageError
	if errors.As(err, &stageErr) {
		body.Stage = stageErr.Stage
	}

	var compileErr *engine.CompileError
	var reconcileErr *engine.ReconcileError
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		return http.StatusNotFound, body
	case errors.As(err, &compileErr), errors.As(err, &reconcileErr):
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, body
	default:
		return http.StatusInternalServerError, body
	}
}

func writeJSONResponse(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// packDirState tracks the last lint of the watched guideline directory.
type packDirState struct {
	files   atomic.Int64
	invalid atomic.Int64
	loadErr atomic.Pointer[string]
}

func (s *packDirState) update(entries []source.Entry, err error) {
	if err != nil {
		msg := err.Error()
		s.loadErr.Store(&msg)
		return
	}
	s.loadErr.Store(nil)
	invalid := 0
	for _, e := range entries {
		if !e.Valid() {
			invalid++
		}
	}
	s.files.Store(int64(len(entries)))
	s.invalid.Store(int64(invalid))
}

// check fails while the directory cannot be read or holds invalid packs.
func (s *packDirState) check(context.Context) error {
	if msg := s.loadErr.Load(); msg != nil {
		return errors.New(*msg)
	}
	if n := s.invalid.Load(); n > 0 {
		return fmt.Errorf("%d of %d guideline pack file(s) are invalid", n, s.files.Load())
	}
	return nil
}

// startPackWatcher lints the directory now and after every change until ctx
// is done. Valid packs are imported into store as drafts.
func startPackWatcher(ctx context.Context, dir string, state *packDirState, store guidelines.Store, logger *slog.Logger) error {
	files := source.NewFileSource(dir, logger.With("component", "guideline_source"))
	reload := func(ctx context.Context) error {
		entries, err := files.Load(ctx)
		state.update(entries, err)
		if err != nil {
			return err
		}
		importDrafts(ctx, store, entries, logger)
		return nil
	}
	if err := reload(ctx); err != nil {
		return fmt.Errorf("failed to load guideline packs: %w", err)
	}

	watcher, err := source.NewWatcher(&source.WatcherConfig{Path: dir}, logger.With("component", "guideline_watcher"))
	if err != nil {
		return err
	}
	go func() {
		if err := watcher.Watch(ctx, reload); err != nil {
			logger.Error("guideline watcher failed", "error", err)
		}
	}()
	return nil
}

// importResult counts what importDrafts did with a batch of pack files.
type importResult struct {
	Created, Updated, Unchanged, Skipped int
}

// importDrafts stores every valid pack file as a draft. New ids are created
// and existing drafts are replaced when their content changed. Published and
// archived packs are never touched; publishing stays an explicit step. Files
// without an id are skipped since every reload would mint a new one.
func importDrafts(ctx context.Context, store guidelines.Store, entries []source.Entry, logger *slog.Logger) importResult {
	var res importResult
	for _, e := range entries {
		if !e.Valid() {
			continue
		}
		if e.Pack.ID == "" {
			res.Skipped++
			logger.Debug("guideline pack file has no id, not imported", "path", e.Path)
			continue
		}
		next := e.Pack.Clone()
		next.Status = ""
		cur, err := store.Get(ctx, next.ID)
		switch {
		case errors.Is(err, guidelines.ErrNotFound):
			if err := store.Create(ctx, next); err != nil {
				res.Skipped++
				logger.Warn("failed to import guideline pack", "path", e.Path, "pack_id", next.ID, "error", err)
				continue
			}
			res.Created++
		case err != nil:
			res.Skipped++
			logger.Warn("failed to look up guideline pack", "path", e.Path, "pack_id", next.ID, "error", err)
		case cur.Status != guideline.StatusDraft:
			res.Skipped++
			logger.Debug("guideline pack is not a draft, file ignored", "path", e.Path, "pack_id", next.ID, "status", cur.Status)
		case samePackContent(cur, next):
			res.Unchanged++
		default:
			if err := store.Update(ctx, next); err != nil {
				res.Skipped++
				logger.Warn("failed to update guideline draft", "path", e.Path, "pack_id", next.ID, "error", err)
				continue
			}
			res.Updated++
		}
	}
	if res.Created+res.Updated > 0 {
		logger.Info("imported guideline drafts", "created", res.Created, "updated", res.Updated, "unchanged", res.Unchanged, "skipped", res.Skipped)
	}
	return res
}

func samePackContent(a, b *guideline.Pack) bool {
	ha, errA := guideline.ContentHash(a)
	hb, errB := guideline.ContentHash(b)
	return errA == nil && errB == nil && ha == hb
}
