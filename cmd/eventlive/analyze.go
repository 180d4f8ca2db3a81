package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ustudiopd/eventlive/pkg/analysis"
	"ustudiopd/eventlive/pkg/cli"
	"ustudiopd/eventlive/pkg/decision"
	"ustudiopd/eventlive/pkg/engine"
	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/merge"
	"ustudiopd/eventlive/pkg/report"
)

var analyzeFlags struct {
	campaign       campaignFlags
	guidelineFile  string
	outDir         string
	skipGeneration bool
	format         string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a campaign",
	Long: `Analyze a campaign's survey answers and write the results.

The campaign's published guideline pack is used unless --guideline names a
pack file. Without a pack, default crosstabs and lead weights apply. When the
generator is enabled in the configuration, a decision pack is drafted, checked
and merged with the analysis.

Results are written under --out as <campaign>/<run>/analysis.json,
analysis.md, leads.csv and, when a decision was drafted, decision.json,
report.json and report.md.

Examples:
  # Analyze from the configured data source
  eventlive analyze --campaign camp-1 --config config.yaml

  # Analyze an export with a local pack, no model call
  eventlive analyze --data campaign.json --guideline pack.yaml --skip-generation

  # Print the report as Markdown
  eventlive analyze --campaign camp-1 --format markdown`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeFlags.campaign.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeFlags.guidelineFile, "guideline", "g", "", "guideline pack file (overrides the published pack)")
	analyzeCmd.Flags().StringVarP(&analyzeFlags.outDir, "out", "o", "reports", "output directory (empty disables writing)")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.skipGeneration, "skip-generation", false, "stop after the analysis pack")
	analyzeCmd.Flags().StringVar(&analyzeFlags.format, "format", "text", "output format: text, json, markdown")
}

// AnalyzeOutput is the output of the analyze command.
type AnalyzeOutput struct {
	RunID       string         `json:"runId"`
	CampaignID  string         `json:"campaignId"`
	Fingerprint string         `json:"fingerprint"`
	GuidelineID string         `json:"guidelineId,omitempty"`
	Reconciled  bool           `json:"reconciled"`
	CacheHit    bool           `json:"cacheHit"`
	Fallback    bool           `json:"fallback"`
	RoleTies    []string       `json:"roleTies,omitempty"`
	Duration    string         `json:"duration"`
	OutputDir   string         `json:"outputDir,omitempty"`
	Analysis    *analysis.Pack `json:"analysis"`
	Decision    *decision.Pack `json:"decision,omitempty"`
	Repairs     []merge.Repair `json:"repairs,omitempty"`
	Flags       []merge.Flag   `json:"flags,omitempty"`

	report *merge.Report
}

func newAnalyzeOutput(res *engine.Result, outputDir string) *AnalyzeOutput {
	out := &AnalyzeOutput{
		RunID:       res.RunID,
		CampaignID:  res.CampaignID,
		Fingerprint: res.Fingerprint,
		Reconciled:  res.Reconcile != nil && res.Reconcile.CanReconcile,
		CacheHit:    res.CacheHit,
		Fallback:    res.Fallback,
		RoleTies:    res.RoleTies,
		Duration:    res.Duration.Round(time.Millisecond).String(),
		OutputDir:   outputDir,
		Analysis:    res.Analysis,
		report:      res.Report,
	}
	if res.Guideline != nil {
		out.GuidelineID = res.Guideline.ID
	}
	if res.Report != nil {
		out.Decision = res.Report.Decision
		out.Repairs = res.Report.Repairs
		out.Flags = res.Report.Flags
	}
	return out
}

// Text implements cli.Texter.
func (o *AnalyzeOutput) Text() string {
	var b strings.Builder
	meta := o.Analysis.Campaign
	fmt.Fprintf(&b, "✓ Analyzed %s: %d submission(s), %d question(s)\n", o.CampaignID, meta.SampleCount, meta.QuestionCount)
	fmt.Fprintf(&b, "  Run:         %s (%s)\n", o.RunID, o.Duration)
	fmt.Fprintf(&b, "  Fingerprint: %s\n", o.Fingerprint)

	switch {
	case o.GuidelineID != "":
		detail := ""
		if o.Reconciled {
			detail += ", reconciled"
		}
		if o.CacheHit {
			detail += ", cached"
		}
		fmt.Fprintf(&b, "  Guideline:   %s%s\n", o.GuidelineID, detail)
	case o.Fallback:
		b.WriteString("  Guideline:   defaults (published pack could not be reconciled)\n")
	default:
		b.WriteString("  Guideline:   defaults\n")
	}
	if len(o.RoleTies) > 0 {
		fmt.Fprintf(&b, "  Role ties:   %s\n", strings.Join(o.RoleTies, ", "))
	}
	fmt.Fprintf(&b, "  Crosstabs:   %d, evidence items: %d\n", len(o.Analysis.Crosstabs), len(o.Analysis.Evidence))
	if o.Decision != nil {
		fmt.Fprintf(&b, "  Decision:    %d card(s), %d repair(s), %d flag(s)\n", len(o.Decision.Cards), len(o.Repairs), len(o.Flags))
	}
	if o.OutputDir != "" {
		fmt.Fprintf(&b, "  Output:      %s\n", o.OutputDir)
	}
	return b.String()
}

// Markdown implements cli.Markdowner.
func (o *AnalyzeOutput) Markdown() string {
	if o.report != nil {
		return report.RenderMerged(o.report)
	}
	return report.RenderAnalysis(o.Analysis)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(analyzeFlags.format)
	if err != nil {
		return err
	}
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(commandContext(cmd))
	defer stop()

	var pack *guideline.Pack
	if analyzeFlags.guidelineFile != "" {
		if pack, err = guideline.Load(analyzeFlags.guidelineFile); err != nil {
			return err
		}
	}

	source, campaignID, err := analyzeFlags.campaign.source(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer source.Close()

	collector, tracer, err := newTelemetry(&cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer tracer.Shutdown(ctx)

	opts := []engine.Option{
		engine.WithLogger(logger.With("component", "engine")),
		engine.WithMetrics(collector),
		engine.WithTracer(tracer),
	}

	if pack == nil {
		store, err := openGuidelineStore(cfg.Storage.Guidelines)
		if err != nil {
			return fmt.Errorf("failed to open guideline store: %w", err)
		}
		defer store.Close()
		opts = append(opts, engine.WithGuidelineStore(store))
	}

	compiledCache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if compiledCache != nil {
		defer compiledCache.Close()
		opts = append(opts, engine.WithCache(compiledCache))
	}

	if !analyzeFlags.skipGeneration {
		gen, err := newGenerator(cfg.Generator, logger)
		if err != nil {
			return fmt.Errorf("failed to create generator: %w", err)
		}
		if gen != nil {
			defer gen.Close()
			opts = append(opts, engine.WithGenerator(gen, gen.Name()))
		}
	}

	var sink engine.DirSink
	if analyzeFlags.outDir != "" {
		sink = engine.DirSink{Dir: analyzeFlags.outDir}
		opts = append(opts, engine.WithSink(sink))
	}

	eng, err := engine.New(source, cfg.Engine, opts...)
	if err != nil {
		return err
	}
	res, err := eng.Analyze(ctx, engine.Request{
		CampaignID:     campaignID,
		Pack:           pack,
		SkipGeneration: analyzeFlags.skipGeneration,
	})
	if err != nil {
		return cli.NewCommandError("analyze", err)
	}

	outputDir := ""
	if sink.Dir != "" {
		outputDir = sink.RunDir(res)
	}
	return formatter.FormatTo(cmd.OutOrStdout(), newAnalyzeOutput(res, outputDir))
}
