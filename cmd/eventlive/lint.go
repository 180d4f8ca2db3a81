package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ustudiopd/eventlive/pkg/cli"
	"ustudiopd/eventlive/pkg/guideline"
	gpErrors "ustudiopd/eventlive/pkg/guideline/errors"
	"ustudiopd/eventlive/pkg/guideline/source"
)

var lintFlags struct {
	strict bool
	watch  bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint PATH...",
	Short: "Validate guideline pack files",
	Long: `Validate guideline pack files for syntax, structure and authoring problems.

Each PATH is a pack file or a directory searched recursively for .json, .yaml
and .yml files. The lint command reports:
  - Syntax and version errors
  - Structural errors (missing slots, invalid roles, bad thresholds)
  - Authoring advice (role-only slots, no core slot, small cell counts)

Examples:
  # Lint a directory
  eventlive lint guidelines/

  # Strict mode (warnings as errors)
  eventlive lint pack.yaml --strict

  # Re-lint whenever a pack changes
  eventlive lint guidelines/ --watch

  # JSON output for CI/CD
  eventlive lint guidelines/ --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat warnings as errors")
	lintCmd.Flags().BoolVarP(&lintFlags.watch, "watch", "w", false, "re-lint when pack files change")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// LintFileResult is the lint outcome of one pack file.
type LintFileResult struct {
	File     string            `json:"file"`
	Valid    bool              `json:"valid"`
	PackID   string            `json:"packId,omitempty"`
	Error    string            `json:"error,omitempty"`
	Errors   []*gpErrors.Error `json:"errors,omitempty"`
	Warnings []*gpErrors.Error `json:"warnings,omitempty"`
}

// LintReport is the output of the lint command.
type LintReport struct {
	Files    []LintFileResult `json:"files"`
	Invalid  int              `json:"invalid"`
	Warnings int              `json:"warnings"`
	strict   bool
}

// Failed reports whether any file failed, counting warnings in strict mode.
func (r *LintReport) Failed() bool {
	return r.Invalid > 0 || (r.strict && r.Warnings > 0)
}

// Text implements cli.Texter.
func (r *LintReport) Text() string {
	var b strings.Builder
	for _, f := range r.Files {
		mark := "✓"
		if !f.Valid {
			mark = "✗"
		}
		fmt.Fprintf(&b, "%s %s\n", mark, f.File)
		if f.Error != "" {
			fmt.Fprintf(&b, "error   %s\n", f.Error)
		}
		_ = cli.WriteDiagnostics(&b, f.Errors, f.Warnings)
	}
	fmt.Fprintf(&b, "\n%d file(s), %d invalid, %d warning(s)\n", len(r.Files), r.Invalid, r.Warnings)
	return b.String()
}

func runLint(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(lintFlags.format)
	if err != nil {
		return err
	}
	if lintFlags.watch && len(args) != 1 {
		return fmt.Errorf("--watch takes exactly one path")
	}
	logger := commandLogger()
	out := cmd.OutOrStdout()

	lintOnce := func(ctx context.Context) (*LintReport, error) {
		report, err := lintPaths(ctx, args, logger)
		if err != nil {
			return nil, err
		}
		report.strict = lintFlags.strict
		return report, formatter.FormatTo(out, report)
	}

	ctx := commandContext(cmd)
	if lintFlags.watch {
		return watchLint(ctx, args[0], out, logger, func(ctx context.Context) error {
			_, err := lintOnce(ctx)
			return err
		})
	}

	report, err := lintOnce(ctx)
	if err != nil {
		return err
	}
	if report.Failed() {
		return cli.Invalid("%d of %d guideline file(s) failed lint", report.Invalid, len(report.Files))
	}
	return nil
}

func lintPaths(ctx context.Context, paths []string, logger *slog.Logger) (*LintReport, error) {
	report := &LintReport{}
	for _, p := range paths {
		entries, err := source.NewFileSource(p, logger).Load(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			res := LintFileResult{File: e.Path, Valid: e.Valid()}
			switch {
			case e.Err != nil:
				res.Error = e.Err.Error()
			default:
				res.PackID = e.Pack.ID
				res.Errors = guideline.Validate(e.Pack, "").Errors
				res.Warnings = e.Lint.Warnings
			}
			if !res.Valid {
				report.Invalid++
			}
			report.Warnings += len(res.Warnings)
			report.Files = append(report.Files, res)
		}
	}
	return report, nil
}

// watchLint lints once, then again after every change until interrupted.
func watchLint(ctx context.Context, path string, out io.Writer, logger *slog.Logger, relint func(context.Context) error) error {
	ctx, stop := cli.SignalContext(ctx)
	defer stop()

	watcher, err := source.NewWatcher(&source.WatcherConfig{Path: path}, logger)
	if err != nil {
		return err
	}
	if err := relint(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n", path)
	return watcher.Watch(ctx, relint)
}

// commandLogger is the logger of commands that do not load configuration.
// It stays silent unless --verbose is set.
func commandLogger() *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
