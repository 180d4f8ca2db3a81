package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ustudiopd/eventlive/pkg/analysis"
	"ustudiopd/eventlive/pkg/cli"
	"ustudiopd/eventlive/pkg/decision"
	"ustudiopd/eventlive/pkg/merge"
	"ustudiopd/eventlive/pkg/report"
)

var mergeFlags struct {
	analysisFile string
	decisionFile string
	out          string
	format       string
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge a decision pack with its analysis pack",
	Long: `Check a decision pack against the evidence of an analysis pack and write the
merged report.

Evidence references that do not exist are dropped or replaced, lead tier
counts are overwritten with the analyzed counts, and action target counts
that disagree with their evidence are flagged.

Examples:
  eventlive merge --analysis analysis.json --decision decision.json
  eventlive merge --analysis analysis.json --decision model-output.txt --out report.json
  eventlive merge --analysis analysis.json --decision decision.json --format markdown`,
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVarP(&mergeFlags.analysisFile, "analysis", "a", "", "analysis pack file")
	mergeCmd.Flags().StringVarP(&mergeFlags.decisionFile, "decision", "d", "", "decision pack file or raw model output")
	mergeCmd.Flags().StringVarP(&mergeFlags.out, "out", "o", "", "write the merged report JSON to this file")
	mergeCmd.Flags().StringVar(&mergeFlags.format, "format", "text", "output format: text, json, markdown")
	_ = mergeCmd.MarkFlagRequired("analysis")
	_ = mergeCmd.MarkFlagRequired("decision")
}

// MergeOutput is the output of the merge command.
type MergeOutput struct {
	*merge.Report
}

// Text implements cli.Texter.
func (o MergeOutput) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Merged %d card(s) against %d evidence item(s)\n", len(o.Decision.Cards), len(o.Analysis.Evidence))
	for _, r := range o.Repairs {
		fmt.Fprintf(&b, "repair  %s %s: %s\n", r.Kind, r.Path, r.Message)
	}
	for _, f := range o.Flags {
		fmt.Fprintf(&b, "flag    %s: %s\n", f.Path, f.Message)
	}
	return b.String()
}

// Markdown implements cli.Markdowner.
func (o MergeOutput) Markdown() string {
	return report.RenderMerged(o.Report)
}

func runMerge(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(mergeFlags.format)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(mergeFlags.analysisFile)
	if err != nil {
		return fmt.Errorf("failed to read analysis pack: %w", err)
	}
	ap, err := analysis.LoadAnalysisPack(raw)
	if err != nil {
		return err
	}

	raw, err = os.ReadFile(mergeFlags.decisionFile)
	if err != nil {
		return fmt.Errorf("failed to read decision pack: %w", err)
	}
	dp, err := decision.Parse(string(raw))
	if err != nil {
		return err
	}
	if violations := decision.Validate(dp); len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintf(cmd.ErrOrStderr(), "error   %s\n", v)
		}
		return cli.Invalid("decision pack has %d schema violation(s)", len(violations))
	}

	merged := merge.Merge(ap, dp, commandLogger())
	if mergeFlags.out != "" {
		encoded, err := json.MarshalIndent(merged, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		if err := os.WriteFile(mergeFlags.out, append(encoded, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return formatter.FormatTo(cmd.OutOrStdout(), MergeOutput{Report: merged})
}
