package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ustudiopd/eventlive/pkg/cli"
	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/guideline/reconciler"
	"ustudiopd/eventlive/pkg/roles"
	"ustudiopd/eventlive/pkg/survey"
)

var reconcileFlags struct {
	campaign campaignFlags
	out      string
	format   string
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile PACK",
	Short: "Remap a guideline pack onto a changed form",
	Long: `Remap a guideline pack authored against an older revision of a form onto
the campaign's current questions.

Slots are matched by question id, then by position, then by role. The pack
can be reconciled when enough slots match with sufficient confidence; the
remapped pack is written with --out.

Examples:
  eventlive reconcile pack.yaml --data campaign.json
  eventlive reconcile pack.yaml --campaign camp-1 --out pack.reconciled.json`,
	Args: cobra.ExactArgs(1),
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileFlags.campaign.register(reconcileCmd)
	reconcileCmd.Flags().StringVarP(&reconcileFlags.out, "out", "o", "", "write the reconciled pack to this file")
	reconcileCmd.Flags().StringVar(&reconcileFlags.format, "format", "text", "output format: text, json")
}

// ReconcileResult is the output of the reconcile command.
type ReconcileResult struct {
	File        string `json:"file"`
	Fingerprint string `json:"fingerprint"`
	*reconciler.Result
}

// Text implements cli.Texter.
func (r ReconcileResult) Text() string {
	var b strings.Builder
	verdict := "✓ can be reconciled"
	if !r.CanReconcile {
		verdict = "✗ cannot be reconciled"
	}
	fmt.Fprintf(&b, "%s %s (confidence %.2f, match ratio %.2f)\n", r.File, verdict, r.Confidence, r.MatchRatio)
	for _, m := range r.Matches {
		fmt.Fprintf(&b, "  %-16s %s -> %s (%s)\n", m.Slot, m.FromQuestionID, m.ToQuestionID, m.Kind)
	}
	_ = cli.WriteDiagnostics(&b, nil, r.Warnings)
	return b.String()
}

func runReconcile(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(reconcileFlags.format)
	if err != nil {
		return err
	}
	pack, err := guideline.Load(args[0])
	if err != nil {
		return err
	}
	data, err := reconcileFlags.campaign.load(commandContext(cmd))
	if err != nil {
		return err
	}

	fingerprint := survey.FingerprintQuestions(data.Questions)
	result := ReconcileResult{
		File:        args[0],
		Fingerprint: fingerprint,
		Result:      reconciler.Reconcile(pack, fingerprint, roles.InferAll(data.Questions)),
	}
	if err := formatter.FormatTo(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if !result.CanReconcile {
		return cli.Invalid("%s cannot be reconciled with the current form", args[0])
	}

	if reconcileFlags.out != "" {
		encoded, err := guideline.Marshal(result.Reconciled)
		if err != nil {
			return fmt.Errorf("failed to encode reconciled pack: %w", err)
		}
		if err := os.WriteFile(reconcileFlags.out, append(encoded, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write reconciled pack: %w", err)
		}
	}
	return nil
}
