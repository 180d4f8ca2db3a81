package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ustudiopd/eventlive/pkg/cli"
	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/survey"
)

var validateFlags struct {
	campaign campaignFlags
	format   string
}

var validateCmd = &cobra.Command{
	Use:   "validate PACK",
	Short: "Validate a guideline pack against a campaign's form",
	Long: `Validate a guideline pack's structure and, when a campaign is given, compare
the pack's form fingerprint with the live form.

A fingerprint mismatch is a warning: the pack is reconciled before use.

Examples:
  eventlive validate pack.yaml
  eventlive validate pack.yaml --data campaign.json
  eventlive validate pack.yaml --campaign camp-1 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateFlags.campaign.register(validateCmd)
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

// ValidateResult is the output of the validate command.
type ValidateResult struct {
	File        string `json:"file"`
	Fingerprint string `json:"fingerprint,omitempty"`
	*guideline.ValidationResult
}

// Text implements cli.Texter.
func (r ValidateResult) Text() string {
	var b strings.Builder
	if r.IsValid {
		fmt.Fprintf(&b, "✓ %s is valid\n", r.File)
	} else {
		fmt.Fprintf(&b, "✗ %s is invalid\n", r.File)
	}
	_ = cli.WriteDiagnostics(&b, r.Errors, r.Warnings)
	return b.String()
}

func runValidate(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(validateFlags.format)
	if err != nil {
		return err
	}
	pack, err := guideline.Load(args[0])
	if err != nil {
		return err
	}

	fingerprint := ""
	if validateFlags.campaign.campaignID != "" || validateFlags.campaign.dataFile != "" {
		data, err := validateFlags.campaign.load(commandContext(cmd))
		if err != nil {
			return err
		}
		fingerprint = survey.FingerprintQuestions(data.Questions)
	}

	result := ValidateResult{
		File:             args[0],
		Fingerprint:      fingerprint,
		ValidationResult: guideline.Validate(pack, fingerprint),
	}
	if err := formatter.FormatTo(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if !result.IsValid {
		return cli.Invalid("%s has %d error(s)", args[0], len(result.Errors))
	}
	return nil
}
