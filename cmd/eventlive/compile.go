package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ustudiopd/eventlive/pkg/cli"
	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/guideline/compiler"
	"ustudiopd/eventlive/pkg/roles"
)

var compileFlags struct {
	campaign    campaignFlags
	logicalKeys map[string]string
	format      string
}

var compileCmd = &cobra.Command{
	Use:   "compile PACK",
	Short: "Compile a guideline pack against a campaign's form",
	Long: `Resolve every slot, crosstab pair and lead-scoring component of a guideline
pack against the current questions of a campaign's form.

Slots resolve by question id, then logical key, then role. A core slot that
cannot be resolved fails the compile; other unresolved slots are dropped with
a warning.

Examples:
  eventlive compile pack.yaml --data campaign.json
  eventlive compile pack.yaml --campaign camp-1 --logical-key timeline=q-12
  eventlive compile pack.yaml --data campaign.json --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileFlags.campaign.register(compileCmd)
	compileCmd.Flags().StringToStringVar(&compileFlags.logicalKeys, "logical-key", nil, "logical key to question id mapping (key=question)")
	compileCmd.Flags().StringVar(&compileFlags.format, "format", "text", "output format: text, json")
}

// CompileResult is the output of the compile command.
type CompileResult struct {
	File string `json:"file"`
	*compiler.Result
}

// Text implements cli.Texter.
func (r CompileResult) Text() string {
	var b strings.Builder
	if r.Success {
		c := r.Compiled
		lead := "disabled"
		if c.LeadScoring.Enabled {
			lead = fmt.Sprintf("%d component(s)", len(c.LeadScoring.Components))
		}
		fmt.Fprintf(&b, "✓ %s compiled: %d slot(s), %d crosstab(s), lead scoring %s\n",
			r.File, len(c.Slots), len(c.Crosstabs), lead)
		for _, s := range c.Slots {
			fmt.Fprintf(&b, "  %-16s %-16s %-11s %s\n", s.QuestionID, s.Role, s.Importance, s.ResolvedBy)
		}
	} else {
		fmt.Fprintf(&b, "✗ %s failed to compile\n", r.File)
	}
	_ = cli.WriteDiagnostics(&b, r.Errors, r.Warnings)
	return b.String()
}

func runCompile(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(compileFlags.format)
	if err != nil {
		return err
	}
	pack, err := guideline.Load(args[0])
	if err != nil {
		return err
	}
	data, err := compileFlags.campaign.load(commandContext(cmd))
	if err != nil {
		return err
	}

	var opts []compiler.Option
	if len(compileFlags.logicalKeys) > 0 {
		opts = append(opts, compiler.WithLogicalKeys(compileFlags.logicalKeys))
	}
	result := CompileResult{
		File:   args[0],
		Result: compiler.Compile(pack, roles.InferAll(data.Questions), data.FormRevision, opts...),
	}
	if err := formatter.FormatTo(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if !result.Success {
		return cli.Invalid("%s failed to compile with %d error(s)", args[0], len(result.Errors))
	}
	return nil
}
