package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ustudiopd/eventlive/pkg/cli"
	"ustudiopd/eventlive/pkg/roles"
)

var rolesFlags struct {
	campaign campaignFlags
	format   string
}

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Show the inferred role of every question",
	Long: `Show the role inferred for each question of a campaign's form.

Roles come from the question's role override when it is valid, otherwise from
keywords in the question body and options. Questions where two roles scored
the same are reported as ties and fall back to "other".

Examples:
  eventlive roles --data campaign.json
  eventlive roles --campaign camp-1 --format json`,
	RunE: runRoles,
}

func init() {
	rootCmd.AddCommand(rolesCmd)

	rolesFlags.campaign.register(rolesCmd)
	rolesCmd.Flags().StringVar(&rolesFlags.format, "format", "text", "output format: text, json")
}

// RolesResult is the output of the roles command.
type RolesResult struct {
	CampaignID string                   `json:"campaignId"`
	Questions  []roles.QuestionWithRole `json:"questions"`
	Ties       []string                 `json:"ties,omitempty"`
}

// Text implements cli.Texter.
func (r RolesResult) Text() string {
	var b strings.Builder
	for _, q := range r.Questions {
		line := fmt.Sprintf("%-16s %-16s %-9s %s", q.ID, q.Role, q.RoleSource, q.Body)
		if q.Tie {
			line += "  [tie]"
		}
		b.WriteString(strings.TrimRight(line, " ") + "\n")
	}
	if len(r.Ties) > 0 {
		fmt.Fprintf(&b, "\n%d question(s) tied between roles; set a role override to pin them\n", len(r.Ties))
	}
	return b.String()
}

func runRoles(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(rolesFlags.format)
	if err != nil {
		return err
	}
	data, err := rolesFlags.campaign.load(commandContext(cmd))
	if err != nil {
		return err
	}

	questions := roles.InferAll(data.Questions)
	result := RolesResult{CampaignID: data.CampaignID, Questions: questions}
	for _, q := range roles.Ties(questions) {
		result.Ties = append(result.Ties, q.ID)
	}
	return formatter.FormatTo(cmd.OutOrStdout(), result)
}
