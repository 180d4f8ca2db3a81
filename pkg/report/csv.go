package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"ustudiopd/eventlive/pkg/analysis"
)

// LeadsCSVHeader is the header row written by WriteLeadsCSV.
var LeadsCSVHeader = []string{"submission_id", "score", "tier", "next_action", "reasons", "sub_scores"}

// WriteLeadsCSV exports scored leads, one row per submission.
func WriteLeadsCSV(w io.Writer, leads *analysis.LeadSummary, includeHeader bool) error {
	cw := csv.NewWriter(w)
	if includeHeader {
		if err := cw.Write(LeadsCSVHeader); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	if leads != nil {
		for _, l := range leads.Leads {
			subs := make([]string, len(l.SubScores))
			for i, s := range l.SubScores {
				subs[i] = fmt.Sprintf("%s=%g", s.Role, s.Score)
			}
			row := []string{
				l.SubmissionID,
				fmt.Sprintf("%.1f", l.Score),
				string(l.Tier),
				l.NextAction,
				strings.Join(l.Reasons, "; "),
				strings.Join(subs, "; "),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row %s: %w", l.SubmissionID, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
