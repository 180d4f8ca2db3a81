package report

import (
	"fmt"
	"strings"
	"time"

	"ustudiopd/eventlive/pkg/analysis"
	"ustudiopd/eventlive/pkg/decision"
	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/merge"
)

// escape keeps cell text from breaking a markdown table.
func escape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func table(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(header)) + "\n")
	for _, r := range rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = escape(c)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\n")
}

// RenderAnalysis renders an analysis pack as markdown.
func RenderAnalysis(p *analysis.Pack) string {
	var b strings.Builder
	writeAnalysis(&b, p, "#")
	return b.String()
}

func writeAnalysis(b *strings.Builder, p *analysis.Pack, h string) {
	title := p.Campaign.Title
	if title == "" {
		title = p.Campaign.CampaignID
	}
	fmt.Fprintf(b, "%s Survey analysis: %s\n\n", h, title)
	fmt.Fprintf(b, "- Responses: %d\n", p.Campaign.SampleCount)
	fmt.Fprintf(b, "- Questions: %d\n", p.Campaign.QuestionCount)
	fmt.Fprintf(b, "- Form: %s", p.Campaign.FormID)
	if p.Campaign.FormRevision != "" {
		fmt.Fprintf(b, " (revision %s)", p.Campaign.FormRevision)
	}
	b.WriteString("\n")
	if p.Campaign.GuidelineID != "" {
		fmt.Fprintf(b, "- Guideline: %s\n", p.Campaign.GuidelineID)
	}
	if !p.Campaign.AnalyzedAt.IsZero() {
		fmt.Fprintf(b, "- Analyzed: %s\n", p.Campaign.AnalyzedAt.UTC().Format(time.RFC3339))
	}
	b.WriteString("\n")

	if len(p.Highlights) > 0 {
		fmt.Fprintf(b, "%s# Highlights\n\n", h)
		for _, hl := range p.Highlights {
			fmt.Fprintf(b, "- **%s** %s [%s]\n", hl.Confidence, hl.Statement, strings.Join(hl.EvidenceIDs, ", "))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(b, "%s# Questions\n\n", h)
	for _, q := range p.Questions {
		fmt.Fprintf(b, "%s## Q%d. %s\n\n", h, q.OrderNo, q.Body)
		if q.Role != "" {
			fmt.Fprintf(b, "Role: `%s`. ", q.Role)
		}
		fmt.Fprintf(b, "%d responses (%s).\n\n", q.Responses, pct(q.ResponseRate))
		if len(q.Distribution) == 0 {
			continue
		}
		rows := make([][]string, 0, len(q.Distribution))
		for _, s := range q.Distribution {
			rows = append(rows, []string{s.Label, fmt.Sprint(s.Count), pct(s.Pct)})
		}
		table(b, []string{"Option", "Count", "Share"}, rows)
	}

	for i := range p.Crosstabs {
		t := p.Crosstabs[i].Display()
		fmt.Fprintf(b, "%s# Crosstab: %s × %s\n\n", h, t.RowTitle, t.ColTitle)
		header := []string{""}
		for _, c := range t.Cols {
			header = append(header, c.Label)
		}
		var rows [][]string
		for _, r := range t.Rows {
			row := []string{r.Label}
			for _, c := range t.Cols {
				cell, ok := t.Cell(r.Key, c.Key)
				if !ok {
					row = append(row, "0")
					continue
				}
				v := fmt.Sprintf("%d (%s, lift %.2f)", cell.Count, pct(cell.RowPct), cell.Lift)
				if cell.LowSample {
					v += " *"
				}
				row = append(row, v)
			}
			rows = append(rows, row)
		}
		table(b, header, rows)
		fmt.Fprintf(b, "_* fewer than %d responses in the cell._\n\n", t.MinCellCount)
	}

	if p.LeadTiers != nil {
		fmt.Fprintf(b, "%s# Lead tiers\n\n", h)
		rows := make([][]string, 0, len(p.LeadTiers.Distribution))
		for _, ts := range p.LeadTiers.Distribution {
			rows = append(rows, []string{string(ts.Tier), fmt.Sprint(ts.Count), pct(ts.Pct), ts.Action})
		}
		table(b, []string{"Tier", "Leads", "Share", "Next step"}, rows)
	}

	if p.Channels != nil {
		fmt.Fprintf(b, "%s# Preferred channels\n\n", h)
		rows := make([][]string, 0, len(p.Channels.Distribution))
		for _, s := range p.Channels.Distribution {
			rows = append(rows, []string{s.Label, fmt.Sprint(s.Count), pct(s.Pct)})
		}
		table(b, []string{"Channel", "Count", "Share"}, rows)
	}

	fmt.Fprintf(b, "%s# Data quality\n\n", h)
	for _, m := range p.DataQuality {
		marker := "ℹ"
		if m.Level == analysis.QualityWarning {
			marker = "⚠"
		}
		fmt.Fprintf(b, "- %s %s\n", marker, m.Message)
	}
	b.WriteString("\n")

	if len(p.Evidence) > 0 {
		fmt.Fprintf(b, "%s# Evidence\n\n", h)
		rows := make([][]string, 0, len(p.Evidence))
		for _, e := range p.Evidence {
			rows = append(rows, []string{e.ID, e.Title, e.ValueText, fmt.Sprint(e.SampleSize)})
		}
		table(b, []string{"ID", "Metric", "Value", "n"}, rows)
	}
}

// RenderMerged renders a merged report: recommendations first, then the
// analysis they rest on, then any repairs the merge made.
func RenderMerged(r *merge.Report) string {
	var b strings.Builder
	dp := r.Decision

	b.WriteString("# Campaign decision report\n\n")
	if dp != nil {
		if dp.Summary != "" {
			b.WriteString(dp.Summary + "\n\n")
		}
		if len(dp.Cards) > 0 {
			b.WriteString("## Recommendations\n\n")
			for _, c := range dp.Cards {
				fmt.Fprintf(&b, "### %s `%s`\n\n", c.Title, c.Priority)
				b.WriteString(c.Recommendation + "\n\n")
				if c.Rationale != "" {
					b.WriteString("_" + c.Rationale + "_\n\n")
				}
				if len(c.EvidenceIDs) > 0 {
					fmt.Fprintf(&b, "Evidence: %s\n\n", evidenceRefs(r.Analysis, c.EvidenceIDs))
				}
			}
		}
		writeBoard(&b, dp.ActionBoard)
	}

	if r.Analysis != nil {
		writeAnalysis(&b, r.Analysis, "##")
	}

	if len(r.Repairs) > 0 || len(r.Flags) > 0 {
		b.WriteString("## Consistency checks\n\n")
		for _, rp := range r.Repairs {
			fmt.Fprintf(&b, "- Repaired `%s`: %s\n", rp.Path, rp.Message)
		}
		for _, f := range r.Flags {
			fmt.Fprintf(&b, "- Check `%s`: %s\n", f.Path, f.Message)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func evidenceRefs(ap *analysis.Pack, ids []string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id
		if ap == nil {
			continue
		}
		if e, ok := ap.EvidenceByID(id); ok {
			parts[i] = fmt.Sprintf("%s (%s)", id, e.ValueText)
		}
	}
	return strings.Join(parts, "; ")
}

var horizonTitles = map[decision.Horizon]string{
	decision.HorizonToday:     "Today",
	decision.HorizonThisWeek:  "This week",
	decision.HorizonThisMonth: "This month",
}

func writeBoard(b *strings.Builder, board decision.ActionBoard) {
	b.WriteString("## Action board\n\n")
	for _, h := range decision.Horizons {
		items := *board.Column(h)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(b, "### %s\n\n", horizonTitles[h])
		for _, it := range items {
			b.WriteString("- [ ] " + it.Action)
			var meta []string
			if it.Owner != "" {
				meta = append(meta, "owner: "+it.Owner)
			}
			if it.TargetCount > 0 {
				meta = append(meta, fmt.Sprintf("target: %d", it.TargetCount))
			}
			if len(it.EvidenceIDs) > 0 {
				meta = append(meta, strings.Join(it.EvidenceIDs, ", "))
			}
			if len(meta) > 0 {
				b.WriteString(" (" + strings.Join(meta, "; ") + ")")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
}

// RenderGuideline renders a guideline pack for review before publishing.
func RenderGuideline(p *guideline.Pack) string {
	var b strings.Builder

	title := p.Title
	if title == "" {
		title = p.ID
	}
	fmt.Fprintf(&b, "# Guideline: %s\n\n", title)
	fmt.Fprintf(&b, "- Status: %s\n", p.Status)
	fmt.Fprintf(&b, "- Campaign: %s\n", p.CampaignID)
	fmt.Fprintf(&b, "- Form: %s\n", p.FormID)
	if p.FormFingerprint != "" {
		fp := p.FormFingerprint
		if len(fp) > 12 {
			fp = fp[:12]
		}
		fmt.Fprintf(&b, "- Fingerprint: `%s`\n", fp)
	}
	b.WriteString("\n")

	if len(p.Objectives.DecisionQuestions) > 0 {
		b.WriteString("## Objectives\n\n")
		for _, dq := range p.Objectives.DecisionQuestions {
			fmt.Fprintf(&b, "- %s", dq.Question)
			if len(dq.Roles) > 0 {
				rs := make([]string, len(dq.Roles))
				for i, r := range dq.Roles {
					rs[i] = string(r)
				}
				fmt.Fprintf(&b, " (%s)", strings.Join(rs, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Question map\n\n")
	rows := make([][]string, 0, len(p.QuestionMap))
	for _, m := range p.QuestionMap {
		scores := make([]string, 0, len(m.OptionScores))
		for _, s := range m.OptionScores {
			ref := s.OptionID
			if s.OptionText != "" {
				ref = s.OptionText
			}
			scores = append(scores, fmt.Sprintf("%s=%g", ref, s.Score))
		}
		rows = append(rows, []string{
			m.SlotName(), m.QuestionID, string(m.Role), string(m.Importance.Effective()), strings.Join(scores, ", "),
		})
	}
	table(&b, []string{"Slot", "Question", "Role", "Importance", "Option scores"}, rows)

	pairs := p.CrosstabPlan.Pinned
	if len(pairs) == 0 {
		pairs = p.CrosstabPlan.Pairs
	}
	if len(pairs) > 0 {
		b.WriteString("## Crosstabs\n\n")
		for _, pr := range pairs {
			fmt.Fprintf(&b, "- %s × %s\n", pairSide(pr.RowQuestionID, pr.RowKey, string(pr.RowRole)), pairSide(pr.ColQuestionID, pr.ColKey, string(pr.ColRole)))
		}
		b.WriteString("\n")
	}

	ls := p.LeadScoring
	b.WriteString("## Lead scoring\n\n")
	if !ls.Enabled {
		b.WriteString("Disabled.\n")
		return b.String()
	}
	for _, c := range ls.Components {
		fmt.Fprintf(&b, "- %s × %g\n", c.Role, c.Weight)
	}
	th := ls.TierThresholds
	if th.IsZero() {
		th = guideline.DefaultThresholds
	}
	fmt.Fprintf(&b, "\nThresholds: P0 ≥ %g, P1 ≥ %g, P2 ≥ %g, P3 ≥ %g\n\n", th.P0, th.P1, th.P2, th.P3)
	for _, t := range guideline.Tiers {
		fmt.Fprintf(&b, "- %s: %s\n", t, ls.ActionFor(t))
	}
	return b.String()
}

func pairSide(id, key, role string) string {
	switch {
	case id != "":
		return id
	case key != "":
		return key
	default:
		return role
	}
}
