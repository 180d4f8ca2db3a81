package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MaxHighlights bounds the highlight list.
const MaxHighlights = 5

// HighlightMinCount is the smallest cell count a highlight may rest on.
const HighlightMinCount = 5

type candidate struct {
	table *CrosstabTable
	cell  Cell
}

// highlightCandidates picks the top cells across all tables: count at least
// HighlightMinCount, lift above 1 first, then by descending lift.
func highlightCandidates(tables []CrosstabTable) []candidate {
	var out []candidate
	for i := range tables {
		for _, c := range tables[i].Cells {
			if c.Count >= HighlightMinCount {
				out = append(out, candidate{table: &tables[i], cell: c})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := out[i].cell.Lift, out[j].cell.Lift
		if (li > 1) != (lj > 1) {
			return li > 1
		}
		if li != lj {
			return li > lj
		}
		return out[i].cell.Count > out[j].cell.Count
	})
	if len(out) > MaxHighlights {
		out = out[:MaxHighlights]
	}
	return out
}

// catalog assigns sequential evidence ids.
type catalog struct {
	items []EvidenceItem
}

func (c *catalog) add(item EvidenceItem) string {
	item.ID = fmt.Sprintf("E%d", len(c.items)+1)
	c.items = append(c.items, item)
	return item.ID
}

func shareText(label string, count, total int) string {
	return fmt.Sprintf("%s: %d of %d (%s)", label, count, total, formatPct(pct(count, total)))
}

func liftText(lift float64) string {
	return fmt.Sprintf("lift %.2f", lift)
}

func crosstabTitle(t *CrosstabTable, c Cell) string {
	return fmt.Sprintf("%q × %q: %s → %s", t.RowTitle, t.ColTitle, c.RowLabel, c.ColLabel)
}

// buildCatalog emits evidence in a fixed order: question top choices,
// crosstab highlights, lead tiers, channel preference, data-quality warnings.
func buildCatalog(stats []QuestionStat, cands []candidate, leads *LeadSummary, channels *ChannelSummary, quality []QualityMessage, sampleCount int) []EvidenceItem {
	var c catalog

	for _, s := range stats {
		top, ok := s.TopChoice()
		if !ok {
			continue
		}
		c.add(EvidenceItem{
			Title:      fmt.Sprintf("Top choice for %q", s.Body),
			Kind:       MetricDistribution,
			ValueText:  shareText(top.Label, top.Count, s.Responses),
			Count:      top.Count,
			Value:      top.Pct,
			SampleSize: s.Responses,
			Source:     "question:" + s.QuestionID,
		})
	}

	for _, cd := range cands {
		row := rowTotal(cd.table, cd.cell.RowKey)
		item := EvidenceItem{
			Title:      crosstabTitle(cd.table, cd.cell),
			Kind:       MetricCrosstab,
			ValueText:  fmt.Sprintf("%d of %d (%s), %s", cd.cell.Count, row, formatPct(cd.cell.RowPct), liftText(cd.cell.Lift)),
			Count:      cd.cell.Count,
			Value:      cd.cell.Lift,
			SampleSize: row,
			Source:     fmt.Sprintf("crosstab:%s:%s", cd.table.RowQuestionID, cd.table.ColQuestionID),
		}
		if cd.cell.LowSample {
			item.Notes = fmt.Sprintf("Below the minimum cell count of %d", cd.table.MinCellCount)
		}
		c.add(item)
	}

	if leads != nil {
		for _, ts := range leads.Distribution {
			if ts.Count == 0 {
				continue
			}
			c.add(EvidenceItem{
				Title:      "Lead tier " + string(ts.Tier),
				Kind:       MetricLeadTier,
				ValueText:  shareText(string(ts.Tier), ts.Count, leads.Total),
				Count:      ts.Count,
				Value:      ts.Pct,
				SampleSize: leads.Total,
				Source:     "lead_scoring",
				Notes:      ts.Action,
			})
		}
	}

	if channels != nil {
		for _, sh := range channels.Distribution {
			if sh.Count == 0 {
				continue
			}
			c.add(EvidenceItem{
				Title:      "Preferred channel: " + sh.Label,
				Kind:       MetricChannel,
				ValueText:  shareText(sh.Label, sh.Count, channels.Responses),
				Count:      sh.Count,
				Value:      sh.Pct,
				SampleSize: channels.Responses,
				Source:     "question:" + channels.QuestionID,
			})
		}
	}

	for _, q := range quality {
		if q.Level != QualityWarning {
			continue
		}
		c.add(EvidenceItem{
			Title:      "Data quality: " + q.Code,
			Kind:       MetricDataQuality,
			ValueText:  q.Message,
			SampleSize: sampleCount,
			Source:     "data_quality",
		})
	}

	return c.items
}

func rowTotal(t *CrosstabTable, key string) int {
	for _, r := range t.Rows {
		if r.Key == key {
			return r.Total
		}
	}
	return 0
}

var sampleInStatement = regexp.MustCompile(`n=(\d+)`)

// buildHighlights states each candidate and cites the evidence it rests on.
func buildHighlights(cands []candidate, evidence []EvidenceItem) []Highlight {
	out := make([]Highlight, 0, len(cands))
	for _, cd := range cands {
		h := Highlight{
			Statement: fmt.Sprintf("Respondents who answered %q to %q chose %q for %q %s of the time (%s, n=%d)",
				cd.cell.RowLabel, cd.table.RowTitle, cd.cell.ColLabel, cd.table.ColTitle,
				formatPct(cd.cell.RowPct), liftText(cd.cell.Lift), cd.cell.Count),
			RowQuestionID: cd.table.RowQuestionID,
			ColQuestionID: cd.table.ColQuestionID,
			RowLabel:      cd.cell.RowLabel,
			ColLabel:      cd.cell.ColLabel,
			Count:         cd.cell.Count,
			Lift:          cd.cell.Lift,
		}

		h.Confidence = Directional
		if cd.cell.Count >= HighlightMinCount {
			h.Confidence = Confirmed
		}
		if m := sampleInStatement.FindStringSubmatch(h.Statement); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n < HighlightMinCount {
				h.Confidence = Hypothesis
			}
		}

		h.EvidenceIDs = cite(cd, evidence)
		out = append(out, h)
	}
	return out
}

// cite prefers the crosstab evidence naming both axes with the same lift,
// paired with the row question's distribution. Without a confident match it
// falls back to the first two catalog entries.
func cite(cd candidate, evidence []EvidenceItem) []string {
	var primary, secondary string
	title := crosstabTitle(cd.table, cd.cell)
	lift := liftText(cd.cell.Lift)
	for _, e := range evidence {
		if e.Kind == MetricCrosstab && primary == "" &&
			strings.Contains(e.Title, cd.table.RowTitle) && strings.Contains(e.Title, cd.table.ColTitle) &&
			e.Title == title && strings.Contains(e.ValueText, lift) {
			primary = e.ID
		}
		if e.Kind == MetricDistribution && secondary == "" && e.Source == "question:"+cd.table.RowQuestionID {
			secondary = e.ID
		}
	}

	if primary != "" {
		if secondary != "" {
			return []string{primary, secondary}
		}
		return []string{primary}
	}

	var ids []string
	for i := 0; i < len(evidence) && i < 2; i++ {
		ids = append(ids, evidence[i].ID)
	}
	return ids
}
