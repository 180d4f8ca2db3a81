// Package merge joins an analysis pack with a generated decision pack and
// repairs the decision pack's numeric cross-references against the evidence
// catalog. Repairs overwrite; nothing is rejected wholesale.
package merge

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"ustudiopd/eventlive/pkg/analysis"
	"ustudiopd/eventlive/pkg/decision"
	"ustudiopd/eventlive/pkg/guideline"
)

// Version is the merged report document version.
const Version = "mr-1.0"

// MinCardEvidence is the fewest resolvable references a card may keep.
const MinCardEvidence = 2

// TargetDeviation is the relative difference between an action's target
// count and its evidence value above which the action is flagged.
const TargetDeviation = 0.2

// RepairKind classifies a change made by Merge.
type RepairKind string

const (
	RepairEvidenceReplaced RepairKind = "evidence_replaced"
	RepairEvidencePruned   RepairKind = "evidence_pruned"
	RepairTierRecomputed   RepairKind = "tier_recomputed"
)

// Repair records one overwrite.
type Repair struct {
	Kind    RepairKind `json:"kind"`
	Path    string     `json:"path"`
	Message string     `json:"message"`
	Before  []string   `json:"before,omitempty"`
	After   []string   `json:"after,omitempty"`
}

// Flag records an advisory inconsistency that was left in place.
type Flag struct {
	Path        string  `json:"path"`
	Message     string  `json:"message"`
	TargetCount int     `json:"targetCount"`
	EvidenceID  string  `json:"evidenceId"`
	Evidence    int     `json:"evidenceCount"`
	Deviation   float64 `json:"deviation"`
}

// Report is the analysis pack plus the repaired decision pack.
type Report struct {
	Version  string         `json:"version"`
	Analysis *analysis.Pack `json:"analysis"`
	Decision *decision.Pack `json:"decision"`
	Repairs  []Repair       `json:"repairs"`
	Flags    []Flag         `json:"flags"`
}

// Merge verifies dp against ap's evidence catalog and lead tiers. Neither
// input is modified; the report carries a repaired copy of dp.
func Merge(ap *analysis.Pack, dp *decision.Pack, logger *slog.Logger) *Report {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "merge")

	r := &Report{Version: Version, Analysis: ap, Repairs: []Repair{}, Flags: []Flag{}}
	if dp == nil {
		return r
	}
	out := clone(dp)
	r.Decision = out

	var catalog []analysis.EvidenceItem
	if ap != nil {
		catalog = ap.Evidence
	}
	byID := make(map[string]*analysis.EvidenceItem, len(catalog))
	for i := range catalog {
		byID[catalog[i].ID] = &catalog[i]
	}

	for i := range out.Cards {
		repairCard(r, &out.Cards[i], fmt.Sprintf("cards[%d]", i), byID, catalog)
	}
	for _, h := range decision.Horizons {
		items := *out.ActionBoard.Column(h)
		for i := range items {
			path := fmt.Sprintf("actionBoard.%s[%d]", h, i)
			pruneActionEvidence(r, &items[i], path, byID)
			flagTarget(r, items[i], path, byID, catalog)
		}
	}
	if ap != nil {
		repairTiers(r, ap, out)
	}

	for _, rp := range r.Repairs {
		logger.Warn("decision pack repaired", "kind", rp.Kind, "path", rp.Path, "message", rp.Message)
	}
	for _, f := range r.Flags {
		logger.Warn("action target count disagrees with evidence",
			"path", f.Path, "target", f.TargetCount, "evidence_id", f.EvidenceID, "evidence_count", f.Evidence)
	}
	return r
}

func resolved(ids []string, byID map[string]*analysis.EvidenceItem) []string {
	var out []string
	for _, id := range ids {
		if _, ok := byID[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func repairCard(r *Report, c *decision.Card, path string, byID map[string]*analysis.EvidenceItem, catalog []analysis.EvidenceItem) {
	ok := resolved(c.EvidenceIDs, byID)
	switch {
	case len(ok) < MinCardEvidence:
		var repl []string
		for i := 0; i < len(catalog) && i < MinCardEvidence; i++ {
			repl = append(repl, catalog[i].ID)
		}
		r.Repairs = append(r.Repairs, Repair{
			Kind:    RepairEvidenceReplaced,
			Path:    path + ".evidenceIds",
			Message: fmt.Sprintf("only %d of %d references resolve; replaced with the first catalog entries", len(ok), len(c.EvidenceIDs)),
			Before:  c.EvidenceIDs,
			After:   repl,
		})
		c.EvidenceIDs = repl
	case len(ok) < len(c.EvidenceIDs):
		r.Repairs = append(r.Repairs, Repair{
			Kind:    RepairEvidencePruned,
			Path:    path + ".evidenceIds",
			Message: fmt.Sprintf("dropped %d unresolved reference(s)", len(c.EvidenceIDs)-len(ok)),
			Before:  c.EvidenceIDs,
			After:   ok,
		})
		c.EvidenceIDs = ok
	}
}

func pruneActionEvidence(r *Report, it *decision.ActionItem, path string, byID map[string]*analysis.EvidenceItem) {
	ok := resolved(it.EvidenceIDs, byID)
	if len(ok) == len(it.EvidenceIDs) {
		return
	}
	r.Repairs = append(r.Repairs, Repair{
		Kind:    RepairEvidencePruned,
		Path:    path + ".evidenceIds",
		Message: fmt.Sprintf("dropped %d unresolved reference(s)", len(it.EvidenceIDs)-len(ok)),
		Before:  it.EvidenceIDs,
		After:   ok,
	})
	it.EvidenceIDs = ok
}

// relatedEvidence finds the evidence an action's target count should agree
// with: its first cited item with a count, else the lead tier it names.
func relatedEvidence(it decision.ActionItem, byID map[string]*analysis.EvidenceItem, catalog []analysis.EvidenceItem) *analysis.EvidenceItem {
	for _, id := range it.EvidenceIDs {
		if e := byID[id]; e != nil && e.Count > 0 {
			return e
		}
	}
	for i := range catalog {
		e := &catalog[i]
		if e.Kind != analysis.MetricLeadTier {
			continue
		}
		tier := strings.TrimPrefix(e.Title, "Lead tier ")
		if containsWord(it.Action, tier) {
			return e
		}
	}
	return nil
}

func containsWord(text, word string) bool {
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if f == word {
			return true
		}
	}
	return false
}

func flagTarget(r *Report, it decision.ActionItem, path string, byID map[string]*analysis.EvidenceItem, catalog []analysis.EvidenceItem) {
	if it.TargetCount <= 0 {
		return
	}
	e := relatedEvidence(it, byID, catalog)
	if e == nil || e.Count == 0 {
		return
	}
	dev := math.Abs(float64(it.TargetCount-e.Count)) / float64(e.Count)
	if dev <= TargetDeviation {
		return
	}
	r.Flags = append(r.Flags, Flag{
		Path:        path,
		Message:     fmt.Sprintf("target count %d differs from %s (%d) by %.0f%%", it.TargetCount, e.ID, e.Count, dev*100),
		TargetCount: it.TargetCount,
		EvidenceID:  e.ID,
		Evidence:    e.Count,
		Deviation:   math.Round(dev*1000) / 1000,
	})
}

// repairTiers makes every lead-tier percentage a function of the analysis
// pack's counts. The denominator is always the sum of the tier counts: each
// scored lead lands in exactly one tier, so that sum is the one number the
// percentages can be checked against. A stated Total or a sample count that
// disagrees with it is reported and overwritten, never used to divide. The
// decision pack's restated tiers are overwritten when they disagree.
func repairTiers(r *Report, ap *analysis.Pack, dp *decision.Pack) {
	if ap.LeadTiers == nil {
		return
	}
	auth := ap.LeadTiers.Distribution
	total := 0
	for _, ts := range auth {
		total += ts.Count
	}
	var problems []string
	if total != ap.Campaign.SampleCount {
		problems = append(problems, fmt.Sprintf("the sample has %d submissions", ap.Campaign.SampleCount))
	}
	if total != ap.LeadTiers.Total {
		problems = append(problems, fmt.Sprintf("the stated total is %d", ap.LeadTiers.Total))
	}
	for _, ts := range auth {
		if math.Abs(ts.Pct-percent(ts.Count, total)) > 0.05 {
			problems = append(problems, fmt.Sprintf("tier %s states %.1f%%", ts.Tier, ts.Pct))
			break
		}
	}
	if len(problems) > 0 {
		fixed := *ap.LeadTiers
		fixed.Total = total
		fixed.Distribution = make([]analysis.TierShare, len(auth))
		for i, ts := range auth {
			ts.Pct = percent(ts.Count, total)
			fixed.Distribution[i] = ts
		}
		copied := *ap
		copied.LeadTiers = &fixed
		r.Analysis = &copied
		r.Repairs = append(r.Repairs, Repair{
			Kind:    RepairTierRecomputed,
			Path:    "analysis.leadTiers",
			Message: fmt.Sprintf("tier counts sum to %d but %s; percentages recomputed over %d", total, strings.Join(problems, " and "), total),
		})
	}

	want := make([]decision.TierCount, len(auth))
	for i, ts := range auth {
		want[i] = decision.TierCount{Tier: ts.Tier, Count: ts.Count, Pct: percent(ts.Count, total)}
	}

	if len(dp.LeadTiers) == 0 {
		return
	}
	if tiersEqual(dp.LeadTiers, want) {
		return
	}
	r.Repairs = append(r.Repairs, Repair{
		Kind:    RepairTierRecomputed,
		Path:    "leadTiers",
		Message: "restated lead tiers disagree with the analysis; replaced with authoritative counts",
		Before:  tierStrings(dp.LeadTiers),
		After:   tierStrings(want),
	})
	dp.LeadTiers = want
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}

func tiersEqual(got, want []decision.TierCount) bool {
	byTier := make(map[guideline.Tier]decision.TierCount, len(got))
	for _, tc := range got {
		byTier[tc.Tier] = tc
	}
	for _, w := range want {
		g, ok := byTier[w.Tier]
		if !ok && w.Count == 0 {
			continue
		}
		if !ok || g.Count != w.Count || math.Abs(g.Pct-w.Pct) > 0.05 {
			return false
		}
	}
	return len(byTier) <= len(want)
}

func tierStrings(tcs []decision.TierCount) []string {
	out := make([]string, len(tcs))
	for i, tc := range tcs {
		out[i] = fmt.Sprintf("%s=%d (%.1f%%)", tc.Tier, tc.Count, tc.Pct)
	}
	return out
}

func clone(p *decision.Pack) *decision.Pack {
	out := *p
	out.Cards = make([]decision.Card, len(p.Cards))
	for i, c := range p.Cards {
		c.EvidenceIDs = append([]string(nil), c.EvidenceIDs...)
		out.Cards[i] = c
	}
	for _, h := range decision.Horizons {
		src := *p.ActionBoard.Column(h)
		dst := make([]decision.ActionItem, len(src))
		for i, it := range src {
			it.EvidenceIDs = append([]string(nil), it.EvidenceIDs...)
			dst[i] = it
		}
		*out.ActionBoard.Column(h) = dst
	}
	out.LeadTiers = append([]decision.TierCount(nil), p.LeadTiers...)
	return &out
}
