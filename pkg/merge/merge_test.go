package merge

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ustudiopd/eventlive/internal/testfixtures"
	"ustudiopd/eventlive/pkg/analysis"
	"ustudiopd/eventlive/pkg/decision"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func analysisFixture() *analysis.Pack {
	return &analysis.Pack{
		Version:  analysis.Version,
		Campaign: analysis.CampaignMeta{CampaignID: "camp-1", SampleCount: 20},
		Evidence: []analysis.EvidenceItem{
			{ID: "E1", Title: `Top choice for "When?"`, Kind: analysis.MetricDistribution, Count: 12, SampleSize: 20},
			{ID: "E2", Title: `Top choice for "Next step?"`, Kind: analysis.MetricDistribution, Count: 9, SampleSize: 20},
			{ID: "E3", Title: "Lead tier P0", Kind: analysis.MetricLeadTier, Count: 4, SampleSize: 20},
			{ID: "E4", Title: "Lead tier P1", Kind: analysis.MetricLeadTier, Count: 6, SampleSize: 20},
			{ID: "E5", Title: "Lead tier P4", Kind: analysis.MetricLeadTier, Count: 10, SampleSize: 20},
		},
		LeadTiers: &analysis.LeadSummary{
			Total: 20,
			Distribution: []analysis.TierShare{
				{Tier: "P0", Count: 4, Pct: 20},
				{Tier: "P1", Count: 6, Pct: 30},
				{Tier: "P2", Count: 0, Pct: 0},
				{Tier: "P3", Count: 0, Pct: 0},
				{Tier: "P4", Count: 10, Pct: 50},
			},
		},
	}
}

func decisionFixture() *decision.Pack {
	return &decision.Pack{
		Version: decision.Version,
		Summary: "Follow up with the hot leads.",
		Cards: []decision.Card{
			{ID: "C1", Title: "Visit", Recommendation: "Book visits.", Priority: decision.PriorityHigh, EvidenceIDs: []string{"E1", "E3"}},
		},
		ActionBoard: decision.ActionBoard{
			Today: []decision.ActionItem{{Action: "Call P0 leads", TargetCount: 4}},
		},
	}
}

func TestMergeCleanPack(t *testing.T) {
	r := Merge(analysisFixture(), decisionFixture(), quiet())
	if len(r.Repairs) != 0 || len(r.Flags) != 0 {
		t.Errorf("Merge() repairs = %+v, flags = %+v, want none", r.Repairs, r.Flags)
	}
	if r.Version != Version {
		t.Errorf("Version = %q, want %q", r.Version, Version)
	}
}

func TestMergeEvidenceReferences(t *testing.T) {
	tests := []struct {
		name     string
		ids      []string
		want     []string
		wantKind RepairKind
	}{
		{"one resolves", []string{"E1", "E99"}, []string{"E1", "E2"}, RepairEvidenceReplaced},
		{"none resolve", []string{"evidence-1", "E0"}, []string{"E1", "E2"}, RepairEvidenceReplaced},
		{"empty", nil, []string{"E1", "E2"}, RepairEvidenceReplaced},
		{"extra unresolved", []string{"E4", "E5", "E42"}, []string{"E4", "E5"}, RepairEvidencePruned},
		{"all resolve", []string{"E4", "E5"}, []string{"E4", "E5"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dp := decisionFixture()
			dp.Cards[0].EvidenceIDs = tt.ids

			r := Merge(analysisFixture(), dp, quiet())
			if diff := cmp.Diff(tt.want, r.Decision.Cards[0].EvidenceIDs); diff != "" {
				t.Errorf("evidenceIds mismatch (-want +got):\n%s", diff)
			}
			if tt.wantKind == "" {
				if len(r.Repairs) != 0 {
					t.Errorf("Repairs = %+v, want none", r.Repairs)
				}
				return
			}
			if len(r.Repairs) != 1 || r.Repairs[0].Kind != tt.wantKind {
				t.Fatalf("Repairs = %+v, want one %s", r.Repairs, tt.wantKind)
			}
			if r.Repairs[0].Path != "cards[0].evidenceIds" {
				t.Errorf("Path = %q", r.Repairs[0].Path)
			}
		})
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	dp := decisionFixture()
	dp.Cards[0].EvidenceIDs = []string{"E77"}
	dp.LeadTiers = []decision.TierCount{{Tier: "P0", Count: 40, Pct: 80}}

	r := Merge(analysisFixture(), dp, quiet())
	if diff := cmp.Diff([]string{"E77"}, dp.Cards[0].EvidenceIDs); diff != "" {
		t.Errorf("input card mutated (-want +got):\n%s", diff)
	}
	if dp.LeadTiers[0].Count != 40 {
		t.Errorf("input lead tiers mutated: %+v", dp.LeadTiers)
	}
	if r.Decision == dp {
		t.Error("report shares the input pack")
	}
}

func TestMergeTargetCountFlags(t *testing.T) {
	tests := []struct {
		name   string
		item   decision.ActionItem
		flag   bool
		wantID string
	}{
		{"tier named, matches", decision.ActionItem{Action: "Call P0 leads", TargetCount: 4}, false, ""},
		{"tier named, inflated", decision.ActionItem{Action: "Call P0 leads", TargetCount: 10}, true, "E3"},
		{"cited, within 20%", decision.ActionItem{Action: "Send brochures", TargetCount: 12, EvidenceIDs: []string{"E5"}}, false, ""},
		{"cited, boundary", decision.ActionItem{Action: "Send brochures", TargetCount: 8, EvidenceIDs: []string{"E5"}}, false, ""},
		{"cited, off", decision.ActionItem{Action: "Send brochures", TargetCount: 7, EvidenceIDs: []string{"E5"}}, true, "E5"},
		{"cited wins over tier", decision.ActionItem{Action: "Call P1 leads", TargetCount: 4, EvidenceIDs: []string{"E3"}}, false, ""},
		{"no related evidence", decision.ActionItem{Action: "Refresh the landing page", TargetCount: 500}, false, ""},
		{"P10 is not P1", decision.ActionItem{Action: "Review P10 backlog", TargetCount: 100}, false, ""},
		{"no target", decision.ActionItem{Action: "Call P0 leads"}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dp := decisionFixture()
			dp.ActionBoard.Today = []decision.ActionItem{tt.item}

			r := Merge(analysisFixture(), dp, quiet())
			if got := len(r.Flags) == 1; got != tt.flag {
				t.Fatalf("flagged = %v, want %v (%+v)", got, tt.flag, r.Flags)
			}
			if tt.flag && r.Flags[0].EvidenceID != tt.wantID {
				t.Errorf("EvidenceID = %q, want %q", r.Flags[0].EvidenceID, tt.wantID)
			}
			if r.Decision.ActionBoard.Today[0].TargetCount != tt.item.TargetCount {
				t.Error("flagged target count was altered")
			}
		})
	}
}

func TestMergeActionEvidencePruned(t *testing.T) {
	dp := decisionFixture()
	dp.ActionBoard.ThisWeek = []decision.ActionItem{{Action: "Email P4", EvidenceIDs: []string{"E5", "E12"}}}

	r := Merge(analysisFixture(), dp, quiet())
	if diff := cmp.Diff([]string{"E5"}, r.Decision.ActionBoard.ThisWeek[0].EvidenceIDs); diff != "" {
		t.Errorf("action evidence (-want +got):\n%s", diff)
	}
	if len(r.Repairs) != 1 || r.Repairs[0].Path != "actionBoard.thisWeek[0].evidenceIds" {
		t.Errorf("Repairs = %+v", r.Repairs)
	}
}

func TestMergeLeadTiersOverwritten(t *testing.T) {
	dp := decisionFixture()
	dp.LeadTiers = []decision.TierCount{
		{Tier: "P0", Count: 5, Pct: 25},
		{Tier: "P1", Count: 6, Pct: 30},
		{Tier: "P4", Count: 10, Pct: 50},
	}

	r := Merge(analysisFixture(), dp, quiet())
	want := []decision.TierCount{
		{Tier: "P0", Count: 4, Pct: 20},
		{Tier: "P1", Count: 6, Pct: 30},
		{Tier: "P2", Count: 0, Pct: 0},
		{Tier: "P3", Count: 0, Pct: 0},
		{Tier: "P4", Count: 10, Pct: 50},
	}
	if diff := cmp.Diff(want, r.Decision.LeadTiers); diff != "" {
		t.Errorf("lead tiers (-want +got):\n%s", diff)
	}
	if len(r.Repairs) != 1 || r.Repairs[0].Kind != RepairTierRecomputed {
		t.Errorf("Repairs = %+v", r.Repairs)
	}
}

func TestMergeLeadTiersAgreeing(t *testing.T) {
	dp := decisionFixture()
	dp.LeadTiers = []decision.TierCount{
		{Tier: "P0", Count: 4, Pct: 20},
		{Tier: "P1", Count: 6, Pct: 30},
		{Tier: "P4", Count: 10, Pct: 50},
	}

	r := Merge(analysisFixture(), dp, quiet())
	if len(r.Repairs) != 0 {
		t.Errorf("Repairs = %+v, want none", r.Repairs)
	}
	if len(r.Decision.LeadTiers) != 3 {
		t.Errorf("agreeing tiers were rewritten: %+v", r.Decision.LeadTiers)
	}
}

func TestMergeAnalysisTierTotalMismatch(t *testing.T) {
	ap := analysisFixture()
	ap.Campaign.SampleCount = 25
	ap.LeadTiers.Distribution[0].Pct = 16

	r := Merge(ap, decisionFixture(), quiet())
	if r.Analysis == ap {
		t.Fatal("analysis pack was not copied")
	}
	if got := r.Analysis.LeadTiers.Distribution[0].Pct; got != 20 {
		t.Errorf("P0 pct = %v, want 20", got)
	}
	if ap.LeadTiers.Distribution[0].Pct != 16 {
		t.Error("input analysis pack mutated")
	}
	if len(r.Repairs) != 1 || r.Repairs[0].Path != "analysis.leadTiers" {
		t.Errorf("Repairs = %+v", r.Repairs)
	}
}

func TestMergeTierPercentagesUseCountSum(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(ap *analysis.Pack)
	}{
		{
			name: "stated total differs from count sum",
			mutate: func(ap *analysis.Pack) {
				ap.LeadTiers.Total = 25
				ap.LeadTiers.Distribution[0].Pct = 16
				ap.LeadTiers.Distribution[1].Pct = 24
				ap.LeadTiers.Distribution[4].Pct = 40
			},
		},
		{
			name: "percentages off with consistent totals",
			mutate: func(ap *analysis.Pack) {
				ap.LeadTiers.Distribution[1].Pct = 35
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ap := analysisFixture()
			tt.mutate(ap)

			r := Merge(ap, decisionFixture(), quiet())
			got := r.Analysis.LeadTiers
			if got.Total != 20 {
				t.Errorf("Total = %d, want 20", got.Total)
			}
			var pcts []float64
			for _, ts := range got.Distribution {
				pcts = append(pcts, ts.Pct)
			}
			if diff := cmp.Diff([]float64{20, 30, 0, 0, 50}, pcts); diff != "" {
				t.Errorf("pcts (-want +got):\n%s", diff)
			}
			if len(r.Repairs) != 1 || r.Repairs[0].Path != "analysis.leadTiers" {
				t.Errorf("Repairs = %+v", r.Repairs)
			}
		})
	}
}

func TestMergeNilDecision(t *testing.T) {
	r := Merge(analysisFixture(), nil, nil)
	if r.Decision != nil || len(r.Repairs) != 0 {
		t.Errorf("Merge(nil) = %+v", r)
	}
}

func TestMergeScenario(t *testing.T) {
	ap := analysis.BuildAnalysisPack(testfixtures.ScenarioCampaign(), nil, analysis.Options{
		Now:   func() time.Time { return testfixtures.Epoch },
		NewID: func() string { return "ap-test" },
	})
	dp := decisionFixture()
	dp.Cards[0].EvidenceIDs = []string{"E1", "E1000"}
	p0 := 1
	for _, e := range ap.Evidence {
		if e.Title == "Lead tier P0" {
			p0 = e.Count
		}
	}
	dp.ActionBoard.Today = []decision.ActionItem{{Action: "Call P0 leads", TargetCount: p0}}

	r := Merge(ap, dp, quiet())
	if diff := cmp.Diff([]string{ap.Evidence[0].ID, ap.Evidence[1].ID}, r.Decision.Cards[0].EvidenceIDs); diff != "" {
		t.Errorf("evidenceIds (-want +got):\n%s", diff)
	}
	if len(r.Flags) != 0 {
		t.Errorf("Flags = %+v, want none", r.Flags)
	}
}
