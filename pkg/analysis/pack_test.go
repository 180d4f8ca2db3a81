package analysis

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ustudiopd/eventlive/internal/testfixtures"
	"ustudiopd/eventlive/pkg/guideline/compiler"
	"ustudiopd/eventlive/pkg/survey"
)

func fixedOptions() Options {
	return Options{
		Now:   func() time.Time { return testfixtures.Epoch },
		NewID: func() string { return "ap-test" },
	}
}

func compiledFixture(t *testing.T) *compiler.Compiled {
	t.Helper()
	res := compiler.Compile(testfixtures.Pack(), testfixtures.QuestionsWithRoles(), "rev-1")
	if !res.Success {
		t.Fatal("fixture pack did not compile")
	}
	return res.Compiled
}

func TestBuildAnalysisPack_Scenario(t *testing.T) {
	data := testfixtures.ScenarioCampaign()
	p := BuildAnalysisPack(data, compiledFixture(t), fixedOptions())

	if p.Version != Version || p.ID != "ap-test" {
		t.Errorf("Version, ID = %q, %q", p.Version, p.ID)
	}
	if !p.Campaign.AnalyzedAt.Equal(testfixtures.Epoch) {
		t.Errorf("AnalyzedAt = %v", p.Campaign.AnalyzedAt)
	}
	if p.Campaign.SampleCount != 50 || p.Campaign.QuestionCount != 7 {
		t.Errorf("Campaign = %+v", p.Campaign)
	}
	if p.Campaign.AnswerCount != 125 {
		t.Errorf("AnswerCount = %d, want 125", p.Campaign.AnswerCount)
	}
	if p.Campaign.GuidelineID != "gp-sample" {
		t.Errorf("GuidelineID = %q", p.Campaign.GuidelineID)
	}

	if len(p.Crosstabs) != 2 {
		t.Fatalf("len(Crosstabs) = %d, want 2 pinned pairs", len(p.Crosstabs))
	}
	tab := p.Crosstabs[0]
	if tab.RowQuestionID != testfixtures.QTimeline || tab.Source != string(compiler.PairPinned) {
		t.Errorf("Crosstabs[0] = %s x %s (%s)", tab.RowQuestionID, tab.ColQuestionID, tab.Source)
	}

	var found *Highlight
	for i, h := range p.Highlights {
		if h.RowQuestionID == testfixtures.QTimeline && h.ColLabel == "Visit" && h.Count == 25 {
			found = &p.Highlights[i]
		}
	}
	if found == nil {
		t.Fatalf("no highlight for the grouped (Soon, Visit) cell; highlights: %+v", p.Highlights)
	}
	if found.Lift <= 1 {
		t.Errorf("Lift = %v, want > 1", found.Lift)
	}
	if found.Confidence != Confirmed {
		t.Errorf("Confidence = %s, want Confirmed", found.Confidence)
	}
	ev, ok := p.EvidenceByID(found.EvidenceIDs[0])
	if !ok || ev.Kind != MetricCrosstab || ev.Count != 25 {
		t.Errorf("highlight cites %+v, want the crosstab evidence of its cell", ev)
	}
}

func TestBuildAnalysisPack_NoGuideline(t *testing.T) {
	data := testfixtures.ScenarioCampaign()
	p := BuildAnalysisPack(data, nil, fixedOptions())

	if p.LeadTiers == nil || p.LeadTiers.Source != "default" {
		t.Fatalf("LeadTiers = %+v, want default scoring", p.LeadTiers)
	}
	for _, tab := range p.Crosstabs {
		if tab.Source != string(compiler.PairDefault) {
			t.Errorf("crosstab source = %q, want default", tab.Source)
		}
	}

	tl, ok := findTable(p.Crosstabs, testfixtures.QTimeline, testfixtures.QFollowup)
	if !ok {
		t.Fatal("timeline x followup crosstab missing")
	}
	cell, ok := tl.Cell("t1", "f1")
	if !ok || cell.Count != 20 {
		t.Fatalf("cell (1 week, visit) = %+v", cell)
	}
	if cell.Lift <= 1 {
		t.Errorf("Lift = %v, want > 1", cell.Lift)
	}

	var h *Highlight
	for i := range p.Highlights {
		if p.Highlights[i].RowLabel == "Within 1 week" && p.Highlights[i].ColLabel == "Visit" {
			h = &p.Highlights[i]
		}
	}
	if h == nil {
		t.Fatal("(1 week, visit) missing from highlights")
	}
	if !strings.Contains(h.Statement, "n=20") {
		t.Errorf("Statement = %q", h.Statement)
	}

	var cited bool
	for _, id := range h.EvidenceIDs {
		if e, ok := p.EvidenceByID(id); ok && e.Kind == MetricCrosstab &&
			strings.Contains(e.ValueText, "20 of 25") && strings.Contains(e.ValueText, "lift 1.60") {
			cited = true
		}
	}
	if !cited {
		t.Errorf("no evidence cites the (1 week, visit) cell; ids %v", h.EvidenceIDs)
	}
}

func findTable(tables []CrosstabTable, row, col string) (CrosstabTable, bool) {
	for _, t := range tables {
		if t.RowQuestionID == row && t.ColQuestionID == col {
			return t, true
		}
	}
	return CrosstabTable{}, false
}

func TestBuildAnalysisPack_Highlights(t *testing.T) {
	p := BuildAnalysisPack(testfixtures.ScenarioCampaign(), nil, fixedOptions())

	if len(p.Highlights) == 0 || len(p.Highlights) > MaxHighlights {
		t.Fatalf("len(Highlights) = %d", len(p.Highlights))
	}
	seenNotAbove := false
	for i, h := range p.Highlights {
		if h.Count < HighlightMinCount {
			t.Errorf("highlight %d rests on %d respondents", i, h.Count)
		}
		if h.Lift <= 1 {
			seenNotAbove = true
		} else if seenNotAbove {
			t.Errorf("highlight %d with lift %v follows one with lift <= 1", i, h.Lift)
		}
		if i > 0 && (h.Lift > 1) == (p.Highlights[i-1].Lift > 1) && h.Lift > p.Highlights[i-1].Lift {
			t.Errorf("highlights not sorted by lift at %d", i)
		}
		if len(h.EvidenceIDs) < 1 || len(h.EvidenceIDs) > 2 {
			t.Errorf("highlight %d cites %d evidence ids", i, len(h.EvidenceIDs))
		}
		for _, id := range h.EvidenceIDs {
			if _, ok := p.EvidenceByID(id); !ok {
				t.Errorf("highlight %d cites unknown evidence %s", i, id)
			}
		}
	}
}

func TestBuildAnalysisPack_TopKOnlyLimitsDisplay(t *testing.T) {
	data := testfixtures.ScenarioCampaign()
	full := BuildAnalysisPack(data, compiledFixture(t), fixedOptions())

	limited := compiledFixture(t)
	limited.TopKRows, limited.TopKCols = 1, 1
	p := BuildAnalysisPack(data, limited, fixedOptions())

	if len(full.Highlights) == 0 {
		t.Fatal("fixture produced no highlights")
	}
	if diff := cmp.Diff(full.Highlights, p.Highlights); diff != "" {
		t.Errorf("highlights changed with top-K limits (-full +limited):\n%s", diff)
	}
	if diff := cmp.Diff(full.Evidence, p.Evidence); diff != "" {
		t.Errorf("evidence changed with top-K limits (-full +limited):\n%s", diff)
	}
	for i, tab := range p.Crosstabs {
		if len(tab.Rows) != len(full.Crosstabs[i].Rows) || len(tab.Cells) != len(full.Crosstabs[i].Cells) {
			t.Errorf("Crosstabs[%d] was trimmed in the pack", i)
		}
		if tab.TopKRows != 1 || tab.TopKCols != 1 {
			t.Errorf("Crosstabs[%d] limits = %d×%d, want 1×1", i, tab.TopKRows, tab.TopKCols)
		}
	}
}

func TestBuildAnalysisPack_EvidenceOrder(t *testing.T) {
	p := BuildAnalysisPack(testfixtures.ScenarioCampaign(), compiledFixture(t), fixedOptions())

	rank := map[MetricKind]int{
		MetricDistribution: 0, MetricCrosstab: 1, MetricLeadTier: 2, MetricChannel: 3, MetricDataQuality: 4,
	}
	last := -1
	for i, e := range p.Evidence {
		if want := "E" + strconv.Itoa(i+1); e.ID != want {
			t.Errorf("Evidence[%d].ID = %s, want %s", i, e.ID, want)
		}
		if rank[e.Kind] < last {
			t.Errorf("evidence %s of kind %s out of order", e.ID, e.Kind)
		}
		last = rank[e.Kind]
	}

	kinds := map[MetricKind]int{}
	for _, e := range p.Evidence {
		kinds[e.Kind]++
	}
	if kinds[MetricDistribution] != 6 || kinds[MetricLeadTier] != 5 || kinds[MetricChannel] != 1 || kinds[MetricDataQuality] != 1 {
		t.Errorf("evidence kinds = %v", kinds)
	}
}

func TestBuildAnalysisPack_TierConservation(t *testing.T) {
	p := BuildAnalysisPack(testfixtures.ScenarioCampaign(), compiledFixture(t), fixedOptions())
	if p.LeadTiers == nil {
		t.Fatal("LeadTiers = nil")
	}
	sum := 0
	for _, ts := range p.LeadTiers.Distribution {
		sum += ts.Count
	}
	if sum != p.Campaign.SampleCount {
		t.Errorf("tier counts sum to %d, want %d", sum, p.Campaign.SampleCount)
	}
}

func TestBuildAnalysisPack_LeadScoringDisabled(t *testing.T) {
	c := compiledFixture(t)
	c.LeadScoring.Enabled = false
	p := BuildAnalysisPack(testfixtures.ScenarioCampaign(), c, fixedOptions())
	if p.LeadTiers != nil {
		t.Error("LeadTiers computed although the guideline disabled lead scoring")
	}
}

func TestBuildAnalysisPack_Channels(t *testing.T) {
	p := BuildAnalysisPack(testfixtures.ScenarioCampaign(), nil, fixedOptions())
	if p.Channels == nil || p.Channels.QuestionID != testfixtures.QChannel {
		t.Fatalf("Channels = %+v", p.Channels)
	}
	if top := p.Channels.Distribution[0]; top.Label != "Phone" || top.Count != 5 {
		t.Errorf("top channel = %+v", top)
	}
}

func TestBuildAnalysisPack_Empty(t *testing.T) {
	data := &survey.CampaignData{CampaignID: "c", Questions: testfixtures.Questions()}
	p := BuildAnalysisPack(data, nil, fixedOptions())
	if len(p.Crosstabs) != 0 || len(p.Highlights) != 0 {
		t.Errorf("empty campaign produced crosstabs or highlights")
	}
	if len(p.DataQuality) < 3 {
		t.Errorf("len(DataQuality) = %d, want >= 3", len(p.DataQuality))
	}
	if p.LeadTiers == nil || p.LeadTiers.Total != 0 {
		t.Errorf("LeadTiers = %+v", p.LeadTiers)
	}
}

func TestLoadAnalysisPack(t *testing.T) {
	p := BuildAnalysisPack(testfixtures.ScenarioCampaign(), nil, fixedOptions())
	data, err := Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadAnalysisPack(data)
	if err != nil {
		t.Fatalf("LoadAnalysisPack() error = %v", err)
	}
	if len(loaded.Evidence) != len(p.Evidence) || loaded.Campaign.SampleCount != 50 {
		t.Error("round trip lost data")
	}

	_, err = LoadAnalysisPack([]byte(`{"version":"ap-2.0"}`))
	var verr *VersionError
	if !errors.As(err, &verr) || verr.Got != "ap-2.0" {
		t.Errorf("LoadAnalysisPack(ap-2.0) error = %v, want *VersionError", err)
	}
	if _, err := LoadAnalysisPack([]byte(`not json`)); err == nil {
		t.Error("LoadAnalysisPack(garbage) error = nil")
	}
}

func TestDataQuality(t *testing.T) {
	tests := []struct {
		name                       string
		samples, questions, answer int
		codes                      []string
	}{
		{"small", 5, 2, 10, []string{QualitySampleSmall, QualityMissingOK}},
		{"moderate", 20, 2, 20, []string{QualitySampleModerate, QualityMissingHigh}},
		{"adequate", 40, 1, 40, []string{QualitySampleAdequate, QualityMissingOK}},
		{"nothing", 0, 0, 0, []string{QualitySampleSmall, QualityMissingOK}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := DataQuality(tt.samples, tt.questions, tt.answer)
			if len(msgs) < 3 {
				t.Fatalf("len(DataQuality()) = %d, want >= 3", len(msgs))
			}
			for i, code := range tt.codes {
				if msgs[i].Code != code {
					t.Errorf("msgs[%d].Code = %s, want %s", i, msgs[i].Code, code)
				}
			}
		})
	}

	if got := MissingRate(10, 2, 15); got != 0.25 {
		t.Errorf("MissingRate(10, 2, 15) = %v, want 0.25", got)
	}
}
