package analysis

import (
	"testing"

	"ustudiopd/eventlive/internal/testfixtures"
	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/guideline/compiler"
	"ustudiopd/eventlive/pkg/roles"
	"ustudiopd/eventlive/pkg/survey"
)

func TestKeywordScore(t *testing.T) {
	tests := []struct {
		role roles.Role
		text string
		want float64
	}{
		{roles.Timeline, "Within 1 week", 100},
		{roles.Timeline, "Within 1 month", 70},
		{roles.Timeline, "Next quarter", 50},
		{roles.Timeline, "No plan", 0},
		{roles.Timeline, "1주 이내", 100},
		{roles.Timeline, "Within 11 months", 0},
		{roles.Timeline, "11개월 후", 0},
		{roles.Timeline, "About 1 month (maybe 2)", 70},
		{roles.Timeline, "On behalf of my team", 0},
		{roles.Timeline, "6 months", 30},
		{roles.FollowupIntent, "Request a visit", 100},
		{roles.FollowupIntent, "Phone call", 80},
		{roles.FollowupIntent, "Send me an email", 40},
		{roles.FollowupIntent, "Not interested", -100},
		{roles.FollowupIntent, "None", 0},
		{roles.BudgetStatus, "Yes, allocated", 100},
		{roles.BudgetStatus, "Not yet", 0},
		{roles.BudgetStatus, "no", 0},
		{roles.AuthorityLevel, "Decision maker", 100},
		{roles.AuthorityLevel, "Influencer", 60},
		{roles.AuthorityLevel, "End user", 20},
		{roles.ProjectType, "Cloud", 50},
		{roles.ProjectType, "", 0},
	}
	for _, tt := range tests {
		if got := KeywordScore(tt.role, tt.text); got != tt.want {
			t.Errorf("KeywordScore(%s, %q) = %v, want %v", tt.role, tt.text, got, tt.want)
		}
	}
}

func TestAggregate(t *testing.T) {
	scores := []float64{40, 80}
	tests := []struct {
		strategy guideline.MultiSelectStrategy
		want     float64
	}{
		{guideline.StrategyMax, 80},
		{guideline.StrategySumCap, 100},
		{guideline.StrategyBinaryAny, 100},
		{"", 80},
	}
	for _, tt := range tests {
		if got := aggregate(scores, tt.strategy); got != tt.want {
			t.Errorf("aggregate(%v, %q) = %v, want %v", scores, tt.strategy, got, tt.want)
		}
	}
	if got := aggregate([]float64{0, 0}, guideline.StrategyBinaryAny); got != 0 {
		t.Errorf("binaryAny of zeros = %v, want 0", got)
	}
}

func scenarioScoring(t *testing.T) compiler.LeadScoring {
	t.Helper()
	res := compiler.Compile(testfixtures.Pack(), testfixtures.QuestionsWithRoles(), "rev-1")
	if !res.Success {
		t.Fatal("fixture pack did not compile")
	}
	return res.Compiled.LeadScoring
}

func TestScoreLead(t *testing.T) {
	data := testfixtures.ScenarioCampaign()
	idx := data.Index()
	byID := map[string]survey.Question{}
	for _, q := range data.Questions {
		byID[q.ID] = q
	}
	scoring := scenarioScoring(t)

	tests := []struct {
		sub     string
		score   float64
		tier    guideline.Tier
		reasons int
	}{
		{"s01", 66.7, guideline.TierP1, 2}, // week + visit
		{"s10", 100, guideline.TierP0, 4},  // week + visit + budget + decision maker
		{"s21", 33.3, guideline.TierP3, 1}, // week + none
		{"s26", 56.7, guideline.TierP2, 2}, // month + visit
		{"s41", 0, guideline.TierP4, 0},    // no plan + none
		{"s50", 33.3, guideline.TierP3, 2}, // no plan + none + budget + decision maker
	}
	for _, tt := range tests {
		rec := ScoreLead(tt.sub, idx, byID, scoring)
		if rec.Score != tt.score {
			t.Errorf("ScoreLead(%s).Score = %v, want %v", tt.sub, rec.Score, tt.score)
		}
		if rec.Tier != tt.tier {
			t.Errorf("ScoreLead(%s).Tier = %s, want %s", tt.sub, rec.Tier, tt.tier)
		}
		if len(rec.Reasons) != tt.reasons {
			t.Errorf("ScoreLead(%s).Reasons = %v, want %d", tt.sub, rec.Reasons, tt.reasons)
		}
		if rec.NextAction != scoring.ActionFor(tt.tier) {
			t.Errorf("ScoreLead(%s).NextAction = %q", tt.sub, rec.NextAction)
		}
		if len(rec.SubScores) != 4 {
			t.Errorf("ScoreLead(%s) has %d sub-scores, want 4", tt.sub, len(rec.SubScores))
		}
	}
}

func TestScoreLead_ClampsNegative(t *testing.T) {
	q := survey.Question{ID: "f", Type: survey.TypeSingle, Options: []survey.Option{{ID: "n", Text: "Not interested"}}}
	data := &survey.CampaignData{
		Questions:   []survey.Question{q},
		Submissions: []survey.Submission{{ID: "s"}},
		Answers:     []survey.Answer{{SubmissionID: "s", QuestionID: "f", OptionIDs: []string{"n"}}},
	}
	scoring := compiler.LeadScoring{
		Enabled:    true,
		Components: []compiler.Component{{Role: roles.FollowupIntent, QuestionID: "f", Weight: 1}},
	}

	rec := ScoreLead("s", data.Index(), map[string]survey.Question{"f": q}, scoring)
	if rec.Score != 0 {
		t.Errorf("Score = %v, want 0 after clamping", rec.Score)
	}
	if rec.SubScores[0].Score != -100 {
		t.Errorf("sub-score = %v, want -100", rec.SubScores[0].Score)
	}
	if rec.Tier != guideline.TierP4 {
		t.Errorf("Tier = %s, want P4", rec.Tier)
	}
	if rec.NextAction != guideline.DefaultActions[guideline.TierP4] {
		t.Errorf("NextAction = %q, want the default P4 action", rec.NextAction)
	}
}

func TestScoreLeads_Conservation(t *testing.T) {
	data := testfixtures.ScenarioCampaign()
	sum := ScoreLeads(data.Submissions, data.Index(), data.Questions, scenarioScoring(t), "guideline")

	total := 0
	want := map[guideline.Tier]int{
		guideline.TierP0: 3, guideline.TierP1: 18, guideline.TierP2: 5, guideline.TierP3: 15, guideline.TierP4: 9,
	}
	for _, ts := range sum.Distribution {
		total += ts.Count
		if ts.Count != want[ts.Tier] {
			t.Errorf("tier %s count = %d, want %d", ts.Tier, ts.Count, want[ts.Tier])
		}
	}
	if total != len(data.Submissions) || sum.Total != len(data.Submissions) {
		t.Errorf("tier counts sum to %d (Total %d), want %d", total, sum.Total, len(data.Submissions))
	}
	if len(sum.Leads) != len(data.Submissions) {
		t.Errorf("len(Leads) = %d", len(sum.Leads))
	}
}

func TestDefaultLeadScoring(t *testing.T) {
	ls := DefaultLeadScoring(testfixtures.QuestionsWithRoles())
	if !ls.Enabled || len(ls.Components) != 4 {
		t.Fatalf("DefaultLeadScoring() = %+v", ls)
	}
	if ls.Thresholds != guideline.DefaultThresholds {
		t.Errorf("Thresholds = %+v", ls.Thresholds)
	}
	if none := DefaultLeadScoring(nil); none.Enabled {
		t.Error("DefaultLeadScoring(nil) enabled")
	}
}
