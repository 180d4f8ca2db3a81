package guideline

import (
	"testing"

	gpErrors "ustudiopd/eventlive/pkg/guideline/errors"
	"ustudiopd/eventlive/pkg/roles"
)

func validPack() *Pack {
	return &Pack{
		Version:         Version,
		FormID:          "form-1",
		FormFingerprint: "fp-1",
		Status:          StatusDraft,
		Objectives: Objectives{
			DecisionQuestions: []DecisionQuestion{
				{ID: "dq1", Question: "Who should sales call first?", Roles: []roles.Role{roles.Timeline}},
			},
		},
		QuestionMap: []QuestionMapping{
			{QuestionID: "q1", Role: roles.Timeline, Importance: ImportanceCore,
				OptionScores: []OptionScore{{OptionID: "o1", Score: 100}}},
			{QuestionID: "q2", Role: roles.FollowupIntent, Importance: ImportanceSupporting,
				OptionScores: []OptionScore{{OptionText: "Visit", Score: 100}}},
		},
		CrosstabPlan: CrosstabPlan{
			MinCellCount: 5,
			Pinned:       []CrosstabPair{{RowRole: roles.Timeline, ColRole: roles.FollowupIntent}},
		},
		LeadScoring: LeadScoring{
			Enabled: true,
			Components: []ScoreComponent{
				{Role: roles.Timeline, Weight: 1},
				{Role: roles.FollowupIntent, Weight: 2},
			},
			TierThresholds: DefaultThresholds,
			Actions:        DefaultActions,
		},
	}
}

func TestValidateValidPack(t *testing.T) {
	res := Validate(validPack(), "fp-1")
	if !res.IsValid {
		t.Fatalf("Validate() IsValid = false, errors: %v", gpErrors.Messages(res.Errors))
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Validate() warnings = %v, want none", gpErrors.Messages(res.Warnings))
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Pack)
		code   gpErrors.Code
	}{
		{"wrong version", func(p *Pack) { p.Version = "gp-0.9" }, gpErrors.CodeVersion},
		{"missing form id", func(p *Pack) { p.FormID = "" }, gpErrors.CodeMissingField},
		{"missing fingerprint", func(p *Pack) { p.FormFingerprint = "" }, gpErrors.CodeMissingField},
		{"unknown status", func(p *Pack) { p.Status = "live" }, gpErrors.CodeUnknownStatus},
		{"empty map", func(p *Pack) { p.QuestionMap = nil }, gpErrors.CodeMissingField},
		{"unknown role", func(p *Pack) { p.QuestionMap[0].Role = "timelime" }, gpErrors.CodeUnknownRole},
		{"bad importance", func(p *Pack) { p.QuestionMap[0].Importance = "critical" }, gpErrors.CodeInvalidValue},
		{"bad strategy", func(p *Pack) { p.QuestionMap[0].MultiSelectStrategy = "sum" }, gpErrors.CodeUnknownStrategy},
		{"duplicate id", func(p *Pack) { p.QuestionMap[1].QuestionID = "q1" }, gpErrors.CodeDuplicateSlot},
		{"empty group", func(p *Pack) {
			p.QuestionMap[0].Groups = []OptionGroup{{Label: "Soon"}}
		}, gpErrors.CodeEmptyGroup},
		{"threshold order", func(p *Pack) {
			p.LeadScoring.TierThresholds = Thresholds{P0: 50, P1: 60, P2: 40, P3: 20}
		}, gpErrors.CodeThresholdOrder},
		{"threshold range", func(p *Pack) {
			p.LeadScoring.TierThresholds = Thresholds{P0: 120, P1: 60, P2: 40, P3: 20}
		}, gpErrors.CodeThresholdOrder},
		{"zero weight", func(p *Pack) { p.LeadScoring.Components[0].Weight = 0 }, gpErrors.CodeWeight},
		{"self pair", func(p *Pack) {
			p.CrosstabPlan.Pinned[0].ColRole = roles.Timeline
		}, gpErrors.CodeInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPack()
			tt.mutate(p)
			res := Validate(p, "")
			if res.IsValid {
				t.Fatal("Validate() IsValid = true, want false")
			}
			found := false
			for _, e := range res.Errors {
				if e.Code == tt.code {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors = %v, want code %s", gpErrors.Messages(res.Errors), tt.code)
			}
		})
	}
}

func TestValidateUnknownRoleSuggestion(t *testing.T) {
	p := validPack()
	p.QuestionMap[0].Role = "timelin"
	res := Validate(p, "")
	if len(res.Errors) == 0 {
		t.Fatal("Validate() returned no errors")
	}
	if got := res.Errors[0].Suggestion; got != "Did you mean 'timeline'?" {
		t.Errorf("Suggestion = %q", got)
	}
}

func TestValidateWarnings(t *testing.T) {
	p := validPack()
	p.Objectives.DecisionQuestions[0].Roles = append(p.Objectives.DecisionQuestions[0].Roles, roles.BudgetStatus)

	res := Validate(p, "fp-2")
	if !res.IsValid {
		t.Fatalf("Validate() IsValid = false: %v", gpErrors.Messages(res.Errors))
	}
	codes := map[gpErrors.Code]bool{}
	for _, w := range res.Warnings {
		codes[w.Code] = true
	}
	if !codes[gpErrors.CodeFingerprintDrift] {
		t.Error("missing fingerprint drift warning")
	}
	if !codes[gpErrors.CodeDanglingObjective] {
		t.Error("missing dangling objective warning")
	}
}

func TestValidateNil(t *testing.T) {
	if res := Validate(nil, ""); res.IsValid {
		t.Error("Validate(nil) IsValid = true")
	}
}

func TestLint(t *testing.T) {
	res := Lint(validPack())
	if !res.IsValid {
		t.Fatal("Lint() IsValid = false for valid pack")
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Lint() warnings = %v, want none", gpErrors.Messages(res.Warnings))
	}
}

func TestLintWarnings(t *testing.T) {
	p := validPack()
	p.QuestionMap = []QuestionMapping{{Role: roles.ProjectType, Importance: ImportanceOptional}}
	p.CrosstabPlan = CrosstabPlan{MinCellCount: 2}
	p.LeadScoring.Actions = nil
	p.LeadScoring.Components = nil
	p.Objectives.DecisionQuestions = nil

	res := Lint(p)
	if !res.IsValid {
		t.Fatalf("Lint() IsValid = false")
	}
	want := []gpErrors.Code{
		gpErrors.CodeLintNoCoreSlot,
		gpErrors.CodeLintRoleOnly,
		gpErrors.CodeLintUnmappedRole,
		gpErrors.CodeLintNoCrosstab,
		gpErrors.CodeLintLowMinCell,
		gpErrors.CodeLintNoActions,
		gpErrors.CodeLintLeadScoringEmpty,
		gpErrors.CodeLintNoDecisionQ,
	}
	got := map[gpErrors.Code]bool{}
	for _, w := range res.Warnings {
		got[w.Code] = true
		if w.Severity != gpErrors.SeverityWarning {
			t.Errorf("lint diagnostic %s has severity %s", w.Code, w.Severity)
		}
	}
	for _, c := range want {
		if !got[c] {
			t.Errorf("Lint() missing %s", c)
		}
	}
}

func TestLintInvalidPack(t *testing.T) {
	p := validPack()
	p.FormID = ""
	if Lint(p).IsValid {
		t.Error("Lint() IsValid = true for pack missing formId")
	}
}
