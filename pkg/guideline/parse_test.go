package guideline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ustudiopd/eventlive/pkg/roles"
)

const samplePackYAML = `
version: gp-1.0
formId: form-1
formFingerprint: abc123
status: draft
objectives:
  decisionQuestions:
    - id: dq1
      question: Which leads should sales call this week?
      roles: [timeframe, engagement_intent]
questionMap:
  - questionId: q1
    role: timeframe
    importance: core
  - logicalKey: intent
    role: intent_followup
crosstabPlan:
  minCellCount: 5
  pinned:
    - rowRole: timeframe
      colRole: engagement_intent
leadScoring:
  enabled: true
  components:
    - role: authority
      weight: 2
  tierThresholds: {p0: 80, p1: 60, p2: 40, p3: 20}
`

func TestParseYAML(t *testing.T) {
	p, err := Parse([]byte(samplePackYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.FormID != "form-1" {
		t.Errorf("FormID = %q, want form-1", p.FormID)
	}
	if p.QuestionMap[0].Role != roles.Timeline {
		t.Errorf("QuestionMap[0].Role = %q, want %q", p.QuestionMap[0].Role, roles.Timeline)
	}
	if p.QuestionMap[1].Role != roles.FollowupIntent {
		t.Errorf("QuestionMap[1].Role = %q, want %q", p.QuestionMap[1].Role, roles.FollowupIntent)
	}
	if got := p.CrosstabPlan.Pinned[0].ColRole; got != roles.FollowupIntent {
		t.Errorf("Pinned[0].ColRole = %q, want %q", got, roles.FollowupIntent)
	}
	if got := p.LeadScoring.Components[0].Role; got != roles.AuthorityLevel {
		t.Errorf("Components[0].Role = %q, want %q", got, roles.AuthorityLevel)
	}
	if got := p.Objectives.DecisionQuestions[0].Roles; got[0] != roles.Timeline || got[1] != roles.FollowupIntent {
		t.Errorf("DecisionQuestions[0].Roles = %v", got)
	}
	if p.LeadScoring.TierThresholds.P1 != 60 {
		t.Errorf("TierThresholds.P1 = %v, want 60", p.LeadScoring.TierThresholds.P1)
	}
}

func TestParseJSON(t *testing.T) {
	data := `{"version":"gp-1.0","formId":"f","formFingerprint":"x","questionMap":[{"role":"need_area"}]}`
	p, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.QuestionMap[0].Role != roles.ProjectType {
		t.Errorf("Role = %q, want %q", p.QuestionMap[0].Role, roles.ProjectType)
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name string
		data string
		got  string
	}{
		{"missing", `{"formId":"f"}`, ""},
		{"wrong", `{"version":"gp-2.0"}`, "gp-2.0"},
		{"yaml wrong", "version: ap-1.0\n", "ap-1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			var verr *VersionError
			if !errors.As(err, &verr) {
				t.Fatalf("Parse() error = %v, want *VersionError", err)
			}
			if verr.Got != tt.got {
				t.Errorf("VersionError.Got = %q, want %q", verr.Got, tt.got)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`{"version": "gp-1.0",`))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Parse() error = %v, want *ParseError", err)
	}
	if perr.Format != "json" {
		t.Errorf("Format = %q, want json", perr.Format)
	}
}

func TestLoadAndMarshal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	if err := os.WriteFile(path, []byte(samplePackYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	data, err := Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	again, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error = %v", err)
	}
	if again.FormFingerprint != p.FormFingerprint || len(again.QuestionMap) != len(p.QuestionMap) {
		t.Errorf("round trip changed pack: %+v", again)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of missing file returned nil error")
	}
}

func TestClone(t *testing.T) {
	p, err := Parse([]byte(samplePackYAML))
	if err != nil {
		t.Fatal(err)
	}
	c := p.Clone()
	c.QuestionMap[0].QuestionID = "changed"
	if p.QuestionMap[0].QuestionID != "q1" {
		t.Error("Clone() shares question map with original")
	}
}

func TestContentHash(t *testing.T) {
	parse := func() *Pack {
		t.Helper()
		p, err := Parse([]byte(samplePackYAML))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		return p
	}

	h1, err := ContentHash(parse())
	if err != nil {
		t.Fatalf("ContentHash() error = %v", err)
	}
	if h, _ := ContentHash(parse()); h != h1 {
		t.Error("ContentHash() is not deterministic")
	}

	published := parse()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	published.Status = StatusPublished
	published.PublishedAt = &now
	published.UpdatedAt = now
	if h, _ := ContentHash(published); h != h1 {
		t.Error("ContentHash() changed with lifecycle fields")
	}

	edited := parse()
	edited.CrosstabPlan.MinCellCount += 3
	if h, _ := ContentHash(edited); h == h1 {
		t.Error("ContentHash() ignored a settings change")
	}
}
