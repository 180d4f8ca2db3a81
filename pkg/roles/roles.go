// Package roles assigns each survey question a semantic role from a closed
// taxonomy. Guideline packs reference roles instead of concrete question ids,
// which is what lets a pack survive edits to the form.
//
// Historical spellings (timeframe, engagement_intent, authority, ...) are
// folded into the canonical set by Normalize. Every ingress boundary calls it;
// nothing past that boundary compares raw role strings.
package roles

import (
	"strings"

	"ustudiopd/eventlive/pkg/survey"
)

// Role is a canonical question role.
type Role string

const (
	Timeline       Role = "timeline"
	ProjectType    Role = "project_type"
	FollowupIntent Role = "followup_intent"
	BudgetStatus   Role = "budget_status"
	AuthorityLevel Role = "authority_level"
	Other          Role = "other"
)

// All lists the canonical roles in taxonomy order.
var All = []Role{Timeline, ProjectType, FollowupIntent, BudgetStatus, AuthorityLevel, Other}

// synonyms maps every known spelling, canonical ones included, to its role.
var synonyms = map[string]Role{
	"timeline":             Timeline,
	"timeframe":            Timeline,
	"time_frame":           Timeline,
	"timing":               Timeline,
	"project_type":         ProjectType,
	"need_area":            ProjectType,
	"usecase_project_type": ProjectType,
	"usecase":              ProjectType,
	"followup_intent":      FollowupIntent,
	"follow_up_intent":     FollowupIntent,
	"engagement_intent":    FollowupIntent,
	"intent_followup":      FollowupIntent,
	"followup":             FollowupIntent,
	"budget_status":        BudgetStatus,
	"budget":               BudgetStatus,
	"authority_level":      AuthorityLevel,
	"authority":            AuthorityLevel,
	"decision_authority":   AuthorityLevel,
	"other":                Other,
}

// Normalize maps a role spelling to its canonical Role. Matching ignores case,
// surrounding space, and treats '-' and ' ' as '_'.
func Normalize(s string) (Role, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	r, ok := synonyms[key]
	return r, ok
}

// Valid reports whether r is a canonical role.
func (r Role) Valid() bool {
	for _, c := range All {
		if r == c {
			return true
		}
	}
	return false
}

// Label returns a short human-readable name used in reports.
func (r Role) Label() string {
	switch r {
	case Timeline:
		return "Timeline"
	case ProjectType:
		return "Project type"
	case FollowupIntent:
		return "Follow-up intent"
	case BudgetStatus:
		return "Budget"
	case AuthorityLevel:
		return "Authority"
	default:
		return "Other"
	}
}

// Source records how a role was assigned.
type Source string

const (
	SourceOverride  Source = "override"
	SourceHeuristic Source = "heuristic"
	SourceUnknown   Source = "unknown"
)

// QuestionWithRole is a question annotated with its inferred role.
type QuestionWithRole struct {
	survey.Question
	Role       Role   `json:"role"`
	RoleSource Source `json:"roleSource"`
	// Tie is set when two roles shared the top heuristic score.
	Tie bool `json:"tie,omitempty"`
}

// FirstWithRole returns the first question (in slice order) carrying role r.
func FirstWithRole(qs []QuestionWithRole, r Role) (QuestionWithRole, bool) {
	for _, q := range qs {
		if q.Role == r {
			return q, true
		}
	}
	return QuestionWithRole{}, false
}

// ByID returns the question with the given id.
func ByID(qs []QuestionWithRole, id string) (QuestionWithRole, bool) {
	for _, q := range qs {
		if q.ID == id {
			return q, true
		}
	}
	return QuestionWithRole{}, false
}
