package decision

import "ustudiopd/eventlive/pkg/guideline"

// Version is the decision pack document version.
const Version = "dp-1.0"

// Priority of a recommendation card.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Pack is the recommendation document.
type Pack struct {
	Version     string      `json:"version"`
	Summary     string      `json:"summary"`
	Cards       []Card      `json:"cards"`
	ActionBoard ActionBoard `json:"actionBoard"`
	// LeadTiers optionally restates the lead-tier distribution.
	LeadTiers []TierCount `json:"leadTiers,omitempty"`
}

// Card is one recommendation, citing the evidence it rests on.
type Card struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Recommendation string   `json:"recommendation"`
	Rationale      string   `json:"rationale,omitempty"`
	Priority       Priority `json:"priority"`
	EvidenceIDs    []string `json:"evidenceIds"`
}

// ActionBoard groups concrete next steps by horizon.
type ActionBoard struct {
	Today     []ActionItem `json:"today"`
	ThisWeek  []ActionItem `json:"thisWeek"`
	ThisMonth []ActionItem `json:"thisMonth"`
}

// ActionItem is one next step. TargetCount, when set, is the number of leads
// or respondents the action addresses.
type ActionItem struct {
	Action      string   `json:"action"`
	Owner       string   `json:"owner,omitempty"`
	TargetCount int      `json:"targetCount,omitempty"`
	EvidenceIDs []string `json:"evidenceIds,omitempty"`
}

// TierCount is a restated lead-tier bucket.
type TierCount struct {
	Tier  guideline.Tier `json:"tier"`
	Count int            `json:"count"`
	Pct   float64        `json:"pct"`
}

// Horizon names an action-board column.
type Horizon string

const (
	HorizonToday     Horizon = "today"
	HorizonThisWeek  Horizon = "thisWeek"
	HorizonThisMonth Horizon = "thisMonth"
)

// Column returns a pointer to one column of the board.
func (b *ActionBoard) Column(h Horizon) *[]ActionItem {
	switch h {
	case HorizonToday:
		return &b.Today
	case HorizonThisWeek:
		return &b.ThisWeek
	default:
		return &b.ThisMonth
	}
}

// Horizons lists the action-board columns in order.
var Horizons = []Horizon{HorizonToday, HorizonThisWeek, HorizonThisMonth}
