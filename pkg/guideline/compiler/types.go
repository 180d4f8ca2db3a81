package compiler

import (
	"ustudiopd/eventlive/pkg/guideline"
	gpErrors "ustudiopd/eventlive/pkg/guideline/errors"
	"ustudiopd/eventlive/pkg/roles"
)

// Resolution records which tier placed a reference.
type Resolution string

const (
	ResolvedByID         Resolution = "id"
	ResolvedByLogicalKey Resolution = "logicalKey"
	ResolvedByRole       Resolution = "role"
)

// PairSource records where a compiled crosstab pair came from.
type PairSource string

const (
	PairPinned  PairSource = "pinned"
	PairPlan    PairSource = "plan"
	PairDefault PairSource = "default"
)

// Result is the outcome of Compile. Compiled is set only when Success is true.
type Result struct {
	Success  bool              `json:"success"`
	Compiled *Compiled         `json:"compiled,omitempty"`
	Warnings []*gpErrors.Error `json:"warnings"`
	Errors   []*gpErrors.Error `json:"errors"`
}

// Compiled is a guideline pack resolved against one form revision.
type Compiled struct {
	PackID       string `json:"packId,omitempty"`
	CampaignID   string `json:"campaignId,omitempty"`
	FormID       string `json:"formId"`
	FormRevision string `json:"formRevision,omitempty"`
	// FormFingerprint is the fingerprint of the questions compiled against.
	FormFingerprint string `json:"formFingerprint"`
	// PackFingerprint is the fingerprint the pack was authored against.
	PackFingerprint string `json:"packFingerprint"`

	Objectives   guideline.Objectives `json:"objectives"`
	Slots        []Slot               `json:"slots"`
	Crosstabs    []Pair               `json:"crosstabs"`
	MinCellCount int                  `json:"minCellCount"`
	TopKRows     int                  `json:"topKRows,omitempty"`
	TopKCols     int                  `json:"topKCols,omitempty"`
	LeadScoring  LeadScoring          `json:"leadScoring"`
}

// Slot is a resolved question mapping.
type Slot struct {
	QuestionID string               `json:"questionId"`
	LogicalKey string               `json:"logicalKey,omitempty"`
	Role       roles.Role           `json:"role"`
	Importance guideline.Importance `json:"importance"`
	Label      string               `json:"label,omitempty"`
	ResolvedBy Resolution           `json:"resolvedBy"`
	// OptionScores maps option id to score.
	OptionScores map[string]float64            `json:"optionScores,omitempty"`
	Groups       []Group                       `json:"groups,omitempty"`
	Strategy     guideline.MultiSelectStrategy `json:"multiSelectStrategy,omitempty"`
}

// Group is an option group with its members resolved to option ids.
type Group struct {
	Label     string   `json:"label"`
	OptionIDs []string `json:"optionIds"`
}

// Pair is a resolved crosstab pair.
type Pair struct {
	RowQuestionID string     `json:"rowQuestionId"`
	ColQuestionID string     `json:"colQuestionId"`
	RowRole       roles.Role `json:"rowRole,omitempty"`
	ColRole       roles.Role `json:"colRole,omitempty"`
	Source        PairSource `json:"source"`
}

// LeadScoring is the resolved lead-scoring configuration. Enabled is the
// pack's flag AND at least one component resolved.
type LeadScoring struct {
	Enabled    bool                      `json:"enabled"`
	Components []Component               `json:"components"`
	Thresholds guideline.Thresholds      `json:"tierThresholds"`
	Actions    map[guideline.Tier]string `json:"actions,omitempty"`
}

// ActionFor returns the action for a tier, falling back to the defaults.
func (l LeadScoring) ActionFor(t guideline.Tier) string {
	if a, ok := l.Actions[t]; ok && a != "" {
		return a
	}
	return guideline.DefaultActions[t]
}

// Component is a resolved lead-scoring component.
type Component struct {
	Role       roles.Role `json:"role"`
	QuestionID string     `json:"questionId"`
	Weight     float64    `json:"weight"`
	// OptionScores, when present, replaces keyword scoring for this role.
	OptionScores map[string]float64            `json:"optionScores,omitempty"`
	Strategy     guideline.MultiSelectStrategy `json:"multiSelectStrategy"`
}

// Slot returns the slot resolved to the given question id.
func (c *Compiled) Slot(questionID string) (Slot, bool) {
	for _, s := range c.Slots {
		if s.QuestionID == questionID {
			return s, true
		}
	}
	return Slot{}, false
}

// SlotForRole returns the first slot with the given role.
func (c *Compiled) SlotForRole(r roles.Role) (Slot, bool) {
	for _, s := range c.Slots {
		if s.Role == r {
			return s, true
		}
	}
	return Slot{}, false
}
