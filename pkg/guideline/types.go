package guideline

import (
	"encoding/json"
	"time"

	"ustudiopd/eventlive/pkg/roles"
)

// Version is the only pack document version this package reads and writes.
const Version = "gp-1.0"

// Status is a pack's lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished || s == StatusArchived
}

// Importance controls how an unresolved slot is treated at compile time.
type Importance string

const (
	// ImportanceCore slots must resolve; failure aborts compilation.
	ImportanceCore Importance = "core"
	// ImportanceSupporting slots are dropped with a warning when unresolved.
	ImportanceSupporting Importance = "supporting"
	// ImportanceOptional slots are dropped with a warning when unresolved.
	ImportanceOptional Importance = "optional"
)

// Effective returns the importance with the empty value read as core.
func (i Importance) Effective() Importance {
	if i == "" {
		return ImportanceCore
	}
	return i
}

// MultiSelectStrategy aggregates option scores of a multi-select answer.
type MultiSelectStrategy string

const (
	StrategyMax       MultiSelectStrategy = "max"
	StrategySumCap    MultiSelectStrategy = "sumCap"
	StrategyBinaryAny MultiSelectStrategy = "binaryAny"
)

// Tier is a discretized lead priority bucket.
type Tier string

const (
	TierP0 Tier = "P0"
	TierP1 Tier = "P1"
	TierP2 Tier = "P2"
	TierP3 Tier = "P3"
	TierP4 Tier = "P4"
)

// Tiers lists every tier from highest to lowest priority.
var Tiers = []Tier{TierP0, TierP1, TierP2, TierP3, TierP4}

// DefaultActions is the next-step map used when no pack is active or the pack
// leaves a tier out.
var DefaultActions = map[Tier]string{
	TierP0: "Call within 24 hours and propose an on-site meeting",
	TierP1: "Contact within 3 business days with a tailored proposal",
	TierP2: "Send case studies and invite to a product demo",
	TierP3: "Add to the monthly newsletter nurture track",
	TierP4: "Keep in the general marketing list",
}

// DefaultThresholds are the tier cut-offs used when no pack is active.
var DefaultThresholds = Thresholds{P0: 80, P1: 60, P2: 40, P3: 20}

// Pack is a Guideline Pack document.
type Pack struct {
	Version           string            `json:"version" yaml:"version"`
	ID                string            `json:"id,omitempty" yaml:"id,omitempty"`
	CampaignID        string            `json:"campaignId,omitempty" yaml:"campaignId,omitempty"`
	FormID            string            `json:"formId" yaml:"formId"`
	FormFingerprint   string            `json:"formFingerprint" yaml:"formFingerprint"`
	FormQuestionCount int               `json:"formQuestionCount,omitempty" yaml:"formQuestionCount,omitempty"`
	Status            Status            `json:"status,omitempty" yaml:"status,omitempty"`
	Title             string            `json:"title,omitempty" yaml:"title,omitempty"`
	Objectives        Objectives        `json:"objectives" yaml:"objectives"`
	QuestionMap       []QuestionMapping `json:"questionMap" yaml:"questionMap"`
	CrosstabPlan      CrosstabPlan      `json:"crosstabPlan" yaml:"crosstabPlan"`
	LeadScoring       LeadScoring       `json:"leadScoring" yaml:"leadScoring"`
	CreatedAt         time.Time         `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt         time.Time         `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
	PublishedAt       *time.Time        `json:"publishedAt,omitempty" yaml:"publishedAt,omitempty"`
	ArchivedAt        *time.Time        `json:"archivedAt,omitempty" yaml:"archivedAt,omitempty"`
}

// Objectives are the decisions the analysis is meant to support.
type Objectives struct {
	DecisionQuestions []DecisionQuestion `json:"decisionQuestions,omitempty" yaml:"decisionQuestions,omitempty"`
	// DefaultLens is the report perspective, e.g. "sales" or "marketing".
	DefaultLens string `json:"defaultLens,omitempty" yaml:"defaultLens,omitempty"`
}

// DecisionQuestion is one business question the report should answer.
type DecisionQuestion struct {
	ID       string       `json:"id" yaml:"id"`
	Question string       `json:"question" yaml:"question"`
	Roles    []roles.Role `json:"roles,omitempty" yaml:"roles,omitempty"`
}

// QuestionMapping describes how one logical slot of the form is interpreted.
// At least one of QuestionID, LogicalKey or Role identifies the slot.
type QuestionMapping struct {
	QuestionID          string              `json:"questionId,omitempty" yaml:"questionId,omitempty"`
	LogicalKey          string              `json:"logicalKey,omitempty" yaml:"logicalKey,omitempty"`
	Role                roles.Role          `json:"role,omitempty" yaml:"role,omitempty"`
	Importance          Importance          `json:"importance,omitempty" yaml:"importance,omitempty"`
	OrderNo             int                 `json:"orderNo,omitempty" yaml:"orderNo,omitempty"`
	Label               string              `json:"label,omitempty" yaml:"label,omitempty"`
	OptionScores        []OptionScore       `json:"optionScores,omitempty" yaml:"optionScores,omitempty"`
	Groups              []OptionGroup       `json:"groups,omitempty" yaml:"groups,omitempty"`
	MultiSelectStrategy MultiSelectStrategy `json:"multiSelectStrategy,omitempty" yaml:"multiSelectStrategy,omitempty"`
}

// SlotName returns a stable human-readable name for diagnostics.
func (m QuestionMapping) SlotName() string {
	switch {
	case m.LogicalKey != "":
		return m.LogicalKey
	case m.QuestionID != "":
		return m.QuestionID
	case m.Role != "":
		return string(m.Role)
	default:
		return "(unnamed)"
	}
}

// OptionScore assigns a lead-scoring value to one option, referenced by id
// and/or text.
type OptionScore struct {
	OptionID   string  `json:"optionId,omitempty" yaml:"optionId,omitempty"`
	OptionText string  `json:"optionText,omitempty" yaml:"optionText,omitempty"`
	Score      float64 `json:"score" yaml:"score"`
}

// OptionGroup buckets several options under one reporting label.
type OptionGroup struct {
	Label       string   `json:"label" yaml:"label"`
	OptionIDs   []string `json:"optionIds,omitempty" yaml:"optionIds,omitempty"`
	OptionTexts []string `json:"optionTexts,omitempty" yaml:"optionTexts,omitempty"`
}

// CrosstabPlan selects which role pairs are cross-tabulated.
type CrosstabPlan struct {
	MinCellCount int `json:"minCellCount,omitempty" yaml:"minCellCount,omitempty"`
	TopKRows     int `json:"topKRows,omitempty" yaml:"topKRows,omitempty"`
	TopKCols     int `json:"topKCols,omitempty" yaml:"topKCols,omitempty"`
	// Pinned pairs take priority over Pairs.
	Pinned []CrosstabPair `json:"pinned,omitempty" yaml:"pinned,omitempty"`
	// Pairs is the legacy plan, used when no pinned pair resolves.
	Pairs []CrosstabPair `json:"pairs,omitempty" yaml:"pairs,omitempty"`
}

// CrosstabPair names a row and column slot by role, logical key or id.
type CrosstabPair struct {
	RowRole       roles.Role `json:"rowRole,omitempty" yaml:"rowRole,omitempty"`
	ColRole       roles.Role `json:"colRole,omitempty" yaml:"colRole,omitempty"`
	RowKey        string     `json:"rowKey,omitempty" yaml:"rowKey,omitempty"`
	ColKey        string     `json:"colKey,omitempty" yaml:"colKey,omitempty"`
	RowQuestionID string     `json:"rowQuestionId,omitempty" yaml:"rowQuestionId,omitempty"`
	ColQuestionID string     `json:"colQuestionId,omitempty" yaml:"colQuestionId,omitempty"`
}

// LeadScoring configures the weighted lead score.
type LeadScoring struct {
	Enabled        bool                `json:"enabled" yaml:"enabled"`
	Components     []ScoreComponent    `json:"components,omitempty" yaml:"components,omitempty"`
	TierThresholds Thresholds          `json:"tierThresholds" yaml:"tierThresholds"`
	Actions        map[Tier]string     `json:"actions,omitempty" yaml:"actions,omitempty"`
	Strategy       MultiSelectStrategy `json:"multiSelectStrategy,omitempty" yaml:"multiSelectStrategy,omitempty"`
}

// ScoreComponent weights one role's sub-score.
type ScoreComponent struct {
	Role       roles.Role `json:"role" yaml:"role"`
	LogicalKey string     `json:"logicalKey,omitempty" yaml:"logicalKey,omitempty"`
	QuestionID string     `json:"questionId,omitempty" yaml:"questionId,omitempty"`
	Weight     float64    `json:"weight" yaml:"weight"`
}

// Thresholds are descending score cut-offs; below P3 is P4.
type Thresholds struct {
	P0 float64 `json:"p0" yaml:"p0"`
	P1 float64 `json:"p1" yaml:"p1"`
	P2 float64 `json:"p2" yaml:"p2"`
	P3 float64 `json:"p3" yaml:"p3"`
}

// IsZero reports whether no threshold is set.
func (t Thresholds) IsZero() bool {
	return t == Thresholds{}
}

// Descending reports whether P0 > P1 > P2 > P3.
func (t Thresholds) Descending() bool {
	return t.P0 > t.P1 && t.P1 > t.P2 && t.P2 > t.P3
}

// TierFor assigns a tier by descending threshold comparison.
func (t Thresholds) TierFor(score float64) Tier {
	switch {
	case score >= t.P0:
		return TierP0
	case score >= t.P1:
		return TierP1
	case score >= t.P2:
		return TierP2
	case score >= t.P3:
		return TierP3
	default:
		return TierP4
	}
}

// ActionFor returns the pack's action for a tier, falling back to DefaultActions.
func (l LeadScoring) ActionFor(t Tier) string {
	if a, ok := l.Actions[t]; ok && a != "" {
		return a
	}
	return DefaultActions[t]
}

// Clone returns a deep copy of the pack.
func (p *Pack) Clone() *Pack {
	if p == nil {
		return nil
	}
	// The pack contains only JSON-representable values.
	data, _ := json.Marshal(p)
	var out Pack
	_ = json.Unmarshal(data, &out)
	return &out
}

// MappedRoles returns the distinct roles referenced by the question map.
func (p *Pack) MappedRoles() map[roles.Role]bool {
	out := make(map[roles.Role]bool)
	for _, m := range p.QuestionMap {
		if m.Role != "" {
			out[m.Role] = true
		}
	}
	return out
}
