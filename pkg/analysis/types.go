package analysis

import (
	"time"

	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/roles"
	"ustudiopd/eventlive/pkg/survey"
)

// Version is the analysis pack document version.
const Version = "ap-1.0"

// Pack is the analysis digest of one campaign.
type Pack struct {
	Version     string           `json:"version"`
	ID          string           `json:"id"`
	Campaign    CampaignMeta     `json:"campaign"`
	Questions   []QuestionStat   `json:"questions"`
	Crosstabs   []CrosstabTable  `json:"crosstabs"`
	Evidence    []EvidenceItem   `json:"evidence"`
	Highlights  []Highlight      `json:"highlights"`
	DataQuality []QualityMessage `json:"dataQuality"`
	LeadTiers   *LeadSummary     `json:"leadTiers,omitempty"`
	Channels    *ChannelSummary  `json:"channels,omitempty"`
}

// CampaignMeta describes the analyzed data set.
type CampaignMeta struct {
	CampaignID      string    `json:"campaignId"`
	FormID          string    `json:"formId"`
	FormRevision    string    `json:"formRevision,omitempty"`
	FormFingerprint string    `json:"formFingerprint"`
	Title           string    `json:"title,omitempty"`
	SampleCount     int       `json:"sampleCount"`
	QuestionCount   int       `json:"questionCount"`
	AnswerCount     int       `json:"answerCount"`
	AnalyzedAt      time.Time `json:"analyzedAt"`
	GuidelineID     string    `json:"guidelineId,omitempty"`
}

// Share is one option's slice of a distribution.
type Share struct {
	OptionID string  `json:"optionId"`
	Label    string  `json:"label"`
	Count    int     `json:"count"`
	Pct      float64 `json:"pct"`
}

// QuestionStat summarizes the answers to one question.
type QuestionStat struct {
	QuestionID   string              `json:"questionId"`
	OrderNo      int                 `json:"orderNo"`
	Body         string              `json:"body"`
	Type         survey.QuestionType `json:"type"`
	Role         roles.Role          `json:"role"`
	Responses    int                 `json:"responses"`
	ResponseRate float64             `json:"responseRate"`
	// Distribution counts each selected option; multi-select answers count
	// once per selected option, so percentages may sum past 100.
	Distribution []Share `json:"distribution,omitempty"`
}

// TopChoice returns the most selected option.
func (s QuestionStat) TopChoice() (Share, bool) {
	if len(s.Distribution) == 0 || s.Distribution[0].Count == 0 {
		return Share{}, false
	}
	return s.Distribution[0], true
}

// Category is one row or column of a crosstab.
type Category struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Total int    `json:"total"`
}

// Cell is one non-empty crosstab cell.
type Cell struct {
	RowKey    string  `json:"rowKey"`
	ColKey    string  `json:"colKey"`
	RowLabel  string  `json:"rowLabel"`
	ColLabel  string  `json:"colLabel"`
	Count     int     `json:"count"`
	RowPct    float64 `json:"rowPct"`
	ColPct    float64 `json:"colPct"`
	Lift      float64 `json:"lift"`
	LowSample bool    `json:"lowSample"`
}

// CrosstabTable is the cross-tabulation of two questions.
type CrosstabTable struct {
	RowQuestionID string     `json:"rowQuestionId"`
	ColQuestionID string     `json:"colQuestionId"`
	RowTitle      string     `json:"rowTitle"`
	ColTitle      string     `json:"colTitle"`
	RowRole       roles.Role `json:"rowRole,omitempty"`
	ColRole       roles.Role `json:"colRole,omitempty"`
	Source        string     `json:"source,omitempty"`
	GrandTotal    int        `json:"grandTotal"`
	MinCellCount  int        `json:"minCellCount"`
	// TopKRows and TopKCols limit how many rows and columns are shown.
	// Rows, Cols and Cells always hold the full table.
	TopKRows int        `json:"topKRows,omitempty"`
	TopKCols int        `json:"topKCols,omitempty"`
	Rows     []Category `json:"rows"`
	Cols     []Category `json:"cols"`
	Cells    []Cell     `json:"cells"`
}

// MetricKind classifies an evidence item.
type MetricKind string

const (
	MetricDistribution MetricKind = "distribution"
	MetricCrosstab     MetricKind = "crosstab"
	MetricLeadTier     MetricKind = "lead_tier"
	MetricChannel      MetricKind = "channel"
	MetricDataQuality  MetricKind = "data_quality"
)

// EvidenceItem is one citable number.
type EvidenceItem struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Kind       MetricKind `json:"metricKind"`
	ValueText  string     `json:"valueText"`
	Count      int        `json:"count"`
	Value      float64    `json:"value"`
	SampleSize int        `json:"sampleSize"`
	Source     string     `json:"source"`
	Notes      string     `json:"notes,omitempty"`
}

// Confidence labels how far a highlight can be trusted.
type Confidence string

const (
	Confirmed   Confidence = "Confirmed"
	Directional Confidence = "Directional"
	Hypothesis  Confidence = "Hypothesis"
)

// Highlight is a notable crosstab cell stated in plain language.
type Highlight struct {
	Statement     string     `json:"statement"`
	EvidenceIDs   []string   `json:"evidenceIds"`
	Confidence    Confidence `json:"confidence"`
	RowQuestionID string     `json:"rowQuestionId"`
	ColQuestionID string     `json:"colQuestionId"`
	RowLabel      string     `json:"rowLabel"`
	ColLabel      string     `json:"colLabel"`
	Count         int        `json:"count"`
	Lift          float64    `json:"lift"`
}

// QualityLevel is the severity of a data-quality message.
type QualityLevel string

const (
	QualityInfo    QualityLevel = "info"
	QualityWarning QualityLevel = "warning"
)

// QualityMessage is one data-quality note.
type QualityMessage struct {
	Level   QualityLevel `json:"level"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
}

// SubScore is one component's contribution to a lead score.
type SubScore struct {
	Role       roles.Role `json:"role"`
	QuestionID string     `json:"questionId"`
	Weight     float64    `json:"weight"`
	Score      float64    `json:"score"`
}

// LeadRecord is the scored lead of one submission.
type LeadRecord struct {
	SubmissionID string         `json:"submissionId"`
	Score        float64        `json:"score"`
	Tier         guideline.Tier `json:"tier"`
	SubScores    []SubScore     `json:"subScores"`
	Reasons      []string       `json:"reasons,omitempty"`
	NextAction   string         `json:"nextAction"`
}

// TierShare is one tier's slice of the lead distribution.
type TierShare struct {
	Tier   guideline.Tier `json:"tier"`
	Count  int            `json:"count"`
	Pct    float64        `json:"pct"`
	Action string         `json:"action"`
}

// LeadSummary is the lead-tier distribution. Counts always sum to Total.
type LeadSummary struct {
	Total        int          `json:"total"`
	Distribution []TierShare  `json:"distribution"`
	Leads        []LeadRecord `json:"leads"`
	// Source is "guideline" or "default".
	Source string `json:"source"`
}

// ChannelSummary is the distribution of preferred contact channels.
type ChannelSummary struct {
	QuestionID   string  `json:"questionId"`
	Title        string  `json:"title"`
	Responses    int     `json:"responses"`
	Distribution []Share `json:"distribution"`
}
