package survey

import (
	"strings"
	"time"
)

// QuestionType is the answer shape of a question.
type QuestionType string

const (
	// TypeSingle is a single-choice question.
	TypeSingle QuestionType = "single"
	// TypeMultiple is a multiple-choice question.
	TypeMultiple QuestionType = "multiple"
	// TypeText is a free-text question.
	TypeText QuestionType = "text"
)

// ParseQuestionType maps the spellings seen in stored forms to a QuestionType.
func ParseQuestionType(s string) (QuestionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "single_choice", "radio":
		return TypeSingle, true
	case "multiple", "multiple_choice", "multi", "checkbox":
		return TypeMultiple, true
	case "text", "free_text", "textarea":
		return TypeText, true
	default:
		return "", false
	}
}

// IsChoice reports whether the type carries options.
func (t QuestionType) IsChoice() bool {
	return t == TypeSingle || t == TypeMultiple
}

// Option is one selectable choice of a question.
type Option struct {
	ID   string `json:"id" yaml:"id" bson:"id"`
	Text string `json:"text" yaml:"text" bson:"text"`
}

// Question is a normalized form question.
type Question struct {
	ID           string       `json:"id"`
	OrderNo      int          `json:"orderNo"`
	Body         string       `json:"body"`
	Type         QuestionType `json:"type"`
	Options      []Option     `json:"options,omitempty"`
	RoleOverride string       `json:"roleOverride,omitempty"`
}

// OptionByID returns the option with the given id.
func (q Question) OptionByID(id string) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// OptionByText returns the first option whose trimmed text equals text,
// compared case-insensitively.
func (q Question) OptionByText(text string) (Option, bool) {
	want := strings.ToLower(strings.TrimSpace(text))
	for _, o := range q.Options {
		if strings.ToLower(strings.TrimSpace(o.Text)) == want {
			return o, true
		}
	}
	return Option{}, false
}

// Answer is one respondent's answer to one question.
// Choice answers carry OptionIDs in selection order; text answers carry Text.
type Answer struct {
	SubmissionID string   `json:"submissionId" bson:"submission_id"`
	QuestionID   string   `json:"questionId" bson:"question_id"`
	OptionIDs    []string `json:"optionIds,omitempty" bson:"option_ids,omitempty"`
	Text         string   `json:"text,omitempty" bson:"text,omitempty"`
}

// FirstChoice returns the first selected option id.
func (a Answer) FirstChoice() (string, bool) {
	if len(a.OptionIDs) == 0 || a.OptionIDs[0] == "" {
		return "", false
	}
	return a.OptionIDs[0], true
}

// IsEmpty reports whether the answer carries no choice and no text.
func (a Answer) IsEmpty() bool {
	return len(a.OptionIDs) == 0 && strings.TrimSpace(a.Text) == ""
}

// Submission is one respondent's completed form.
type Submission struct {
	ID          string    `json:"id" bson:"_id"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submitted_at"`
}

// CampaignData is the read-only snapshot of a campaign's form and answers.
type CampaignData struct {
	CampaignID   string       `json:"campaignId"`
	FormID       string       `json:"formId"`
	FormRevision string       `json:"formRevision"`
	Title        string       `json:"title,omitempty"`
	Questions    []Question   `json:"questions"`
	Answers      []Answer     `json:"answers"`
	Submissions  []Submission `json:"submissions"`
}

// AnswerIndex maps submission id to question id to answer.
type AnswerIndex map[string]map[string]Answer

// Index builds the lookup used by the metrics engine. Empty answers are
// skipped; a later answer for the same slot replaces an earlier one.
func (d *CampaignData) Index() AnswerIndex {
	idx := make(AnswerIndex, len(d.Submissions))
	for _, a := range d.Answers {
		if a.IsEmpty() {
			continue
		}
		bySub, ok := idx[a.SubmissionID]
		if !ok {
			bySub = make(map[string]Answer)
			idx[a.SubmissionID] = bySub
		}
		bySub[a.QuestionID] = a
	}
	return idx
}

// Get returns the answer of a submission to a question.
func (idx AnswerIndex) Get(submissionID, questionID string) (Answer, bool) {
	a, ok := idx[submissionID][questionID]
	return a, ok
}

// QuestionByID returns the question with the given id.
func (d *CampaignData) QuestionByID(id string) (Question, bool) {
	for _, q := range d.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Blueprint returns the normalized blueprint of the campaign's form.
func (d *CampaignData) Blueprint() Blueprint {
	return NewBlueprint(d.FormID, d.Questions)
}
