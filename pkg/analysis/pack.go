package analysis

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"ustudiopd/eventlive/pkg/guideline/compiler"
	"ustudiopd/eventlive/pkg/roles"
	"ustudiopd/eventlive/pkg/survey"
)

// Options controls BuildAnalysisPack.
type Options struct {
	// Now stamps AnalyzedAt. Defaults to time.Now.
	Now func() time.Time
	// NewID generates the pack id. Defaults to a random UUID.
	NewID func() string
	// MinCellCount overrides the guideline's minimum cell count when positive.
	MinCellCount int
}

// VersionError is returned when loading a pack with an unknown version.
type VersionError struct {
	Got string
}

// Error implements the error interface.
func (e *VersionError) Error() string {
	return fmt.Sprintf("unsupported analysis pack version %q (want %q)", e.Got, Version)
}

// channelKeywords identify the preferred-contact-channel question.
var channelKeywords = []string{
	"channel", "contact method", "preferred contact", "how would you like to be contacted",
	"채널", "연락 방법", "연락 수단", "연락 경로",
}

// BuildAnalysisPack computes the digest of one campaign. compiled may be nil,
// in which case the default crosstab pairs and lead-scoring weights apply.
func BuildAnalysisPack(data *survey.CampaignData, compiled *compiler.Compiled, opts Options) *Pack {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	idx := data.Index()
	questions := roles.InferAll(data.Questions)
	sampleCount := len(data.Submissions)
	answerCount := countAnswers(data, idx)

	p := &Pack{
		Version: Version,
		ID:      opts.NewID(),
		Campaign: CampaignMeta{
			CampaignID:      data.CampaignID,
			FormID:          data.FormID,
			FormRevision:    data.FormRevision,
			FormFingerprint: survey.FingerprintQuestions(data.Questions),
			Title:           data.Title,
			SampleCount:     sampleCount,
			QuestionCount:   len(data.Questions),
			AnswerCount:     answerCount,
			AnalyzedAt:      opts.Now().UTC(),
		},
	}
	if compiled != nil {
		p.Campaign.GuidelineID = compiled.PackID
	}

	p.Questions = questionStats(questions, idx, data.Submissions)
	p.Crosstabs = crosstabs(data, questions, idx, compiled, opts.MinCellCount)
	cands := highlightCandidates(p.Crosstabs)

	switch {
	case compiled == nil:
		if ls := DefaultLeadScoring(questions); ls.Enabled {
			p.LeadTiers = ScoreLeads(data.Submissions, idx, data.Questions, ls, "default")
		}
	case compiled.LeadScoring.Enabled:
		p.LeadTiers = ScoreLeads(data.Submissions, idx, data.Questions, compiled.LeadScoring, "guideline")
	}

	p.Channels = channelSummary(p.Questions)
	p.DataQuality = DataQuality(sampleCount, len(data.Questions), answerCount)
	p.Evidence = buildCatalog(p.Questions, cands, p.LeadTiers, p.Channels, p.DataQuality, sampleCount)
	p.Highlights = buildHighlights(cands, p.Evidence)
	return p
}

// countAnswers counts non-empty answers of known submissions to known questions.
func countAnswers(data *survey.CampaignData, idx survey.AnswerIndex) int {
	n := 0
	for _, sub := range data.Submissions {
		for _, q := range data.Questions {
			if _, ok := idx.Get(sub.ID, q.ID); ok {
				n++
			}
		}
	}
	return n
}

func questionStats(questions []roles.QuestionWithRole, idx survey.AnswerIndex, submissions []survey.Submission) []QuestionStat {
	out := make([]QuestionStat, 0, len(questions))
	for _, q := range questions {
		s := QuestionStat{
			QuestionID: q.ID,
			OrderNo:    q.OrderNo,
			Body:       q.Body,
			Type:       q.Type,
			Role:       q.Role,
		}
		counts := make(map[string]int)
		for _, sub := range submissions {
			a, ok := idx.Get(sub.ID, q.ID)
			if !ok {
				continue
			}
			s.Responses++
			for _, id := range a.OptionIDs {
				counts[id]++
			}
		}
		s.ResponseRate = pct(s.Responses, len(submissions))

		if q.Type.IsChoice() {
			for _, o := range q.Options {
				s.Distribution = append(s.Distribution, Share{
					OptionID: o.ID,
					Label:    o.Text,
					Count:    counts[o.ID],
					Pct:      pct(counts[o.ID], s.Responses),
				})
			}
			sort.SliceStable(s.Distribution, func(i, j int) bool {
				return s.Distribution[i].Count > s.Distribution[j].Count
			})
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderNo < out[j].OrderNo })
	return out
}

func crosstabs(data *survey.CampaignData, questions []roles.QuestionWithRole, idx survey.AnswerIndex, compiled *compiler.Compiled, minCell int) []CrosstabTable {
	if minCell <= 0 && compiled != nil {
		minCell = compiled.MinCellCount
	}
	if minCell <= 0 {
		minCell = DefaultMinCellCount
	}

	var out []CrosstabTable
	for _, pair := range SelectPairs(compiled, questions) {
		rq, ok := roles.ByID(questions, pair.RowQuestionID)
		if !ok {
			continue
		}
		cq, ok := roles.ByID(questions, pair.ColQuestionID)
		if !ok {
			continue
		}
		row := Axis{Question: rq.Question, Role: roleOr(pair.RowRole, rq.Role)}
		col := Axis{Question: cq.Question, Role: roleOr(pair.ColRole, cq.Role)}
		if compiled != nil {
			if s, ok := compiled.Slot(rq.ID); ok {
				row.Groups = s.Groups
			}
			if s, ok := compiled.Slot(cq.ID); ok {
				col.Groups = s.Groups
			}
		}

		t := Crosstab(row, col, idx, data.Submissions, minCell)
		if t.GrandTotal == 0 {
			continue
		}
		t.Source = string(pair.Source)
		if compiled != nil {
			t.TopKRows, t.TopKCols = compiled.TopKRows, compiled.TopKCols
		}
		out = append(out, *t)
	}
	return out
}

func roleOr(r, fallback roles.Role) roles.Role {
	if r != "" {
		return r
	}
	return fallback
}

// IsChannelQuestion reports whether a question body asks for a preferred
// contact channel.
func IsChannelQuestion(body string) bool {
	b := strings.ToLower(body)
	for _, kw := range channelKeywords {
		if strings.Contains(b, kw) {
			return true
		}
	}
	return false
}

func channelSummary(stats []QuestionStat) *ChannelSummary {
	for _, s := range stats {
		if !s.Type.IsChoice() || !IsChannelQuestion(s.Body) || s.Responses == 0 {
			continue
		}
		return &ChannelSummary{
			QuestionID:   s.QuestionID,
			Title:        s.Body,
			Responses:    s.Responses,
			Distribution: s.Distribution,
		}
	}
	return nil
}

// Marshal encodes a pack as indented JSON.
func Marshal(p *Pack) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// LoadAnalysisPack decodes a stored pack, rejecting unknown versions.
func LoadAnalysisPack(data []byte) (*Pack, error) {
	var head struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("malformed analysis pack: %w", err)
	}
	if head.Version != Version {
		return nil, &VersionError{Got: head.Version}
	}
	var p Pack
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("malformed analysis pack: %w", err)
	}
	return &p, nil
}

// EvidenceByID returns the evidence item with the given id.
func (p *Pack) EvidenceByID(id string) (EvidenceItem, bool) {
	for _, e := range p.Evidence {
		if e.ID == id {
			return e, true
		}
	}
	return EvidenceItem{}, false
}
