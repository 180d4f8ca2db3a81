package analysis

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/guideline/compiler"
	"ustudiopd/eventlive/pkg/roles"
	"ustudiopd/eventlive/pkg/survey"
)

// Sub-scores range over [-100, 100]; only follow-up intent goes negative.
const (
	scoreMax = 100.0
	scoreMin = -100.0
)

// DefaultComponentWeights are used when no guideline is active.
var DefaultComponentWeights = []struct {
	Role   roles.Role
	Weight float64
}{
	{roles.Timeline, 3},
	{roles.FollowupIntent, 3},
	{roles.BudgetStatus, 2},
	{roles.AuthorityLevel, 2},
}

// DefaultLeadScoring places DefaultComponentWeights on the first question of
// each role.
func DefaultLeadScoring(questions []roles.QuestionWithRole) compiler.LeadScoring {
	ls := compiler.LeadScoring{Thresholds: guideline.DefaultThresholds}
	for _, dc := range DefaultComponentWeights {
		q, ok := firstChoiceWithRole(questions, dc.Role)
		if !ok {
			continue
		}
		ls.Components = append(ls.Components, compiler.Component{
			Role:       dc.Role,
			QuestionID: q.ID,
			Weight:     dc.Weight,
			Strategy:   guideline.StrategyMax,
		})
	}
	ls.Enabled = len(ls.Components) > 0
	return ls
}

type keywordScore struct {
	words []string
	score float64
}

// Keyword tables are checked in order; the first hit decides. Negative and
// empty answers come first so "not interested" never scores as "interested".
var keywordScores = map[roles.Role][]keywordScore{
	roles.Timeline: {
		{[]string{"no plan", "not plan", "undecided", "계획 없", "미정", "없음"}, 0},
		{[]string{"immediately", "this week", "week", "즉시", "1주", "이번 주"}, 100},
		{[]string{"1 month", "one month", "a month", "this month", "1개월", "한 달", "이번 달"}, 70},
		{[]string{"quarter", "3 month", "three month", "3개월", "분기"}, 50},
		{[]string{"6 month", "six month", "half", "6개월", "반기"}, 30},
		{[]string{"year", "1년", "내년"}, 15},
	},
	roles.FollowupIntent: {
		{[]string{"not interested", "no interest", "do not contact", "관심 없", "연락 불필요"}, -100},
		{[]string{"none", "no need", "not now", "없음", "필요 없"}, 0},
		{[]string{"visit", "meeting", "demo", "방문", "미팅", "데모"}, 100},
		{[]string{"call", "phone", "consult", "contact", "전화", "상담", "연락"}, 80},
		{[]string{"email", "information", "material", "brochure", "자료", "이메일"}, 40},
	},
	roles.BudgetStatus: {
		{[]string{"not yet", "not allocated", "none", "no budget", "미확보", "없음", "미정"}, 0},
		{[]string{"yes", "allocated", "secured", "approved", "확보", "있음"}, 100},
		{[]string{"planning", "in progress", "review", "검토", "예정"}, 50},
	},
	roles.AuthorityLevel: {
		{[]string{"decision maker", "final", "owner", "ceo", "director", "executive", "결정권", "대표", "임원"}, 100},
		{[]string{"influenc", "recommend", "manager", "lead", "영향", "추천", "팀장"}, 60},
		{[]string{"end user", "user", "staff", "실무", "사용자"}, 20},
	},
}

// reasonBars are the per-role sub-score bars that produce a reason.
var reasonBars = map[roles.Role]struct {
	bar    float64
	reason string
}{
	roles.Timeline:       {70, "Plans to adopt within a month"},
	roles.FollowupIntent: {80, "Asked for a direct follow-up"},
	roles.BudgetStatus:   {100, "Budget is secured"},
	roles.AuthorityLevel: {60, "Takes part in the purchase decision"},
}

// KeywordScore scores one answer text for a role. Roles without a keyword
// table score 50 for any non-empty answer.
func KeywordScore(r roles.Role, text string) float64 {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0
	}
	table, ok := keywordScores[r]
	if !ok {
		return 50
	}
	if text == "no" || text == "아니오" {
		return 0
	}
	for _, ks := range table {
		for _, w := range ks.words {
			if containsKeyword(text, w) {
				return ks.score
			}
		}
	}
	return 0
}

// containsKeyword reports whether w occurs in text starting at a word
// boundary, so "1 month" does not hit "11 months" and "half" does not hit
// "behalf". The end of the match is left open for plurals and stems
// ("influenc"). Keywords that start with a Hangul syllable match anywhere,
// since particles and compounds attach without spaces.
func containsKeyword(text, w string) bool {
	first, _ := utf8.DecodeRuneInString(w)
	if !isASCIIWordRune(first) {
		return strings.Contains(text, w)
	}
	for off := 0; off <= len(text)-len(w); {
		i := strings.Index(text[off:], w)
		if i < 0 {
			return false
		}
		at := off + i
		prev, _ := utf8.DecodeLastRuneInString(text[:at])
		if at == 0 || !isASCIIWordRune(prev) {
			return true
		}
		off = at + 1
	}
	return false
}

func isASCIIWordRune(r rune) bool {
	return r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// aggregate combines per-option scores of one answer.
func aggregate(scores []float64, strategy guideline.MultiSelectStrategy) float64 {
	if len(scores) == 0 {
		return 0
	}
	switch strategy {
	case guideline.StrategySumCap:
		sum := 0.0
		for _, s := range scores {
			sum += s
		}
		return math.Max(scoreMin, math.Min(scoreMax, sum))
	case guideline.StrategyBinaryAny:
		for _, s := range scores {
			if s > 0 {
				return scoreMax
			}
		}
		return 0
	default:
		best := scores[0]
		for _, s := range scores[1:] {
			if s > best {
				best = s
			}
		}
		return best
	}
}

// componentScore scores one submission's answer for one component. Option
// scores from the guideline are used when any selected option has one;
// otherwise each selected option is scored by keyword.
func componentScore(c compiler.Component, q survey.Question, a survey.Answer, ok bool) float64 {
	if !ok {
		return 0
	}
	if len(a.OptionIDs) == 0 {
		return KeywordScore(c.Role, a.Text)
	}

	if len(c.OptionScores) > 0 {
		var scored []float64
		for _, id := range a.OptionIDs {
			if s, ok := c.OptionScores[id]; ok {
				scored = append(scored, s)
			}
		}
		if len(scored) > 0 {
			return aggregate(scored, c.Strategy)
		}
	}

	scored := make([]float64, 0, len(a.OptionIDs))
	for _, id := range a.OptionIDs {
		text := id
		if o, ok := q.OptionByID(id); ok {
			text = o.Text
		}
		scored = append(scored, KeywordScore(c.Role, text))
	}
	return aggregate(scored, c.Strategy)
}

// ScoreLead scores one submission. The weighted mean of the sub-scores is
// clamped to [0, 100] and tiered by the scoring thresholds.
func ScoreLead(submissionID string, idx survey.AnswerIndex, questions map[string]survey.Question, scoring compiler.LeadScoring) LeadRecord {
	rec := LeadRecord{SubmissionID: submissionID}

	var weighted, totalWeight float64
	for _, c := range scoring.Components {
		a, ok := idx.Get(submissionID, c.QuestionID)
		s := componentScore(c, questions[c.QuestionID], a, ok)
		rec.SubScores = append(rec.SubScores, SubScore{Role: c.Role, QuestionID: c.QuestionID, Weight: c.Weight, Score: s})
		weighted += c.Weight * s
		totalWeight += c.Weight

		if bar, ok := reasonBars[c.Role]; ok && s >= bar.bar {
			rec.Reasons = append(rec.Reasons, bar.reason)
		}
		if c.Role == roles.FollowupIntent && s < 0 {
			rec.Reasons = append(rec.Reasons, "Declined follow-up")
		}
	}

	if totalWeight > 0 {
		rec.Score = math.Max(0, math.Min(scoreMax, weighted/totalWeight))
	}
	rec.Score = math.Round(rec.Score*10) / 10

	thresholds := scoring.Thresholds
	if thresholds.IsZero() {
		thresholds = guideline.DefaultThresholds
	}
	rec.Tier = thresholds.TierFor(rec.Score)
	rec.NextAction = scoring.ActionFor(rec.Tier)
	return rec
}

// ScoreLeads scores every submission and builds the tier distribution.
func ScoreLeads(submissions []survey.Submission, idx survey.AnswerIndex, questions []survey.Question, scoring compiler.LeadScoring, source string) *LeadSummary {
	byID := make(map[string]survey.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	sum := &LeadSummary{Total: len(submissions), Source: source}
	counts := make(map[guideline.Tier]int)
	for _, sub := range submissions {
		rec := ScoreLead(sub.ID, idx, byID, scoring)
		counts[rec.Tier]++
		sum.Leads = append(sum.Leads, rec)
	}
	sum.Distribution = TierDistribution(counts, sum.Total, scoring)
	return sum
}

// TierDistribution derives percentages from counts for every tier.
func TierDistribution(counts map[guideline.Tier]int, total int, scoring compiler.LeadScoring) []TierShare {
	out := make([]TierShare, 0, len(guideline.Tiers))
	for _, t := range guideline.Tiers {
		share := TierShare{Tier: t, Count: counts[t], Action: scoring.ActionFor(t)}
		if total > 0 {
			share.Pct = pct(counts[t], total)
		}
		out = append(out, share)
	}
	return out
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
