package roles

import (
	"strings"

	"ustudiopd/eventlive/pkg/survey"
)

const (
	bodyWeight   = 3
	optionWeight = 2

	// MinScore is the lowest winning score that yields a heuristic role.
	MinScore = 3
)

// keywords are matched case-insensitively as substrings. Korean entries cover
// the wording used by most webinar registration forms.
var keywords = map[Role][]string{
	Timeline: {
		"when", "timeline", "timeframe", "schedule", "plan to", "adopt", "within",
		"month", "week", "quarter", "시기", "일정", "언제", "도입", "개월", "주 이내",
	},
	ProjectType: {
		"project", "use case", "usecase", "interested in", "solution", "area", "type of",
		"프로젝트", "분야", "관심", "솔루션", "유형",
	},
	FollowupIntent: {
		"follow", "contact", "consult", "meeting", "visit", "demo", "call", "reach",
		"상담", "연락", "방문", "미팅", "데모", "후속",
	},
	BudgetStatus: {
		"budget", "funding", "allocated", "cost", "price", "예산", "비용", "확보",
	},
	AuthorityLevel: {
		"decision", "authority", "approve", "role in", "decision maker", "position",
		"결정", "권한", "승인", "직책", "담당자",
	},
}

// Inference is the outcome of inferring one question's role.
type Inference struct {
	Role   Role
	Source Source
	Scores map[Role]int
	Tie    bool
}

// Infer assigns a role to q. A valid RoleOverride always wins. Otherwise each
// non-other role scores bodyWeight per keyword found in the body and
// optionWeight per keyword found in any option text; the best score at or
// above MinScore wins. A shared top score resolves to Other.
func Infer(q survey.Question) Inference {
	if q.RoleOverride != "" {
		if r, ok := Normalize(q.RoleOverride); ok {
			return Inference{Role: r, Source: SourceOverride}
		}
	}

	body := strings.ToLower(q.Body)
	var optionText strings.Builder
	for _, o := range q.Options {
		optionText.WriteString(strings.ToLower(o.Text))
		optionText.WriteByte('\n')
	}
	opts := optionText.String()

	scores := make(map[Role]int, len(keywords))
	for _, r := range All {
		if r == Other {
			continue
		}
		score := 0
		for _, kw := range keywords[r] {
			if strings.Contains(body, kw) {
				score += bodyWeight
			}
			if opts != "" && strings.Contains(opts, kw) {
				score += optionWeight
			}
		}
		scores[r] = score
	}

	best, bestScore, tie := Other, 0, false
	for _, r := range All {
		s := scores[r]
		switch {
		case s > bestScore:
			best, bestScore, tie = r, s, false
		case s == bestScore && s > 0:
			tie = true
		}
	}

	if bestScore < MinScore {
		return Inference{Role: Other, Source: SourceUnknown, Scores: scores}
	}
	if tie {
		return Inference{Role: Other, Source: SourceUnknown, Scores: scores, Tie: true}
	}
	return Inference{Role: best, Source: SourceHeuristic, Scores: scores}
}

// InferAll annotates every question, preserving input order.
func InferAll(questions []survey.Question) []QuestionWithRole {
	out := make([]QuestionWithRole, len(questions))
	for i, q := range questions {
		inf := Infer(q)
		out[i] = QuestionWithRole{Question: q, Role: inf.Role, RoleSource: inf.Source, Tie: inf.Tie}
	}
	return out
}

// Ties returns the questions whose heuristic scores were tied.
func Ties(qs []QuestionWithRole) []QuestionWithRole {
	var out []QuestionWithRole
	for _, q := range qs {
		if q.Tie {
			out = append(out, q)
		}
	}
	return out
}
