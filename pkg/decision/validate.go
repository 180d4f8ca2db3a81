package decision

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseError is returned when generator output is not a JSON document.
type ParseError struct {
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("decision pack is not valid JSON: %v", e.Cause)
}

// Unwrap returns the decoder error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

var fence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// Parse extracts and decodes the JSON document in model output. Markdown
// code fences and text around the outermost object are ignored.
func Parse(text string) (*Pack, error) {
	body := strings.TrimSpace(text)
	if m := fence.FindStringSubmatch(body); m != nil {
		body = strings.TrimSpace(m[1])
	}
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return nil, &ParseError{Cause: fmt.Errorf("no JSON object in output")}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body[start : end+1])))
	dec.DisallowUnknownFields()
	var p Pack
	if err := dec.Decode(&p); err != nil {
		return nil, &ParseError{Cause: err}
	}
	return &p, nil
}

var evidenceID = regexp.MustCompile(`^E[1-9][0-9]*$`)

// Validate returns the schema violations of a pack as plain sentences
// suitable for feeding back to the generator. An empty slice means valid.
func Validate(p *Pack) []string {
	if p == nil {
		return []string{"document is empty"}
	}

	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if p.Version != Version {
		add("version must be %q, got %q", Version, p.Version)
	}
	if strings.TrimSpace(p.Summary) == "" {
		add("summary must not be empty")
	}
	if len(p.Cards) == 0 {
		add("cards must contain at least one recommendation")
	}

	seen := make(map[string]bool)
	for i, c := range p.Cards {
		path := fmt.Sprintf("cards[%d]", i)
		if c.ID == "" {
			add("%s.id must not be empty", path)
		} else if seen[c.ID] {
			add("%s.id %q is duplicated", path, c.ID)
		}
		seen[c.ID] = true
		if strings.TrimSpace(c.Title) == "" {
			add("%s.title must not be empty", path)
		}
		if strings.TrimSpace(c.Recommendation) == "" {
			add("%s.recommendation must not be empty", path)
		}
		switch c.Priority {
		case PriorityHigh, PriorityMedium, PriorityLow:
		default:
			add("%s.priority must be one of high, medium, low; got %q", path, c.Priority)
		}
		if len(c.EvidenceIDs) < 2 {
			add("%s.evidenceIds must cite at least 2 evidence ids", path)
		}
		for _, id := range c.EvidenceIDs {
			if !evidenceID.MatchString(id) {
				add("%s.evidenceIds contains %q, which is not an evidence id like E1", path, id)
			}
		}
	}

	total := 0
	for _, h := range Horizons {
		items := *p.ActionBoard.Column(h)
		total += len(items)
		for i, it := range items {
			if strings.TrimSpace(it.Action) == "" {
				add("actionBoard.%s[%d].action must not be empty", h, i)
			}
			if it.TargetCount < 0 {
				add("actionBoard.%s[%d].targetCount must not be negative", h, i)
			}
		}
	}
	if total == 0 {
		add("actionBoard must contain at least one action")
	}

	for i, tc := range p.LeadTiers {
		if tc.Count < 0 {
			add("leadTiers[%d].count must not be negative", i)
		}
	}
	return errs
}
