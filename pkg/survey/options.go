package survey

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// OptionParseError is returned when a raw options value cannot be normalized.
type OptionParseError struct {
	// Index is the offending element, or -1 when the whole value is unusable.
	Index  int
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *OptionParseError) Error() string {
	msg := e.Reason
	if e.Index >= 0 {
		msg = fmt.Sprintf("option %d: %s", e.Index, e.Reason)
	}
	if e.Cause != nil {
		return fmt.Sprintf("invalid options: %s: %v", msg, e.Cause)
	}
	return "invalid options: " + msg
}

// Unwrap returns the underlying cause.
func (e *OptionParseError) Unwrap() error {
	return e.Cause
}

// NormalizeOptions converts every options shape found in stored forms into an
// ordered []Option. Accepted shapes:
//
//   - nil or an empty string: no options
//   - []Option
//   - a JSON-encoded array string, decoded then normalized
//   - a newline-separated string, one option per non-empty line
//   - []string, or []any of strings; the text doubles as the id
//   - []any or []map[string]any of objects with "id"/"value" and "text"/"label"
//
// Any other shape, an element without usable text, or a duplicate id yields an
// *OptionParseError. Input order is preserved.
func NormalizeOptions(raw any) ([]Option, error) {
	var out []Option
	var err error

	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []Option:
		out = append([]Option(nil), v...)
	case string:
		out, err = normalizeString(v)
	case []string:
		out = make([]Option, 0, len(v))
		for i, s := range v {
			opt, perr := optionFromText(i, s)
			if perr != nil {
				return nil, perr
			}
			out = append(out, opt)
		}
	case []map[string]any:
		out = make([]Option, 0, len(v))
		for i, m := range v {
			opt, perr := optionFromMap(i, m)
			if perr != nil {
				return nil, perr
			}
			out = append(out, opt)
		}
	case []any:
		out, err = normalizeSlice(v)
	default:
		return nil, &OptionParseError{Index: -1, Reason: fmt.Sprintf("unsupported type %T", raw)}
	}
	if err != nil {
		return nil, err
	}

	return out, checkDuplicates(out)
}

func normalizeString(s string) ([]Option, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if strings.HasPrefix(s, "[") {
		var decoded []any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, &OptionParseError{Index: -1, Reason: "malformed JSON array", Cause: err}
		}
		return normalizeSlice(decoded)
	}

	var out []Option
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, Option{ID: line, Text: line})
	}
	return out, nil
}

func normalizeSlice(items []any) ([]Option, error) {
	out := make([]Option, 0, len(items))
	for i, item := range items {
		var opt Option
		var err error
		switch v := item.(type) {
		case string:
			opt, err = optionFromText(i, v)
		case map[string]any:
			opt, err = optionFromMap(i, v)
		case float64:
			text := strconv.FormatFloat(v, 'f', -1, 64)
			opt = Option{ID: text, Text: text}
		default:
			err = &OptionParseError{Index: i, Reason: fmt.Sprintf("unsupported element type %T", item)}
		}
		if err != nil {
			return nil, err
		}
		out = append(out, opt)
	}
	return out, nil
}

func optionFromText(i int, s string) (Option, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Option{}, &OptionParseError{Index: i, Reason: "empty option text"}
	}
	return Option{ID: s, Text: s}, nil
}

func optionFromMap(i int, m map[string]any) (Option, error) {
	text := firstString(m, "text", "label", "name")
	id := firstString(m, "id", "value", "key")
	if text == "" && id == "" {
		return Option{}, &OptionParseError{Index: i, Reason: "object has neither id nor text"}
	}
	if text == "" {
		text = id
	}
	if id == "" {
		id = text
	}
	return Option{ID: id, Text: text}, nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func checkDuplicates(opts []Option) error {
	seen := make(map[string]bool, len(opts))
	for i, o := range opts {
		if seen[o.ID] {
			return &OptionParseError{Index: i, Reason: fmt.Sprintf("duplicate option id %q", o.ID)}
		}
		seen[o.ID] = true
	}
	return nil
}

// RawQuestion is a question as read from storage, before normalization.
type RawQuestion struct {
	ID           string `json:"id" bson:"_id"`
	OrderNo      int    `json:"orderNo" bson:"order_no"`
	Body         string `json:"body" bson:"body"`
	Type         string `json:"type" bson:"type"`
	Options      any    `json:"options,omitempty" bson:"options,omitempty"`
	RoleOverride string `json:"roleOverride,omitempty" bson:"role_override,omitempty"`
}

// ParseQuestion normalizes a stored question. Options of text questions are
// discarded.
func ParseQuestion(raw RawQuestion) (Question, error) {
	if strings.TrimSpace(raw.ID) == "" {
		return Question{}, fmt.Errorf("question at order %d has no id", raw.OrderNo)
	}

	qt, ok := ParseQuestionType(raw.Type)
	if !ok {
		return Question{}, fmt.Errorf("question %s: unknown type %q", raw.ID, raw.Type)
	}

	q := Question{
		ID:           raw.ID,
		OrderNo:      raw.OrderNo,
		Body:         strings.TrimSpace(raw.Body),
		Type:         qt,
		RoleOverride: strings.TrimSpace(raw.RoleOverride),
	}
	if !qt.IsChoice() {
		return q, nil
	}

	opts, err := NormalizeOptions(raw.Options)
	if err != nil {
		return Question{}, fmt.Errorf("question %s: %w", raw.ID, err)
	}
	q.Options = opts
	return q, nil
}

// ParseQuestions normalizes a batch, stopping at the first failure.
func ParseQuestions(raws []RawQuestion) ([]Question, error) {
	out := make([]Question, 0, len(raws))
	for _, r := range raws {
		q, err := ParseQuestion(r)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}
