package survey

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// Blueprint is the canonical, ordered question structure of one form.
// Build it with NewBlueprint; the zero value is an empty form.
type Blueprint struct {
	FormID    string
	Questions []Question
}

// NewBlueprint copies and normalizes questions: sorted by OrderNo (ties by ID),
// bodies trimmed, options sorted by ID. The input slice is not modified.
func NewBlueprint(formID string, questions []Question) Blueprint {
	qs := make([]Question, len(questions))
	for i, q := range questions {
		q.Body = strings.TrimSpace(q.Body)
		opts := append([]Option(nil), q.Options...)
		sort.SliceStable(opts, func(a, b int) bool { return opts[a].ID < opts[b].ID })
		q.Options = opts
		qs[i] = q
	}
	sort.SliceStable(qs, func(a, b int) bool {
		if qs[a].OrderNo != qs[b].OrderNo {
			return qs[a].OrderNo < qs[b].OrderNo
		}
		return qs[a].ID < qs[b].ID
	})
	return Blueprint{FormID: formID, Questions: qs}
}

// Len returns the number of questions.
func (b Blueprint) Len() int {
	return len(b.Questions)
}

// canonicalQuestion fixes the serialized field order. RoleOverride is left out:
// it changes interpretation, not structure.
type canonicalQuestion struct {
	ID      string            `json:"i"`
	OrderNo int               `json:"n"`
	Type    QuestionType      `json:"t"`
	Body    string            `json:"b"`
	Options []canonicalOption `json:"o"`
}

type canonicalOption struct {
	ID   string `json:"i"`
	Text string `json:"t"`
}

// Canonical returns the whitespace-free serialization that Fingerprint hashes.
func (b Blueprint) Canonical() []byte {
	norm := NewBlueprint(b.FormID, b.Questions)
	out := make([]canonicalQuestion, len(norm.Questions))
	for i, q := range norm.Questions {
		opts := make([]canonicalOption, len(q.Options))
		for j, o := range q.Options {
			opts[j] = canonicalOption{ID: o.ID, Text: o.Text}
		}
		out[i] = canonicalQuestion{ID: q.ID, OrderNo: q.OrderNo, Type: q.Type, Body: q.Body, Options: opts}
	}

	// Marshal of plain structs, strings and ints cannot fail.
	data, _ := json.Marshal(out)
	return data
}

// Fingerprint returns the hex-encoded SHA-256 of the blueprint's canonical form.
func Fingerprint(b Blueprint) string {
	sum := sha256.Sum256(b.Canonical())
	return hex.EncodeToString(sum[:])
}

// FingerprintQuestions is shorthand for Fingerprint(NewBlueprint("", qs)).
func FingerprintQuestions(qs []Question) string {
	return Fingerprint(NewBlueprint("", qs))
}
