// Package reconciler remaps a guideline pack onto a form whose structure has
// drifted since the pack was authored.
//
// Each anchored slot (one that names a question id) is matched to a current
// question by id, then by position, then by role near its old position. A
// position match also needs the roles to agree when the slot names one, so a
// reordered form never pairs a timeline slot with a budget question. A
// slot that matches nothing is forced onto the nearest unclaimed question so
// later stages always see a mapping. Every degraded match lowers the
// confidence score:
//
//	question count changed   -0.3
//	position match           -0.1 per slot
//	role match               -0.2 per slot
//	no match                 -0.5 per slot
//
// When fewer than half of the anchored slots match, the result reports that
// the pack cannot be reconciled and a fresh pack should be generated.
package reconciler

import (
	"fmt"

	"ustudiopd/eventlive/pkg/guideline"
	gpErrors "ustudiopd/eventlive/pkg/guideline/errors"
	"ustudiopd/eventlive/pkg/roles"
	"ustudiopd/eventlive/pkg/survey"
)

const (
	PenaltyCountMismatch = 0.3
	PenaltyPosition      = 0.1
	PenaltyRole          = 0.2
	PenaltyNoMatch       = 0.5

	// MinMatchRatio is the matched-slot ratio below which reconciliation is refused.
	MinMatchRatio = 0.5
)

// MatchKind records how a slot was matched.
type MatchKind string

const (
	MatchID       MatchKind = "id"
	MatchPosition MatchKind = "position"
	MatchRole     MatchKind = "role"
	MatchFallback MatchKind = "fallback"
)

// Match is the remapping of one slot.
type Match struct {
	Slot           string    `json:"slot"`
	FromQuestionID string    `json:"fromQuestionId"`
	ToQuestionID   string    `json:"toQuestionId"`
	Kind           MatchKind `json:"kind"`
}

// Result is the outcome of Reconcile. Reconciled is set only when
// CanReconcile is true.
type Result struct {
	CanReconcile bool              `json:"canReconcile"`
	Confidence   float64           `json:"confidence"`
	MatchRatio   float64           `json:"matchRatio"`
	Matches      []Match           `json:"matches"`
	Warnings     []*gpErrors.Error `json:"warnings"`
	Reconciled   *guideline.Pack   `json:"reconciled,omitempty"`
}

type reconciler struct {
	pack      *guideline.Pack
	questions []roles.QuestionWithRole
	claimed   map[string]bool
	diags     *gpErrors.List
}

// Reconcile remaps pack onto the current questions. A pack whose fingerprint
// already matches is returned unchanged with confidence 1.
func Reconcile(pack *guideline.Pack, currentFingerprint string, questions []roles.QuestionWithRole) *Result {
	if pack == nil {
		return &Result{}
	}
	if pack.FormFingerprint == currentFingerprint {
		return &Result{CanReconcile: true, Confidence: 1, MatchRatio: 1, Reconciled: pack}
	}

	r := &reconciler{
		pack:      pack.Clone(),
		questions: questions,
		claimed:   make(map[string]bool),
		diags:     gpErrors.NewList(),
	}
	guideline.NormalizeRoles(r.pack)

	confidence := 1.0
	expected := r.pack.FormQuestionCount
	if expected == 0 {
		expected = len(r.pack.QuestionMap)
	}
	if expected != len(questions) {
		confidence -= PenaltyCountMismatch
		r.diags.Add(gpErrors.Warn(gpErrors.TypeReconcile, gpErrors.CodeReconcileCountMismatch, "formQuestionCount",
			fmt.Sprintf("Form had %d questions when the pack was authored, now has %d", expected, len(questions))))
	}

	matches := r.matchSlots()
	anchored, matched := 0, 0
	for _, m := range matches {
		anchored++
		switch m.Kind {
		case MatchID:
			matched++
		case MatchPosition:
			matched++
			confidence -= PenaltyPosition
		case MatchRole:
			matched++
			confidence -= PenaltyRole
		case MatchFallback:
			confidence -= PenaltyNoMatch
		}
	}

	res := &Result{
		Confidence: clamp(confidence),
		MatchRatio: 1,
		Matches:    matches,
	}
	if anchored > 0 {
		res.MatchRatio = float64(matched) / float64(anchored)
	}

	if res.MatchRatio < MinMatchRatio {
		r.diags.Add(gpErrors.Warn(gpErrors.TypeReconcile, gpErrors.CodeReconcileLowRatio, "questionMap",
			fmt.Sprintf("Only %d of %d slots matched; regenerate the guideline pack", matched, anchored)))
		res.Warnings = r.diags.Warnings()
		return res
	}

	r.apply(matches, currentFingerprint)
	res.CanReconcile = true
	res.Reconciled = r.pack
	res.Warnings = r.diags.Warnings()
	return res
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// matchSlots runs each tier over all anchored slots before moving to the
// next tier, so exact matches claim their questions first. The returned
// slice is indexed like the anchored slots in question-map order.
func (r *reconciler) matchSlots() []Match {
	type pending struct {
		index int
		m     guideline.QuestionMapping
	}
	var slots []pending
	for i, m := range r.pack.QuestionMap {
		if m.QuestionID != "" {
			slots = append(slots, pending{index: i, m: m})
		}
	}

	found := make(map[int]Match, len(slots))
	record := func(p pending, q roles.QuestionWithRole, kind MatchKind) {
		r.claimed[q.ID] = true
		found[p.index] = Match{Slot: p.m.SlotName(), FromQuestionID: p.m.QuestionID, ToQuestionID: q.ID, Kind: kind}
	}

	for _, p := range slots {
		if q, ok := roles.ByID(r.questions, p.m.QuestionID); ok && !r.claimed[q.ID] {
			record(p, q, MatchID)
		}
	}
	for _, p := range slots {
		if _, done := found[p.index]; done || p.m.OrderNo == 0 {
			continue
		}
		for _, q := range r.questions {
			if r.claimed[q.ID] || q.OrderNo != p.m.OrderNo {
				continue
			}
			if p.m.Role == "" || q.Role == p.m.Role {
				record(p, q, MatchPosition)
			}
			break
		}
	}
	for _, p := range slots {
		if _, done := found[p.index]; done || p.m.Role == "" {
			continue
		}
		if q, ok := r.nearest(p.m.OrderNo, func(q roles.QuestionWithRole) bool { return q.Role == p.m.Role }); ok {
			record(p, q, MatchRole)
			r.diags.Add(gpErrors.Warn(gpErrors.TypeReconcile, gpErrors.CodeReconcileRoleMatch, slotPath(p.index),
				fmt.Sprintf("Slot %q matched by role %q to question %q", p.m.SlotName(), p.m.Role, q.ID)))
		}
	}
	for _, p := range slots {
		if _, done := found[p.index]; done {
			continue
		}
		q, ok := r.nearest(p.m.OrderNo, func(roles.QuestionWithRole) bool { return true })
		if !ok {
			// Every question is claimed; share the closest one.
			q, ok = r.nearestAny(p.m.OrderNo)
		}
		to := p.m.QuestionID
		if ok {
			to = q.ID
			r.claimed[q.ID] = true
		}
		found[p.index] = Match{Slot: p.m.SlotName(), FromQuestionID: p.m.QuestionID, ToQuestionID: to, Kind: MatchFallback}
		r.diags.Add(gpErrors.Warn(gpErrors.TypeReconcile, gpErrors.CodeReconcileNoMatch, slotPath(p.index),
			fmt.Sprintf("Slot %q has no match on the current form; mapped to fallback question %q", p.m.SlotName(), to)))
	}

	out := make([]Match, 0, len(slots))
	for _, p := range slots {
		out = append(out, found[p.index])
	}
	return out
}

func slotPath(i int) string {
	return fmt.Sprintf("questionMap[%d]", i)
}

// nearest returns the unclaimed question accepted by keep whose OrderNo is
// closest to orderNo. Ties go to the earlier question.
func (r *reconciler) nearest(orderNo int, keep func(roles.QuestionWithRole) bool) (roles.QuestionWithRole, bool) {
	var best roles.QuestionWithRole
	bestDist := -1
	for _, q := range r.questions {
		if r.claimed[q.ID] || !keep(q) {
			continue
		}
		d := abs(q.OrderNo - orderNo)
		if bestDist < 0 || d < bestDist {
			best, bestDist = q, d
		}
	}
	return best, bestDist >= 0
}

func (r *reconciler) nearestAny(orderNo int) (roles.QuestionWithRole, bool) {
	var best roles.QuestionWithRole
	bestDist := -1
	for _, q := range r.questions {
		d := abs(q.OrderNo - orderNo)
		if bestDist < 0 || d < bestDist {
			best, bestDist = q, d
		}
	}
	return best, bestDist >= 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// apply rewrites the cloned pack onto the current form.
func (r *reconciler) apply(matches []Match, fingerprint string) {
	remap := make(map[string]string, len(matches))
	for _, m := range matches {
		remap[m.FromQuestionID] = m.ToQuestionID
	}

	r.pack.FormFingerprint = fingerprint
	r.pack.FormQuestionCount = len(r.questions)

	for i := range r.pack.QuestionMap {
		m := &r.pack.QuestionMap[i]
		if to, ok := remap[m.QuestionID]; ok {
			m.QuestionID = to
		}
		if m.QuestionID == "" {
			continue
		}
		q, ok := roles.ByID(r.questions, m.QuestionID)
		if !ok {
			continue
		}
		m.OrderNo = q.OrderNo
		path := slotPath(i)
		m.OptionScores = r.pruneScores(q.Question, m.OptionScores, path)
		m.Groups = r.pruneGroups(q.Question, m.Groups, path)
	}

	for _, pairs := range [][]guideline.CrosstabPair{r.pack.CrosstabPlan.Pinned, r.pack.CrosstabPlan.Pairs} {
		for i := range pairs {
			if to, ok := remap[pairs[i].RowQuestionID]; ok {
				pairs[i].RowQuestionID = to
			}
			if to, ok := remap[pairs[i].ColQuestionID]; ok {
				pairs[i].ColQuestionID = to
			}
		}
	}
	for i := range r.pack.LeadScoring.Components {
		c := &r.pack.LeadScoring.Components[i]
		if to, ok := remap[c.QuestionID]; ok {
			c.QuestionID = to
		}
	}
}

// matchOption keeps an option reference whose id is still present, remaps it
// by text when only the id changed, and reports false when neither matches.
func matchOption(q survey.Question, id, text string) (survey.Option, bool, bool) {
	if id != "" {
		if o, ok := q.OptionByID(id); ok {
			return o, false, true
		}
	}
	if text != "" {
		if o, ok := q.OptionByText(text); ok {
			return o, id != "" && id != o.ID, true
		}
	}
	return survey.Option{}, false, false
}

func (r *reconciler) pruneScores(q survey.Question, scores []guideline.OptionScore, path string) []guideline.OptionScore {
	if len(scores) == 0 {
		return scores
	}
	out := make([]guideline.OptionScore, 0, len(scores))
	for j, s := range scores {
		spath := fmt.Sprintf("%s.optionScores[%d]", path, j)
		o, remapped, ok := matchOption(q, s.OptionID, s.OptionText)
		if !ok {
			r.diags.Add(gpErrors.Warn(gpErrors.TypeReconcile, gpErrors.CodeReconcileOptionPruned, spath,
				fmt.Sprintf("Option %s is no longer on question %q; score removed", describe(s.OptionID, s.OptionText), q.ID)))
			continue
		}
		if remapped {
			r.diags.Add(gpErrors.Warn(gpErrors.TypeReconcile, gpErrors.CodeReconcileOptionRemap, spath,
				fmt.Sprintf("Option %q matched by text; id %s -> %s", s.OptionText, s.OptionID, o.ID)))
		}
		if s.OptionID != "" {
			s.OptionID = o.ID
		}
		out = append(out, s)
	}
	return out
}

func (r *reconciler) pruneGroups(q survey.Question, groups []guideline.OptionGroup, path string) []guideline.OptionGroup {
	if len(groups) == 0 {
		return groups
	}
	out := make([]guideline.OptionGroup, 0, len(groups))
	for j, g := range groups {
		gpath := fmt.Sprintf("%s.groups[%d]", path, j)
		kept := guideline.OptionGroup{Label: g.Label}
		for _, id := range g.OptionIDs {
			if _, ok := q.OptionByID(id); ok {
				kept.OptionIDs = append(kept.OptionIDs, id)
				continue
			}
			r.diags.Add(gpErrors.Warn(gpErrors.TypeReconcile, gpErrors.CodeReconcileOptionPruned, gpath,
				fmt.Sprintf("Group %q member id=%s is no longer on question %q", g.Label, id, q.ID)))
		}
		for _, text := range g.OptionTexts {
			if _, ok := q.OptionByText(text); ok {
				kept.OptionTexts = append(kept.OptionTexts, text)
				continue
			}
			r.diags.Add(gpErrors.Warn(gpErrors.TypeReconcile, gpErrors.CodeReconcileOptionPruned, gpath,
				fmt.Sprintf("Group %q member %q is no longer on question %q", g.Label, text, q.ID)))
		}
		if len(kept.OptionIDs) == 0 && len(kept.OptionTexts) == 0 {
			r.diags.Add(gpErrors.Warn(gpErrors.TypeReconcile, gpErrors.CodeReconcileOptionPruned, gpath,
				fmt.Sprintf("Group %q lost all members and was removed", g.Label)))
			continue
		}
		out = append(out, kept)
	}
	return out
}

func describe(id, text string) string {
	if text != "" {
		return fmt.Sprintf("%q", text)
	}
	return "id=" + id
}
