package compiler

import (
	"fmt"
	"strings"

	"ustudiopd/eventlive/pkg/guideline"
	gpErrors "ustudiopd/eventlive/pkg/guideline/errors"
	"ustudiopd/eventlive/pkg/roles"
	"ustudiopd/eventlive/pkg/survey"
)

// Option configures Compile.
type Option func(*compiler)

// WithLogicalKeys supplies the logical-key table of the current form revision
// (logical key → question id). Without it, logical-key references fall
// through to role resolution with a warning.
func WithLogicalKeys(keys map[string]string) Option {
	return func(c *compiler) {
		c.logicalKeys = keys
	}
}

type compiler struct {
	pack        *guideline.Pack
	questions   []roles.QuestionWithRole
	logicalKeys map[string]string
	diags       *gpErrors.List
}

// ref is a three-tier question reference.
type ref struct {
	questionID string
	logicalKey string
	role       roles.Role
}

func (r ref) String() string {
	switch {
	case r.logicalKey != "":
		return r.logicalKey
	case r.questionID != "":
		return r.questionID
	default:
		return string(r.role)
	}
}

// Compile resolves pack against the current questions of one form revision.
// The pack is validated first; a pack with validation errors never compiles.
func Compile(pack *guideline.Pack, questions []roles.QuestionWithRole, revision string, opts ...Option) *Result {
	c := &compiler{questions: questions, diags: gpErrors.NewList()}
	for _, opt := range opts {
		opt(c)
	}

	if pack == nil {
		c.diags.Add(gpErrors.New(gpErrors.TypeCompile, gpErrors.CodeMalformed, "", "No guideline pack to compile"))
		return c.result(nil)
	}

	c.pack = pack.Clone()
	guideline.NormalizeRoles(c.pack)

	validation := guideline.Validate(c.pack, "")
	for _, e := range validation.Errors {
		c.diags.Add(e)
	}
	if !validation.IsValid {
		return c.result(nil)
	}

	plain := make([]survey.Question, len(questions))
	for i, q := range questions {
		plain[i] = q.Question
	}
	current := survey.FingerprintQuestions(plain)
	if current != c.pack.FormFingerprint {
		c.diags.Add(gpErrors.Warn(gpErrors.TypeCompile, gpErrors.CodeCompileFingerprintOld, "formFingerprint",
			"Pack was authored against a different form structure; reconcile before trusting role matches"))
	}
	for _, q := range questions {
		if q.Tie {
			c.diags.Add(gpErrors.Warn(gpErrors.TypeCompile, gpErrors.CodeCompileRoleTie, "questions."+q.ID,
				fmt.Sprintf("Question %q matched several roles equally and was treated as %q; set a role override", q.ID, q.Role)))
		}
	}

	out := &Compiled{
		PackID:          c.pack.ID,
		CampaignID:      c.pack.CampaignID,
		FormID:          c.pack.FormID,
		FormRevision:    revision,
		FormFingerprint: current,
		PackFingerprint: c.pack.FormFingerprint,
		Objectives:      c.pack.Objectives,
		MinCellCount:    c.pack.CrosstabPlan.MinCellCount,
		TopKRows:        c.pack.CrosstabPlan.TopKRows,
		TopKCols:        c.pack.CrosstabPlan.TopKCols,
	}
	out.Slots = c.compileSlots()
	out.Crosstabs = c.compilePairs()
	out.LeadScoring = c.compileLeadScoring(out.Slots)

	return c.result(out)
}

func (c *compiler) result(compiled *Compiled) *Result {
	res := &Result{
		Success:  !c.diags.HasErrors(),
		Warnings: c.diags.Warnings(),
		Errors:   c.diags.Errors(),
	}
	if res.Success {
		res.Compiled = compiled
	}
	return res
}

// resolve places a reference on a current question.
func (c *compiler) resolve(r ref, path string) (roles.QuestionWithRole, Resolution, bool) {
	if r.questionID != "" {
		if q, ok := roles.ByID(c.questions, r.questionID); ok {
			return q, ResolvedByID, true
		}
	}

	if r.logicalKey != "" {
		if c.logicalKeys == nil {
			c.diags.Add(gpErrors.Warn(gpErrors.TypeCompile, gpErrors.CodeCompileLogicalKey, path,
				fmt.Sprintf("Logical key %q cannot be resolved for this form; falling back to role", r.logicalKey)))
		} else if id, ok := c.logicalKeys[r.logicalKey]; ok {
			if q, ok := roles.ByID(c.questions, id); ok {
				return q, ResolvedByLogicalKey, true
			}
			c.diags.Add(gpErrors.Warn(gpErrors.TypeCompile, gpErrors.CodeCompileLogicalKey, path,
				fmt.Sprintf("Logical key %q points to question %q, which is not on the form", r.logicalKey, id)))
		}
	}

	if r.role != "" && r.role != roles.Other {
		candidates := 0
		for _, q := range c.questions {
			if q.Role == r.role {
				candidates++
			}
		}
		if q, ok := roles.FirstWithRole(c.questions, r.role); ok {
			msg := fmt.Sprintf("%q resolved by role %q to question %q", r.String(), r.role, q.ID)
			if candidates > 1 {
				msg += fmt.Sprintf(" (first of %d candidates)", candidates)
			}
			c.diags.Add(gpErrors.Warn(gpErrors.TypeCompile, gpErrors.CodeCompileRoleFallback, path, msg))
			return q, ResolvedByRole, true
		}
	}

	return roles.QuestionWithRole{}, "", false
}

func (c *compiler) compileSlots() []Slot {
	slots := make([]Slot, 0, len(c.pack.QuestionMap))
	for i, m := range c.pack.QuestionMap {
		path := fmt.Sprintf("questionMap[%d]", i)
		q, how, ok := c.resolve(ref{questionID: m.QuestionID, logicalKey: m.LogicalKey, role: m.Role}, path)
		if !ok {
			if m.Importance.Effective() == guideline.ImportanceCore {
				c.diags.Add(gpErrors.New(gpErrors.TypeCompile, gpErrors.CodeCompileUnresolved, path,
					fmt.Sprintf("Core slot %q matches no question on the current form", m.SlotName())).
					WithSuggestion("Fix the slot reference or regenerate the guideline pack"))
			} else {
				c.diags.Add(gpErrors.Warn(gpErrors.TypeCompile, gpErrors.CodeCompileDroppedSlot, path,
					fmt.Sprintf("%s slot %q matches no question and was dropped", m.Importance, m.SlotName())))
			}
			continue
		}

		role := m.Role
		if role == "" {
			role = q.Role
		}
		slot := Slot{
			QuestionID: q.ID,
			LogicalKey: m.LogicalKey,
			Role:       role,
			Importance: m.Importance.Effective(),
			Label:      m.Label,
			ResolvedBy: how,
			Strategy:   m.MultiSelectStrategy,
		}
		slot.OptionScores = c.resolveOptionScores(q.Question, m.OptionScores, path)
		slot.Groups = c.resolveGroups(q.Question, m.Groups, path)
		slots = append(slots, slot)
	}
	return slots
}

// resolveOption finds an option by id, then by text.
func resolveOption(q survey.Question, id, text string) (survey.Option, bool) {
	if id != "" {
		if o, ok := q.OptionByID(id); ok {
			return o, true
		}
	}
	if text != "" {
		return q.OptionByText(text)
	}
	return survey.Option{}, false
}

func (c *compiler) resolveOptionScores(q survey.Question, scores []guideline.OptionScore, path string) map[string]float64 {
	if len(scores) == 0 {
		return nil
	}
	out := make(map[string]float64, len(scores))
	for j, s := range scores {
		o, ok := resolveOption(q, s.OptionID, s.OptionText)
		if !ok {
			c.diags.Add(gpErrors.Warn(gpErrors.TypeCompile, gpErrors.CodeCompileUnknownOption,
				fmt.Sprintf("%s.optionScores[%d]", path, j),
				fmt.Sprintf("Option %s is not on question %q; score ignored", optionLabel(s.OptionID, s.OptionText), q.ID)))
			continue
		}
		out[o.ID] = s.Score
	}
	return out
}

func (c *compiler) resolveGroups(q survey.Question, groups []guideline.OptionGroup, path string) []Group {
	if len(groups) == 0 {
		return nil
	}
	out := make([]Group, 0, len(groups))
	for j, g := range groups {
		gpath := fmt.Sprintf("%s.groups[%d]", path, j)
		seen := make(map[string]bool)
		var ids []string
		add := func(id, text string) {
			o, ok := resolveOption(q, id, text)
			if !ok {
				c.diags.Add(gpErrors.Warn(gpErrors.TypeCompile, gpErrors.CodeCompileUnknownOption, gpath,
					fmt.Sprintf("Group %q member %s is not on question %q", g.Label, optionLabel(id, text), q.ID)))
				return
			}
			if !seen[o.ID] {
				seen[o.ID] = true
				ids = append(ids, o.ID)
			}
		}
		for _, id := range g.OptionIDs {
			add(id, "")
		}
		for _, text := range g.OptionTexts {
			add("", text)
		}
		if len(ids) > 0 {
			out = append(out, Group{Label: g.Label, OptionIDs: ids})
		}
	}
	return out
}

func optionLabel(id, text string) string {
	parts := make([]string, 0, 2)
	if id != "" {
		parts = append(parts, "id="+id)
	}
	if text != "" {
		parts = append(parts, fmt.Sprintf("text=%q", text))
	}
	return strings.Join(parts, " ")
}

func (c *compiler) compilePairs() []Pair {
	plan := c.pack.CrosstabPlan
	pairs := c.resolvePairs(plan.Pinned, "crosstabPlan.pinned", PairPinned)
	if len(pairs) == 0 {
		pairs = c.resolvePairs(plan.Pairs, "crosstabPlan.pairs", PairPlan)
	}
	if len(pairs) == 0 && (len(plan.Pinned) > 0 || len(plan.Pairs) > 0) {
		c.diags.Add(gpErrors.Warn(gpErrors.TypeCompile, gpErrors.CodeCompileDefaultPairs, "crosstabPlan",
			"No crosstab pair resolved; the default role pairs will be used"))
	}
	return pairs
}

func (c *compiler) resolvePairs(in []guideline.CrosstabPair, base string, src PairSource) []Pair {
	var out []Pair
	seen := make(map[[2]string]bool)
	for i, p := range in {
		path := fmt.Sprintf("%s[%d]", base, i)
		row, _, okRow := c.resolve(ref{questionID: p.RowQuestionID, logicalKey: p.RowKey, role: p.RowRole}, path+".row")
		col, _, okCol := c.resolve(ref{questionID: p.ColQuestionID, logicalKey: p.ColKey, role: p.ColRole}, path+".col")
		if !okRow || !okCol {
			c.diags.Add(gpErrors.Warn(gpErrors.TypeCompile, gpErrors.CodeCompilePairDropped, path,
				"Crosstab pair could not be placed on the current form and was dropped"))
			continue
		}
		if row.ID == col.ID {
			c.diags.Add(gpErrors.Warn(gpErrors.TypeCompile, gpErrors.CodeCompilePairDropped, path,
				fmt.Sprintf("Crosstab pair resolves both axes to question %q and was dropped", row.ID)))
			continue
		}
		key := [2]string{row.ID, col.ID}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Pair{
			RowQuestionID: row.ID,
			ColQuestionID: col.ID,
			RowRole:       roleOf(p.RowRole, row),
			ColRole:       roleOf(p.ColRole, col),
			Source:        src,
		})
	}
	return out
}

func roleOf(declared roles.Role, q roles.QuestionWithRole) roles.Role {
	if declared != "" {
		return declared
	}
	return q.Role
}

func (c *compiler) compileLeadScoring(slots []Slot) LeadScoring {
	ls := c.pack.LeadScoring
	out := LeadScoring{
		Thresholds: ls.TierThresholds,
		Actions:    ls.Actions,
	}
	if out.Thresholds.IsZero() {
		out.Thresholds = guideline.DefaultThresholds
	}

	for i, comp := range ls.Components {
		path := fmt.Sprintf("leadScoring.components[%d]", i)
		q, _, ok := c.resolve(ref{questionID: comp.QuestionID, logicalKey: comp.LogicalKey, role: comp.Role}, path)
		if !ok {
			c.diags.Add(gpErrors.Warn(gpErrors.TypeCompile, gpErrors.CodeCompileCompDropped, path,
				fmt.Sprintf("Lead-scoring component %q matches no question and was dropped", comp.Role)))
			continue
		}
		rc := Component{
			Role:       comp.Role,
			QuestionID: q.ID,
			Weight:     comp.Weight,
			Strategy:   ls.Strategy,
		}
		for _, s := range slots {
			if s.QuestionID == q.ID {
				rc.OptionScores = s.OptionScores
				if s.Strategy != "" {
					rc.Strategy = s.Strategy
				}
				break
			}
		}
		if rc.Strategy == "" {
			rc.Strategy = guideline.StrategyMax
		}
		out.Components = append(out.Components, rc)
	}

	out.Enabled = ls.Enabled && len(out.Components) > 0
	if ls.Enabled && !out.Enabled {
		c.diags.Add(gpErrors.Warn(gpErrors.TypeCompile, gpErrors.CodeCompileLeadDisabled, "leadScoring",
			"Lead scoring is enabled but no component resolved; it is disabled for this form"))
	}
	return out
}
