package guideline

import (
	"fmt"

	gpErrors "ustudiopd/eventlive/pkg/guideline/errors"
	"ustudiopd/eventlive/pkg/roles"
)

// ValidationResult is the structured outcome of Validate.
type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []*gpErrors.Error `json:"errors"`
	Warnings []*gpErrors.Error `json:"warnings"`
}

// LintResult is the structured outcome of Lint.
type LintResult struct {
	IsValid  bool              `json:"isValid"`
	Warnings []*gpErrors.Error `json:"warnings"`
}

var (
	validImportance = map[Importance]bool{
		"": true, ImportanceCore: true, ImportanceSupporting: true, ImportanceOptional: true,
	}
	validStrategies = map[MultiSelectStrategy]bool{
		"": true, StrategyMax: true, StrategySumCap: true, StrategyBinaryAny: true,
	}
)

func roleNames() []string {
	out := make([]string, len(roles.All))
	for i, r := range roles.All {
		out[i] = string(r)
	}
	return out
}

// Validate checks a pack's structure and internal consistency. When
// currentFingerprint is non-empty and differs from the pack's, a drift warning
// is added; drift is the reconciler's concern, not a validation failure.
func Validate(p *Pack, currentFingerprint string) *ValidationResult {
	list := gpErrors.NewList()
	if p == nil {
		list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeMalformed, "", "Guideline pack is empty"))
		return resultFrom(list)
	}

	validateMetadata(p, list)
	validateQuestionMap(p, list)
	validateCrosstabPlan(p, list)
	validateLeadScoring(p, list)

	// Semantic pass only on structurally sound packs, to avoid cascades.
	if !list.HasType(gpErrors.TypeStructural) {
		validateObjectives(p, list)
		if currentFingerprint != "" && p.FormFingerprint != currentFingerprint {
			list.Add(gpErrors.Warn(gpErrors.TypeSemantic, gpErrors.CodeFingerprintDrift, "formFingerprint",
				"Form structure changed since this pack was authored; reconciliation required"))
		}
	}

	return resultFrom(list)
}

func resultFrom(list *gpErrors.List) *ValidationResult {
	return &ValidationResult{
		IsValid:  !list.HasErrors(),
		Errors:   list.Errors(),
		Warnings: list.Warnings(),
	}
}

func validateMetadata(p *Pack, list *gpErrors.List) {
	if p.Version == "" {
		list.Add(gpErrors.New(gpErrors.TypeVersion, gpErrors.CodeVersion, "version", "Missing required field 'version'").
			WithSuggestion(gpErrors.SuggestMissingField("version", Version)))
	} else if p.Version != Version {
		list.Add(gpErrors.New(gpErrors.TypeVersion, gpErrors.CodeVersion, "version",
			fmt.Sprintf("Unsupported version %q", p.Version)).
			WithSuggestion("Supported versions: " + Version))
	}

	if p.FormID == "" {
		list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeMissingField, "formId", "Missing required field 'formId'"))
	}
	if p.FormFingerprint == "" {
		list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeMissingField, "formFingerprint",
			"Missing required field 'formFingerprint'"))
	}
	if p.Status != "" && !p.Status.Valid() {
		list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeUnknownStatus, "status",
			fmt.Sprintf("Unknown status %q", p.Status)).
			WithSuggestion(gpErrors.SuggestName(string(p.Status), []string{"draft", "published", "archived"})))
	}
	if len(p.QuestionMap) == 0 {
		list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeMissingField, "questionMap",
			"Pack must map at least one question"))
	}
}

func validateRole(r roles.Role, path string, list *gpErrors.List) {
	if r != "" && !r.Valid() {
		list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeUnknownRole, path,
			fmt.Sprintf("Unknown role %q", r)).
			WithSuggestion(gpErrors.SuggestName(string(r), roleNames())))
	}
}

func validateQuestionMap(p *Pack, list *gpErrors.List) {
	seenIDs := make(map[string]int)
	seenKeys := make(map[string]int)

	for i, m := range p.QuestionMap {
		path := fmt.Sprintf("questionMap[%d]", i)

		if m.QuestionID == "" && m.LogicalKey == "" && m.Role == "" {
			list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeMissingField, path,
				"Slot needs at least one of 'questionId', 'logicalKey' or 'role'"))
		}
		validateRole(m.Role, path+".role", list)

		if !validImportance[m.Importance] {
			list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeInvalidValue, path+".importance",
				fmt.Sprintf("Unknown importance %q", m.Importance)).
				WithSuggestion(gpErrors.SuggestName(string(m.Importance), []string{"core", "supporting", "optional"})))
		}
		if !validStrategies[m.MultiSelectStrategy] {
			list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeUnknownStrategy, path+".multiSelectStrategy",
				fmt.Sprintf("Unknown multi-select strategy %q", m.MultiSelectStrategy)).
				WithSuggestion(gpErrors.SuggestName(string(m.MultiSelectStrategy), []string{"max", "sumCap", "binaryAny"})))
		}

		if m.QuestionID != "" {
			if prev, ok := seenIDs[m.QuestionID]; ok {
				list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeDuplicateSlot, path+".questionId",
					fmt.Sprintf("Question %q is already mapped by questionMap[%d]", m.QuestionID, prev)))
			} else {
				seenIDs[m.QuestionID] = i
			}
		}
		if m.LogicalKey != "" {
			if prev, ok := seenKeys[m.LogicalKey]; ok {
				list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeDuplicateSlot, path+".logicalKey",
					fmt.Sprintf("Logical key %q is already used by questionMap[%d]", m.LogicalKey, prev)))
			} else {
				seenKeys[m.LogicalKey] = i
			}
		}

		for j, s := range m.OptionScores {
			if s.OptionID == "" && s.OptionText == "" {
				list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeMissingField,
					fmt.Sprintf("%s.optionScores[%d]", path, j), "Option score needs 'optionId' or 'optionText'"))
			}
		}
		for j, g := range m.Groups {
			gpath := fmt.Sprintf("%s.groups[%d]", path, j)
			if g.Label == "" {
				list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeMissingField, gpath+".label", "Option group needs a label"))
			}
			if len(g.OptionIDs) == 0 && len(g.OptionTexts) == 0 {
				list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeEmptyGroup, gpath,
					fmt.Sprintf("Option group %q has no members", g.Label)))
			}
		}
	}
}

func validateCrosstabPlan(p *Pack, list *gpErrors.List) {
	plan := p.CrosstabPlan
	if plan.MinCellCount < 0 {
		list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeInvalidValue, "crosstabPlan.minCellCount",
			"minCellCount cannot be negative"))
	}
	if plan.TopKRows < 0 || plan.TopKCols < 0 {
		list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeInvalidValue, "crosstabPlan",
			"topKRows and topKCols cannot be negative"))
	}

	check := func(name string, pairs []CrosstabPair) {
		for i, pair := range pairs {
			path := fmt.Sprintf("crosstabPlan.%s[%d]", name, i)
			validateRole(pair.RowRole, path+".rowRole", list)
			validateRole(pair.ColRole, path+".colRole", list)
			if pair.RowRole == "" && pair.RowKey == "" && pair.RowQuestionID == "" {
				list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeMissingField, path, "Pair has no row reference"))
			}
			if pair.ColRole == "" && pair.ColKey == "" && pair.ColQuestionID == "" {
				list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeMissingField, path, "Pair has no column reference"))
			}
			if pair.RowRole != "" && pair.RowRole == pair.ColRole && pair.RowKey == pair.ColKey &&
				pair.RowQuestionID == pair.ColQuestionID {
				list.Add(gpErrors.New(gpErrors.TypeSemantic, gpErrors.CodeInvalidValue, path,
					fmt.Sprintf("Pair crosses role %q with itself", pair.RowRole)))
			}
		}
	}
	check("pinned", plan.Pinned)
	check("pairs", plan.Pairs)
}

func validateLeadScoring(p *Pack, list *gpErrors.List) {
	ls := p.LeadScoring
	for i, c := range ls.Components {
		path := fmt.Sprintf("leadScoring.components[%d]", i)
		if c.Role == "" {
			list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeMissingField, path+".role", "Component needs a role"))
		}
		validateRole(c.Role, path+".role", list)
		if c.Weight <= 0 {
			list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeWeight, path+".weight",
				fmt.Sprintf("Weight must be positive, got %g", c.Weight)))
		}
	}
	if !validStrategies[ls.Strategy] {
		list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeUnknownStrategy, "leadScoring.multiSelectStrategy",
			fmt.Sprintf("Unknown multi-select strategy %q", ls.Strategy)))
	}

	if !ls.Enabled || ls.TierThresholds.IsZero() {
		return
	}
	t := ls.TierThresholds
	if !t.Descending() {
		list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeThresholdOrder, "leadScoring.tierThresholds",
			fmt.Sprintf("Thresholds must satisfy P0 > P1 > P2 > P3, got %g/%g/%g/%g", t.P0, t.P1, t.P2, t.P3)))
	}
	for _, v := range []float64{t.P0, t.P1, t.P2, t.P3} {
		if v < 0 || v > 100 {
			list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeThresholdOrder, "leadScoring.tierThresholds",
				fmt.Sprintf("Threshold %g is outside [0, 100]", v)))
			break
		}
	}
	for tier := range ls.Actions {
		if tier != TierP0 && tier != TierP1 && tier != TierP2 && tier != TierP3 && tier != TierP4 {
			list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeInvalidValue, "leadScoring.actions",
				fmt.Sprintf("Unknown tier %q", tier)))
		}
	}
}

func validateObjectives(p *Pack, list *gpErrors.List) {
	mapped := p.MappedRoles()
	for i, dq := range p.Objectives.DecisionQuestions {
		path := fmt.Sprintf("objectives.decisionQuestions[%d]", i)
		if dq.Question == "" {
			list.Add(gpErrors.New(gpErrors.TypeStructural, gpErrors.CodeMissingField, path+".question",
				"Decision question needs text"))
		}
		for j, r := range dq.Roles {
			validateRole(r, fmt.Sprintf("%s.roles[%d]", path, j), list)
			if r.Valid() && !mapped[r] {
				list.Add(gpErrors.Warn(gpErrors.TypeSemantic, gpErrors.CodeDanglingObjective,
					fmt.Sprintf("%s.roles[%d]", path, j),
					fmt.Sprintf("Decision question references role %q that no slot maps", r)))
			}
		}
	}
}
