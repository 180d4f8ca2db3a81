package guideline

import (
	"fmt"

	gpErrors "ustudiopd/eventlive/pkg/guideline/errors"
	"ustudiopd/eventlive/pkg/roles"
)

// RecommendedMinCellCount is the smallest minCellCount lint accepts silently.
const RecommendedMinCellCount = 5

// Lint reports authoring advice. IsValid mirrors Validate without a
// fingerprint; the warnings never block use of the pack.
func Lint(p *Pack) *LintResult {
	v := Validate(p, "")
	res := &LintResult{IsValid: v.IsValid, Warnings: append([]*gpErrors.Error{}, v.Warnings...)}
	if p == nil {
		return res
	}

	warn := func(code gpErrors.Code, path, msg string) {
		res.Warnings = append(res.Warnings, gpErrors.Warn(gpErrors.TypeLint, code, path, msg))
	}

	hasCore := false
	for i, m := range p.QuestionMap {
		if m.Importance.Effective() == ImportanceCore {
			hasCore = true
		}
		if m.QuestionID == "" && m.LogicalKey == "" && m.Role != "" {
			warn(gpErrors.CodeLintRoleOnly, fmt.Sprintf("questionMap[%d]", i),
				fmt.Sprintf("Slot is identified by role %q only; resolution picks the first matching question", m.Role))
		}
	}
	if len(p.QuestionMap) > 0 && !hasCore {
		warn(gpErrors.CodeLintNoCoreSlot, "questionMap", "No slot is marked core; compilation can never fail on a missing question")
	}

	mapped := p.MappedRoles()
	for _, r := range []roles.Role{roles.Timeline, roles.FollowupIntent} {
		if !mapped[r] {
			warn(gpErrors.CodeLintUnmappedRole, "questionMap",
				fmt.Sprintf("Role %q is not mapped; lead tiers and default crosstabs rely on it", r))
		}
	}

	plan := p.CrosstabPlan
	if len(plan.Pinned) == 0 && len(plan.Pairs) == 0 {
		warn(gpErrors.CodeLintNoCrosstab, "crosstabPlan", "No crosstab pairs; the default role pairs will be used")
	}
	if plan.MinCellCount > 0 && plan.MinCellCount < RecommendedMinCellCount {
		warn(gpErrors.CodeLintLowMinCell, "crosstabPlan.minCellCount",
			fmt.Sprintf("minCellCount %d is below %d; small cells will not be flagged as low-sample", plan.MinCellCount, RecommendedMinCellCount))
	}
	seen := make(map[string]bool)
	for i, pair := range append(append([]CrosstabPair{}, plan.Pinned...), plan.Pairs...) {
		key := fmt.Sprintf("%s|%s|%s|%s|%s|%s", pair.RowRole, pair.RowKey, pair.RowQuestionID, pair.ColRole, pair.ColKey, pair.ColQuestionID)
		if seen[key] {
			warn(gpErrors.CodeLintDuplicatePair, fmt.Sprintf("crosstabPlan[%d]", i), "Duplicate crosstab pair")
		}
		seen[key] = true
	}

	ls := p.LeadScoring
	if ls.Enabled {
		if len(ls.Components) == 0 {
			warn(gpErrors.CodeLintLeadScoringEmpty, "leadScoring.components", "Lead scoring is enabled but has no components")
		}
		for _, tier := range Tiers {
			if ls.Actions[tier] == "" {
				warn(gpErrors.CodeLintNoActions, "leadScoring.actions",
					fmt.Sprintf("No action for tier %s; the built-in default will be used", tier))
			}
		}
		scored := make(map[roles.Role]bool)
		for _, m := range p.QuestionMap {
			if len(m.OptionScores) > 0 {
				scored[m.Role] = true
			}
		}
		for i, c := range ls.Components {
			if c.Role != "" && !scored[c.Role] {
				warn(gpErrors.CodeLintUnscoredOptions, fmt.Sprintf("leadScoring.components[%d]", i),
					fmt.Sprintf("No optionScores for role %q; keyword scoring will be used", c.Role))
			}
		}
	}

	if len(p.Objectives.DecisionQuestions) == 0 {
		warn(gpErrors.CodeLintNoDecisionQ, "objectives.decisionQuestions", "No decision questions; reports will use the default lens only")
	}

	return res
}
