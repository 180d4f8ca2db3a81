// Package errors provides the structured diagnostics produced while
// validating, linting, compiling and reconciling guideline packs.
//
// Each diagnostic carries a machine-readable Code, a category Type, a dotted
// Path into the pack (e.g. "questionMap[2].role"), a message and an optional
// suggestion. Callers accumulate diagnostics in a List instead of failing on
// the first one:
//
//	list := errors.NewList()
//	list.Add(errors.New(errors.TypeStructural, errors.CodeMissingField,
//	    "questionMap", "Pack must map at least one question"))
//	if list.HasErrors() {
//	    return list.ToError()
//	}
//
// Suggestions use Levenshtein distance to point at the closest valid name:
//
//	errors.SuggestName("timelin", []string{"timeline", "budget_status"})
//	// Did you mean 'timeline'?
package errors
