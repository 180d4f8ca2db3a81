package errors

import (
	"fmt"
	"strings"
)

// ErrorType categorizes a diagnostic.
type ErrorType string

const (
	TypeSyntax     ErrorType = "syntax"     // Malformed JSON/YAML
	TypeVersion    ErrorType = "version"    // Missing or unsupported version tag
	TypeStructural ErrorType = "structural" // Missing/invalid fields
	TypeSemantic   ErrorType = "semantic"   // Inconsistent references or values
	TypeLint       ErrorType = "lint"       // Authoring advice
	TypeCompile    ErrorType = "compile"    // Resolution against a form revision
	TypeReconcile  ErrorType = "reconcile"  // Drift remapping
)

// Severity distinguishes blocking errors from advisory warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Error is a single diagnostic.
type Error struct {
	Type       ErrorType `json:"type"`
	Code       Code      `json:"code"`
	Severity   Severity  `json:"severity"`
	Path       string    `json:"path,omitempty"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
}

// New creates an error-severity diagnostic.
func New(t ErrorType, code Code, path, message string) *Error {
	return &Error{Type: t, Code: code, Severity: SeverityError, Path: path, Message: message}
}

// Warn creates a warning-severity diagnostic.
func Warn(t ErrorType, code Code, path, message string) *Error {
	return &Error{Type: t, Code: code, Severity: SeverityWarning, Path: path, Message: message}
}

// WithSuggestion sets the suggestion and returns the diagnostic.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s %s] %s", e.Code, e.Type, e.Message))
	if e.Path != "" {
		sb.WriteString(fmt.Sprintf(" (at %s)", e.Path))
	}
	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("; suggestion: %s", e.Suggestion))
	}
	return sb.String()
}

// List accumulates diagnostics of both severities.
type List struct {
	Items []*Error
}

// NewList creates an empty list.
func NewList() *List {
	return &List{Items: make([]*Error, 0)}
}

// Add appends a diagnostic. Nil is ignored.
func (l *List) Add(e *Error) {
	if e != nil {
		l.Items = append(l.Items, e)
	}
}

// Merge appends every diagnostic of other.
func (l *List) Merge(other *List) {
	if other != nil {
		l.Items = append(l.Items, other.Items...)
	}
}

// Errors returns the error-severity diagnostics.
func (l *List) Errors() []*Error {
	return l.bySeverity(SeverityError)
}

// Warnings returns the warning-severity diagnostics.
func (l *List) Warnings() []*Error {
	return l.bySeverity(SeverityWarning)
}

func (l *List) bySeverity(s Severity) []*Error {
	out := make([]*Error, 0)
	for _, e := range l.Items {
		if e.Severity == s {
			out = append(out, e)
		}
	}
	return out
}

// HasErrors reports whether any error-severity diagnostic is present.
func (l *List) HasErrors() bool {
	for _, e := range l.Items {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasType reports whether any diagnostic of the given type is present.
func (l *List) HasType(t ErrorType) bool {
	for _, e := range l.Items {
		if e.Type == t {
			return true
		}
	}
	return false
}

// HasCode reports whether any diagnostic carries the given code.
func (l *List) HasCode(c Code) bool {
	for _, e := range l.Items {
		if e.Code == c {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics.
func (l *List) Count() int {
	return len(l.Items)
}

// Error implements the error interface over the error-severity diagnostics.
func (l *List) Error() string {
	errs := l.Errors()
	if len(errs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("found %d error(s):", len(errs)))
	for _, e := range errs {
		sb.WriteString("\n  ")
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// ToError returns nil when there are no error-severity diagnostics.
func (l *List) ToError() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}

// Messages renders diagnostics as plain strings.
func Messages(items []*Error) []string {
	out := make([]string, len(items))
	for i, e := range items {
		out[i] = e.Error()
	}
	return out
}
