package engine

import (
	"fmt"
	"strings"

	gpErrors "ustudiopd/eventlive/pkg/guideline/errors"
)

// Pipeline stages.
const (
	StageLoad      = "load"
	StageRoles     = "roles"
	StageGuideline = "guideline"
	StageReconcile = "reconcile"
	StageCompile   = "compile"
	StageAnalyze   = "analyze"
	StageGenerate  = "generate"
	StageMerge     = "merge"
	StagePersist   = "persist"
)

// StageError wraps a failure of one pipeline stage.
type StageError struct {
	Stage string
	Cause error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Cause)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Cause
}

// CompileError reports a guideline pack that could not be compiled against
// the current form.
type CompileError struct {
	PackID string
	Errors []*gpErrors.Error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("guideline pack %s does not compile: %s",
		e.PackID, strings.Join(gpErrors.Messages(e.Errors), "; "))
}

// ReconcileError reports a guideline pack whose form drifted beyond the
// reconcile threshold. Callers should regenerate the guideline.
type ReconcileError struct {
	PackID     string
	Confidence float64
	MatchRatio float64
	Warnings   []*gpErrors.Error
}

// Error implements the error interface.
func (e *ReconcileError) Error() string {
	return fmt.Sprintf("guideline pack %s cannot be reconciled with the current form (match ratio %.2f, confidence %.2f)",
		e.PackID, e.MatchRatio, e.Confidence)
}
