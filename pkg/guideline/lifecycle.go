package guideline

import (
	"fmt"
	"time"
)

// LifecycleError is returned for a status change outside
// draft → published → archived.
type LifecycleError struct {
	PackID string
	From   Status
	To     Status
}

// Error implements the error interface.
func (e *LifecycleError) Error() string {
	return fmt.Sprintf("guideline pack %s: invalid status transition %s -> %s", e.PackID, e.From, e.To)
}

// CanTransition reports whether from → to is a lifecycle edge.
func CanTransition(from, to Status) bool {
	if from == "" {
		from = StatusDraft
	}
	switch from {
	case StatusDraft:
		return to == StatusPublished
	case StatusPublished:
		return to == StatusArchived
	default:
		return false
	}
}

// Transition moves the pack to a new status and stamps the matching timestamp.
func (p *Pack) Transition(to Status, now time.Time) error {
	from := p.Status
	if from == "" {
		from = StatusDraft
	}
	if !CanTransition(from, to) {
		return &LifecycleError{PackID: p.ID, From: from, To: to}
	}

	p.Status = to
	p.UpdatedAt = now
	switch to {
	case StatusPublished:
		p.PublishedAt = &now
	case StatusArchived:
		p.ArchivedAt = &now
	}
	return nil
}
