package campaign

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ustudiopd/eventlive/pkg/survey"
)

// ErrNotFound is returned when the campaign does not exist.
var ErrNotFound = errors.New("campaign not found")

// Source loads campaign data.
type Source interface {
	// Load returns the campaign's questions, submissions and answers.
	Load(ctx context.Context, campaignID string) (*survey.CampaignData, error)

	// Close releases backend resources.
	Close() error
}

// StorageError is a backend failure.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("campaign storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

func newStorageError(backend, op string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: op, Cause: cause}
}

// sortSnapshot orders questions by order number and submissions by time so
// every backend returns the same snapshot for the same data.
func sortSnapshot(d *survey.CampaignData) {
	sort.SliceStable(d.Questions, func(i, j int) bool {
		if d.Questions[i].OrderNo != d.Questions[j].OrderNo {
			return d.Questions[i].OrderNo < d.Questions[j].OrderNo
		}
		return d.Questions[i].ID < d.Questions[j].ID
	})
	sort.SliceStable(d.Submissions, func(i, j int) bool {
		a, b := d.Submissions[i], d.Submissions[j]
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.ID < b.ID
	})
}
