package guidelines

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no pack matches.
var ErrNotFound = errors.New("guideline pack not found")

// StorageError is a backend failure.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("guideline storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

func newStorageError(backend, op string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: op, Cause: cause}
}

// EditError is returned when a non-draft pack is modified.
type EditError struct {
	PackID string
	Status string
}

// Error implements the error interface.
func (e *EditError) Error() string {
	return fmt.Sprintf("guideline pack %s is %s; only drafts can be edited", e.PackID, e.Status)
}

func errDuplicate(id string) error {
	return fmt.Errorf("pack %s already exists", id)
}
