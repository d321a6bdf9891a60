// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrTemplateNotFound indicates a template was not found by the given identifier.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrSubmissionNotFound indicates a submission was not found by the given identifier.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrInvalidSortField indicates the list options name an unknown sort field.
	ErrInvalidSortField = errors.New("invalid sort field")

	// ErrPersistence marks any failure of the storage backend.
	ErrPersistence = errors.New("persistence failure")
)

// Error wraps a failed storage operation with its context.
type Error struct {
	Op       string // Operation being performed (e.g., "CreateTemplate", "UpdateTemplate")
	Resource string // "template" or "submission"
	ID       string // Identifier if applicable
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s operation failed for %s: %v", e.Op, e.Resource, e.Err)
	}

	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Resource, e.ID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches both the underlying error and ErrPersistence.
func (e *Error) Is(target error) bool {
	return target == ErrPersistence || errors.Is(e.Err, target)
}

// NewTemplateError creates a new template error with context.
func NewTemplateError(op, id string, err error) *Error {
	return &Error{Op: op, Resource: "template", ID: id, Err: err}
}

// NewSubmissionError creates a new submission error with context.
func NewSubmissionError(op, id string, err error) *Error {
	return &Error{Op: op, Resource: "submission", ID: id, Err: err}
}

// IsTemplateNotFound checks if an error indicates a template was not found.
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// IsSubmissionNotFound checks if an error indicates a submission was not found.
func IsSubmissionNotFound(err error) bool {
	return errors.Is(err, ErrSubmissionNotFound)
}

// IsPersistenceError checks if an error came from the storage backend.
func IsPersistenceError(err error) bool {
	return errors.Is(err, ErrPersistence)
}
