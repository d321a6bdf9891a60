package wizard

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dukex/formflow/pkg/fields"
)

var (
	ErrNotSubmittable   = errors.New("template is not accepting submissions")
	ErrNotLastStep      = errors.New("submit is only allowed on the last step")
	ErrAtFirstStep      = errors.New("already at the first step")
	ErrAtLastStep       = errors.New("already at the last step")
	ErrAlreadySubmitted = errors.New("form was already submitted")
	ErrUnknownField     = errors.New("field is not part of the form")
	ErrNotFileField     = errors.New("field does not accept files")
	ErrValidation       = errors.New("form has invalid fields")
	ErrUpload           = errors.New("file upload failed")
)

// ValidationError lists the failing fields of one step. The session did not move.
type ValidationError struct {
	Step   int
	Issues []fields.Issue
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %d has invalid fields: %s", e.Step+1, strings.Join(e.FieldIDs(), ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FieldIDs returns the failing field ids in form order without repeats.
func (e *ValidationError) FieldIDs() []string {
	ids := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if !slices.Contains(ids, issue.FieldID) {
			ids = append(ids, issue.FieldID)
		}
	}

	return ids
}

// UploadError reports the files that could not be resolved during a submit.
// Nothing was persisted; files resolved in the same attempt are kept.
type UploadError struct {
	Failures map[string]error
}

func (e *UploadError) Error() string {
	ids := slices.Sorted(maps.Keys(e.Failures))

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s: %v", id, e.Failures[id]))
	}

	return fmt.Sprintf("%d upload(s) failed: %s", len(ids), strings.Join(parts, "; "))
}

func (e *UploadError) Is(target error) bool {
	return target == ErrUpload
}

func (e *UploadError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, id := range slices.Sorted(maps.Keys(e.Failures)) {
		errs = append(errs, e.Failures[id])
	}

	return errs
}

// FieldIDs returns the fields whose upload failed, sorted.
func (e *UploadError) FieldIDs() []string {
	return slices.Sorted(maps.Keys(e.Failures))
}

// IsValidationError reports whether err blocks navigation because of field values.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUploadError reports whether err came from resolving files.
func IsUploadError(err error) bool {
	return errors.Is(err, ErrUpload)
}

// IsConflictError reports whether err rejects an operation for the session's state.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrNotSubmittable) ||
		errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, ErrNotLastStep) ||
		errors.Is(err, ErrAtFirstStep) ||
		errors.Is(err, ErrAtLastStep)
}
