package authoring

import (
	"errors"
	"fmt"
)

// Structural errors reported by authoring operations.
var (
	ErrMissingTitle     = errors.New("missing title")
	ErrNoFields         = errors.New("no fields")
	ErrDuplicateFieldID = errors.New("duplicate field id")
	ErrFieldNotFound    = errors.New("field not found")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrInvalidKind      = errors.New("invalid field kind")
	ErrOptionNotFound   = errors.New("option not found")
	ErrOptionsNotUsed   = errors.New("field kind does not take options")
	ErrCannotUnpublish  = errors.New("published template cannot return to draft")
	ErrInvalidDirection = errors.New("invalid direction")
)

// StructuralError reports an authoring operation rejected because of the
// template's shape. Nothing is saved when it is returned.
type StructuralError struct {
	Op      string
	FieldID string
	Err     error
}

func (e *StructuralError) Error() string {
	if e.FieldID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.FieldID, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

func structural(op, fieldID string, err error) error {
	return &StructuralError{Op: op, FieldID: fieldID, Err: err}
}

// IsStructuralError reports whether err is a StructuralError.
func IsStructuralError(err error) bool {
	var target *StructuralError

	return errors.As(err, &target)
}

// IsNotFound reports whether err names a missing field or option.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFieldNotFound) || errors.Is(err, ErrOptionNotFound)
}
