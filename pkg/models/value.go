package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date layout used for date values.
const DateLayout = "2006-01-02"

var (
	// ErrShapeMismatch indicates a raw value cannot be read as the expected shape.
	ErrShapeMismatch = errors.New("value does not match field shape")

	// ErrDefaultNotAllowed indicates the field kind carries no default value.
	ErrDefaultNotAllowed = errors.New("field kind does not accept a default value")
)

// Value is a captured or default value. The concrete type is determined by
// the field kind's shape, so a file field never carries a string list.
type Value interface {
	Shape() ValueShape
	// Raw returns the JSON-serializable representation.
	Raw() any
	// Empty reports whether the value counts as absent for required checks.
	Empty() bool
}

type TextValue string

func (v TextValue) Shape() ValueShape { return ShapeString }
func (v TextValue) Raw() any          { return string(v) }
func (v TextValue) Empty() bool       { return v == "" }

type NumberValue float64

func (v NumberValue) Shape() ValueShape { return ShapeNumber }
func (v NumberValue) Raw() any          { return float64(v) }
func (v NumberValue) Empty() bool       { return false }

type ChoicesValue []string

func (v ChoicesValue) Shape() ValueShape { return ShapeStrings }
func (v ChoicesValue) Raw() any          { return []string(slices.Clone(v)) }
func (v ChoicesValue) Empty() bool       { return len(v) == 0 }

// DateValue holds a calendar date at UTC midnight.
type DateValue struct {
	time.Time
}

func (v DateValue) Shape() ValueShape { return ShapeDate }
func (v DateValue) Raw() any          { return v.Format(DateLayout) }
func (v DateValue) Empty() bool       { return v.IsZero() }

// UploadValue is a resolved, stable file reference.
type UploadValue struct {
	Reference UploadReference
}

func (v UploadValue) Shape() ValueShape { return ShapeUpload }
func (v UploadValue) Raw() any          { return v.Reference }
func (v UploadValue) Empty() bool       { return v.Reference.Key == "" }

// CloneValue copies values that share backing storage.
func CloneValue(v Value) Value {
	if choices, ok := v.(ChoicesValue); ok {
		return ChoicesValue(slices.Clone(choices))
	}

	return v
}

// DefaultFor reads raw as the default value of a field of the given kind.
func DefaultFor(kind FieldKind, raw any) (Value, error) {
	spec := kind.Spec()
	if !spec.AcceptsDefault {
		return nil, fmt.Errorf("%w: %s", ErrDefaultNotAllowed, kind)
	}

	return ParseValue(spec.Shape, raw)
}

// ParseValue reads an untyped value (as decoded from JSON, YAML or a form post)
// into the concrete Value for shape.
func ParseValue(shape ValueShape, raw any) (Value, error) {
	if v, ok := raw.(Value); ok && v.Shape() == shape {
		return CloneValue(v), nil
	}

	switch shape {
	case ShapeString:
		return parseText(raw)
	case ShapeNumber:
		return parseNumber(raw)
	case ShapeStrings:
		return parseChoices(raw)
	case ShapeDate:
		return parseDate(raw)
	case ShapeUpload:
		if ref, ok := raw.(UploadReference); ok {
			return UploadValue{Reference: ref}, nil
		}

		return nil, fmt.Errorf("%w: upload references are assigned on submit", ErrShapeMismatch)
	default:
		return nil, fmt.Errorf("%w: shape %s captures no value", ErrShapeMismatch, shape)
	}
}

func parseText(raw any) (Value, error) {
	switch v := raw.(type) {
	case string:
		return TextValue(v), nil
	case nil:
		return TextValue(""), nil
	default:
		return nil, fmt.Errorf("%w: expected text, got %T", ErrShapeMismatch, raw)
	}
}

func parseNumber(raw any) (Value, error) {
	var number float64

	switch v := raw.(type) {
	case float64:
		number = v
	case float32:
		number = float64(v)
	case int:
		number = float64(v)
	case int64:
		number = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrShapeMismatch, err)
		}

		number = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrShapeMismatch, v)
		}

		number = parsed
	default:
		return nil, fmt.Errorf("%w: expected number, got %T", ErrShapeMismatch, raw)
	}

	if math.IsNaN(number) || math.IsInf(number, 0) {
		return nil, fmt.Errorf("%w: number must be finite", ErrShapeMismatch)
	}

	return NumberValue(number), nil
}

func parseChoices(raw any) (Value, error) {
	switch v := raw.(type) {
	case []string:
		return ChoicesValue(slices.Clone(v)), nil
	case []any:
		choices := make(ChoicesValue, 0, len(v))

		for _, item := range v {
			choice, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: expected list of text, got %T item", ErrShapeMismatch, item)
			}

			choices = append(choices, choice)
		}

		return choices, nil
	case string:
		if v == "" {
			return ChoicesValue{}, nil
		}

		return ChoicesValue{v}, nil
	case nil:
		return ChoicesValue{}, nil
	default:
		return nil, fmt.Errorf("%w: expected list of text, got %T", ErrShapeMismatch, raw)
	}
}

func parseDate(raw any) (Value, error) {
	switch v := raw.(type) {
	case time.Time:
		return dateOf(v), nil
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return DateValue{}, nil
		}

		if parsed, err := time.Parse(DateLayout, text); err == nil {
			return DateValue{Time: parsed}, nil
		}

		parsed, err := time.Parse(time.RFC3339, text)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an ISO date", ErrShapeMismatch, v)
		}

		return dateOf(parsed), nil
	case nil:
		return DateValue{}, nil
	default:
		return nil, fmt.Errorf("%w: expected ISO date, got %T", ErrShapeMismatch, raw)
	}
}

func dateOf(t time.Time) DateValue {
	y, m, d := t.Date()

	return DateValue{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}
