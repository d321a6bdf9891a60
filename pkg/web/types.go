// Package web provides HTTP request and response types for the form API.
package web

import (
	"github.com/dukex/formflow/pkg/authoring"
	"github.com/dukex/formflow/pkg/models"
)

// DetailsRequest updates template metadata. All fields are optional.
type DetailsRequest struct {
	Title       *string `json:"title,omitempty"       validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category    *string `json:"category,omitempty"    validate:"omitempty,max=100"`
}

func (r DetailsRequest) changes() authoring.DetailChanges {
	return authoring.DetailChanges{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
	}
}

// UpdateFieldRequest merges changes into one field. All fields are optional.
type UpdateFieldRequest struct {
	Label        *string  `json:"label,omitempty"        validate:"omitempty,max=200"`
	Placeholder  *string  `json:"placeholder,omitempty"  validate:"omitempty,max=200"`
	Description  *string  `json:"description,omitempty"  validate:"omitempty,max=2000"`
	Required     *bool    `json:"required,omitempty"`
	Options      []string `json:"options,omitempty"      validate:"omitempty,dive,max=200"`
	DefaultValue any      `json:"defaultValue,omitempty"`
	ClearDefault bool     `json:"clearDefault,omitempty"`
}

func (r UpdateFieldRequest) changes() authoring.FieldChanges {
	return authoring.FieldChanges{
		Label:        r.Label,
		Placeholder:  r.Placeholder,
		Description:  r.Description,
		Required:     r.Required,
		Options:      r.Options,
		Default:      r.DefaultValue,
		ClearDefault: r.ClearDefault,
	}
}

// SetKindRequest changes the kind of a field.
type SetKindRequest struct {
	Kind models.FieldKind `json:"kind" validate:"required"`
}

// MoveFieldRequest swaps a field with its neighbor.
type MoveFieldRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// ReorderRequest moves the field at From to To.
type ReorderRequest struct {
	From *int `json:"from" validate:"required,gte=0"`
	To   *int `json:"to"   validate:"required,gte=0"`
}

// OptionRequest carries one option label.
type OptionRequest struct {
	Label string `json:"label" validate:"required,max=200"`
}

// ActiveFieldRequest selects the field expanded in the builder.
type ActiveFieldRequest struct {
	FieldID string `json:"fieldId"`
}

// SetValuesRequest captures values keyed by field id.
type SetValuesRequest struct {
	Values map[string]any `json:"values" validate:"required"`
}

// TemplatesResponse lists templates with the applied sort.
type TemplatesResponse struct {
	Templates []*models.FormTemplate `json:"templates"`
	SortBy    string                 `json:"sortBy"`
	SortOrder string                 `json:"sortOrder"`
}
