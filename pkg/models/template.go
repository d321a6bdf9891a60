package models

import (
	"slices"
	"time"
)

// TemplateStatus represents the lifecycle state of a form template.
type TemplateStatus string

const (
	TemplateStatusDraft     TemplateStatus = "draft"     // Editable, not accepting submissions
	TemplateStatusPublished TemplateStatus = "published" // Accepting submissions
)

// FormTemplate is one form definition. The order of Fields is the display
// order and the only source of step order.
type FormTemplate struct {
	ID          string         `json:"id,omitempty"          yaml:"id,omitempty"`
	Title       string         `json:"title"                 yaml:"title"`
	Description string         `json:"description"           yaml:"description"`
	Category    string         `json:"category"              yaml:"category"`
	Fields      []*FormField   `json:"fields"                yaml:"fields"`
	Status      TemplateStatus `json:"status"                yaml:"status"`
	CreatedAt   time.Time      `json:"createdAt"             yaml:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"             yaml:"updatedAt"`
}

// IsPublished reports whether the template accepts submissions.
func (t *FormTemplate) IsPublished() bool {
	return t.Status == TemplateStatusPublished
}

// FieldIndex returns the position of the field with id, or -1.
func (t *FormTemplate) FieldIndex(id string) int {
	return slices.IndexFunc(t.Fields, func(f *FormField) bool {
		return f.ID == id
	})
}

// Field returns the field with id, or nil.
func (t *FormTemplate) Field(id string) *FormField {
	if i := t.FieldIndex(id); i >= 0 {
		return t.Fields[i]
	}

	return nil
}

// Clone returns a deep copy of the template.
func (t *FormTemplate) Clone() *FormTemplate {
	clone := *t
	clone.Fields = make([]*FormField, len(t.Fields))

	for i, field := range t.Fields {
		clone.Fields[i] = field.Clone()
	}

	return &clone
}
