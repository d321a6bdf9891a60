// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/dukex/formflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestField creates a test FormField with default values that can be overridden.
func CreateTestField(overrides ...func(*models.FormField)) *models.FormField {
	field := &models.FormField{
		ID:    uuid.New().String(),
		Kind:  models.KindText,
		Label: "Test Field",
	}

	for _, override := range overrides {
		override(field)
	}

	return field
}

// WithID sets the field ID.
func WithID(id string) func(*models.FormField) {
	return func(f *models.FormField) {
		f.ID = id
	}
}

// WithKind sets the field kind. Option kinds get two options.
func WithKind(kind models.FieldKind) func(*models.FormField) {
	return func(f *models.FormField) {
		f.Kind = kind

		if kind.Spec().RequiresOptions && len(f.Options) == 0 {
			f.Options = []string{"First", "Second"}
		}
	}
}

// WithLabel sets the field label.
func WithLabel(label string) func(*models.FormField) {
	return func(f *models.FormField) {
		f.Label = label
	}
}

// WithRequired marks the field required.
func WithRequired() func(*models.FormField) {
	return func(f *models.FormField) {
		f.Required = true
	}
}

// WithOptions sets the field options.
func WithOptions(options ...string) func(*models.FormField) {
	return func(f *models.FormField) {
		f.Options = options
	}
}

// WithDefault sets the field default value.
func WithDefault(value models.Value) func(*models.FormField) {
	return func(f *models.FormField) {
		f.Default = value
	}
}

// Heading creates a section heading field.
func Heading(id, label string) *models.FormField {
	return CreateTestField(WithID(id), WithKind(models.KindHeading), WithLabel(label))
}

// CreateTestTemplate creates a draft template holding fields.
func CreateTestTemplate(fields ...*models.FormField) *models.FormTemplate {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	return &models.FormTemplate{
		Title:       "Test Form",
		Description: "A form for testing",
		Category:    "test",
		Status:      models.TemplateStatusDraft,
		Fields:      fields,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CreatePublishedTemplate creates a published template with an id, holding fields.
func CreatePublishedTemplate(fields ...*models.FormField) *models.FormTemplate {
	template := CreateTestTemplate(fields...)
	template.ID = uuid.New().String()
	template.Status = models.TemplateStatusPublished

	return template
}

// CreateTestTemplateWithSteps creates a published two-step template: a
// required name, then a heading opening a step with an email and a file.
func CreateTestTemplateWithSteps() *models.FormTemplate {
	return CreatePublishedTemplate(
		CreateTestField(WithID("name"), WithLabel("Name"), WithRequired()),
		Heading("contact", "Contact"),
		CreateTestField(WithID("email"), WithKind(models.KindEmail), WithLabel("Email")),
		CreateTestField(WithID("resume"), WithKind(models.KindFile), WithLabel("Resume")),
	)
}
