// Package wizard drives filling a published form step by step and assembles
// the submission record.
package wizard

import (
	"fmt"
	"maps"
	"slices"

	"github.com/dukex/formflow/pkg/fields"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/steps"
	"github.com/dukex/formflow/pkg/uploads"
)

// State is the lifecycle state of a filling session.
type State string

const (
	StateEditing   State = "editing"
	StateSubmitted State = "submitted"
)

// PendingFile describes a file attached but not uploaded yet.
type PendingFile struct {
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
	Pending  bool   `json:"pending"`
}

// pendingUpload stands in for a file value until it is resolved.
type pendingUpload struct {
	file uploads.File
}

func (p pendingUpload) Shape() models.ValueShape { return models.ShapeUpload }
func (p pendingUpload) Empty() bool              { return false }
func (p pendingUpload) Raw() any {
	return PendingFile{FileName: p.file.Name, Size: p.file.Size(), Pending: true}
}

// Session is one user filling one published template. It is not safe for
// concurrent use; the owner serializes calls.
type Session struct {
	template *models.FormTemplate
	steps    []steps.Step
	registry *fields.Registry

	current      int
	state        State
	values       map[string]models.Value
	pending      map[string]uploads.File
	submissionID string
}

// NewSession starts filling template, which must be published and have at
// least one step. Default values seed the captured values.
func NewSession(template *models.FormTemplate, registry *fields.Registry) (*Session, error) {
	if template == nil {
		return nil, ErrNotSubmittable
	}

	if !template.IsPublished() {
		return nil, fmt.Errorf("%w: template %s is %s", ErrNotSubmittable, template.ID, template.Status)
	}

	template = template.Clone()

	parts := steps.Partition(template.Fields)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: template %s has no fields", ErrNotSubmittable, template.ID)
	}

	s := &Session{
		template: template,
		steps:    parts,
		registry: registry,
	}
	s.Reset()

	return s, nil
}

// Reset starts a fresh submission at the first step with only default values.
func (s *Session) Reset() {
	s.current = 0
	s.state = StateEditing
	s.submissionID = ""
	s.pending = make(map[string]uploads.File)
	s.values = make(map[string]models.Value)

	for _, field := range s.template.Fields {
		if field.Default != nil && field.Kind.Spec().Capturable {
			s.values[field.ID] = models.CloneValue(field.Default)
		}
	}
}

// Template returns the template being filled. Callers must not modify it.
func (s *Session) Template() *models.FormTemplate {
	return s.template
}

// Steps returns the wizard steps.
func (s *Session) Steps() []steps.Step {
	return s.steps
}

// Current returns the index of the current step.
func (s *Session) Current() int {
	return s.current
}

// CurrentStep returns the current step.
func (s *Session) CurrentStep() steps.Step {
	return s.steps[s.current]
}

// IsLastStep reports whether the current step is the last one.
func (s *Session) IsLastStep() bool {
	return s.current == len(s.steps)-1
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// SubmissionID returns the id of the stored submission once submitted.
func (s *Session) SubmissionID() string {
	return s.submissionID
}

// Value returns the captured value of a field, nil when absent.
func (s *Session) Value(fieldID string) models.Value {
	if file, ok := s.pending[fieldID]; ok {
		return pendingUpload{file: file}
	}

	return s.values[fieldID]
}

// PendingFields returns the ids of file fields waiting for upload, sorted.
func (s *Session) PendingFields() []string {
	return slices.Sorted(maps.Keys(s.pending))
}

// SetValue captures raw for a field. A nil raw value clears it.
func (s *Session) SetValue(fieldID string, raw any) error {
	field, err := s.editable(fieldID)
	if err != nil {
		return err
	}

	if raw == nil {
		delete(s.values, fieldID)
		delete(s.pending, fieldID)

		return nil
	}

	if field.Kind.Spec().Shape == models.ShapeUpload {
		return fmt.Errorf("%w: attach a file to %s", models.ErrShapeMismatch, fieldID)
	}

	value, err := s.registry.Parse(field, raw)
	if err != nil {
		return err
	}

	s.values[fieldID] = value

	return nil
}

// AttachFile holds file for a file field until submit resolves it. Attaching
// replaces any earlier file or resolved reference of that field.
func (s *Session) AttachFile(fieldID string, file uploads.File) error {
	field, err := s.editable(fieldID)
	if err != nil {
		return err
	}

	if field.Kind.Spec().Shape != models.ShapeUpload {
		return fmt.Errorf("%w: %s is %s", ErrNotFileField, fieldID, field.Kind)
	}

	if file.Size() == 0 {
		return fmt.Errorf("%w: %s", uploads.ErrEmptyFile, file.Name)
	}

	delete(s.values, fieldID)
	s.pending[fieldID] = file

	return nil
}

// Validate checks the fields of the current step.
func (s *Session) Validate() []fields.Issue {
	return s.validateStep(s.current)
}

// Advance moves to the next step when the current step is valid.
func (s *Session) Advance() error {
	if s.state == StateSubmitted {
		return ErrAlreadySubmitted
	}

	if issues := s.validateStep(s.current); len(issues) > 0 {
		return &ValidationError{Step: s.current, Issues: issues}
	}

	if s.IsLastStep() {
		return ErrAtLastStep
	}

	s.current++

	return nil
}

// Retreat moves to the previous step without validating.
func (s *Session) Retreat() error {
	if s.state == StateSubmitted {
		return ErrAlreadySubmitted
	}

	if s.current == 0 {
		return ErrAtFirstStep
	}

	s.current--

	return nil
}

// Describe renders the fields of the current step.
func (s *Session) Describe() []fields.Descriptor {
	step := s.steps[s.current]

	descriptors := make([]fields.Descriptor, 0, len(step.Fields))
	for _, field := range step.Fields {
		descriptors = append(descriptors, s.registry.Describe(field, s.Value(field.ID)))
	}

	return descriptors
}

func (s *Session) editable(fieldID string) (*models.FormField, error) {
	if s.state == StateSubmitted {
		return nil, ErrAlreadySubmitted
	}

	field := s.template.Field(fieldID)
	if field == nil || !field.Kind.Spec().Capturable {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, fieldID)
	}

	return field, nil
}

func (s *Session) validateStep(index int) []fields.Issue {
	var issues []fields.Issue
	for _, field := range s.steps[index].Fields {
		issues = append(issues, s.registry.Validate(field, s.Value(field.ID))...)
	}

	return issues
}

func (s *Session) pendingUploads() map[string]uploads.File {
	return maps.Clone(s.pending)
}

// resolve replaces the pending file of fieldID with its stored reference.
func (s *Session) resolve(fieldID string, ref models.UploadReference) {
	delete(s.pending, fieldID)
	s.values[fieldID] = models.UploadValue{Reference: ref}
}

func (s *Session) markSubmitted(id string) {
	s.state = StateSubmitted
	s.submissionID = id
}
