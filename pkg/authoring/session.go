// Package authoring holds one form template in memory and applies the
// structural edits of the form builder to it.
package authoring

import (
	"context"
	"fmt"
	"html"
	"slices"
	"strings"
	"time"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultOptions seeds option kinds that have no options yet.
var DefaultOptions = []string{"Option 1", "Option 2", "Option 3"}

// Direction is the way MoveField swaps a field.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection reads "up" or "down".
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(s)) {
	case Up:
		return Up, nil
	case Down:
		return Down, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// FieldChanges is a partial update of a field. Nil members are left unchanged.
// Default carries an untyped value read against the field's kind.
type FieldChanges struct {
	Label        *string
	Placeholder  *string
	Description  *string
	Required     *bool
	Options      []string
	Default      any
	ClearDefault bool
}

// DetailChanges is a partial update of the template metadata.
type DetailChanges struct {
	Title       *string
	Description *string
	Category    *string
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithIDGenerator replaces the field id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Session) {
		s.newID = newID
	}
}

// WithSanitizer replaces the policy applied to user-entered text.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(s *Session) {
		s.policy = policy
	}
}

// Session is one authoring session over a template. It is not safe for
// concurrent use; the owner serializes calls.
type Session struct {
	template  *models.FormTemplate
	active    string
	published bool

	repo   persistence.TemplateRepository
	policy *bluemonday.Policy
	now    func() time.Time
	newID  func() string
}

// NewSession starts authoring template. A nil template starts an empty draft.
func NewSession(repo persistence.TemplateRepository, template *models.FormTemplate, opts ...Option) *Session {
	s := &Session{
		repo:   repo,
		policy: bluemonday.StrictPolicy(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	if template == nil {
		now := s.now()
		template = &models.FormTemplate{
			Fields:    []*models.FormField{},
			Status:    models.TemplateStatusDraft,
			CreatedAt: now,
			UpdatedAt: now,
		}
	} else {
		template = template.Clone()
	}

	if template.Status == "" {
		template.Status = models.TemplateStatusDraft
	}

	s.template = template
	s.published = template.IsPublished()

	return s
}

// NewCopySession starts a draft copy of source with fresh field ids and no id.
func NewCopySession(repo persistence.TemplateRepository, source *models.FormTemplate, opts ...Option) *Session {
	s := NewSession(repo, nil, opts...)

	copied := source.Clone()
	for _, field := range copied.Fields {
		field.ID = s.newID()
	}

	now := s.now()
	copied.ID = ""
	copied.Title = source.Title + " (Copy)"
	copied.Status = models.TemplateStatusDraft
	copied.CreatedAt = now
	copied.UpdatedAt = now

	s.template = copied

	return s
}

// Template returns a snapshot of the template being edited.
func (s *Session) Template() *models.FormTemplate {
	return s.template.Clone()
}

// ActiveFieldID returns the field expanded in the builder, if any.
func (s *Session) ActiveFieldID() string {
	return s.active
}

// SetActiveField expands the field with id. An empty id collapses all fields.
func (s *Session) SetActiveField(id string) error {
	if id != "" && s.template.FieldIndex(id) < 0 {
		return structural("SetActiveField", id, ErrFieldNotFound)
	}

	s.active = id

	return nil
}

// UpdateDetails merges changes into the template metadata.
func (s *Session) UpdateDetails(changes DetailChanges) *models.FormTemplate {
	if changes.Title != nil {
		s.template.Title = s.sanitize(*changes.Title)
	}

	if changes.Description != nil {
		s.template.Description = s.sanitize(*changes.Description)
	}

	if changes.Category != nil {
		s.template.Category = strings.TrimSpace(s.sanitize(*changes.Category))
	}

	return s.touch()
}

// AddField appends a required=false text field and makes it active.
func (s *Session) AddField() *models.FormTemplate {
	field := &models.FormField{
		ID:   s.newID(),
		Kind: models.KindText,
	}

	s.template.Fields = append(s.template.Fields, field)
	s.active = field.ID

	return s.touch()
}

// UpdateField merges changes into the field with id. An unknown id is a no-op.
// A default value that does not fit the field's kind is rejected.
func (s *Session) UpdateField(id string, changes FieldChanges) (*models.FormTemplate, error) {
	field := s.template.Field(id)
	if field == nil {
		return s.Template(), nil
	}

	var defaultValue models.Value

	if changes.Default != nil && !changes.ClearDefault {
		value, err := models.DefaultFor(field.Kind, changes.Default)
		if err != nil {
			return nil, structural("UpdateField", id, err)
		}

		defaultValue = value
	}

	if changes.Label != nil {
		field.Label = s.sanitize(*changes.Label)
	}

	if changes.Placeholder != nil {
		field.Placeholder = s.sanitize(*changes.Placeholder)
	}

	if changes.Description != nil {
		field.Description = s.sanitize(*changes.Description)
	}

	if changes.Required != nil {
		field.Required = *changes.Required
	}

	if changes.Options != nil {
		field.Options = s.sanitizeAll(changes.Options)
	}

	switch {
	case changes.ClearDefault:
		field.Default = nil
	case defaultValue != nil:
		field.Default = defaultValue
	}

	return s.touch(), nil
}

// SetFieldKind changes the kind of the field with id. Option kinds without
// options are seeded with DefaultOptions; a default that does not fit the new
// kind is dropped.
func (s *Session) SetFieldKind(id string, kind models.FieldKind) (*models.FormTemplate, error) {
	if !kind.Valid() {
		return nil, structural("SetFieldKind", id, fmt.Errorf("%w: %s", ErrInvalidKind, kind))
	}

	field := s.template.Field(id)
	if field == nil {
		return nil, structural("SetFieldKind", id, ErrFieldNotFound)
	}

	field.Kind = kind

	if kind.Spec().RequiresOptions && len(field.Options) == 0 {
		field.Options = slices.Clone(DefaultOptions)
	}

	if field.Default != nil {
		value, err := models.DefaultFor(kind, field.Default.Raw())
		if err != nil {
			value = nil
		}

		field.Default = value
	}

	return s.touch(), nil
}

// RemoveField deletes the field with id, clearing the active field if it was it.
func (s *Session) RemoveField(id string) (*models.FormTemplate, error) {
	index := s.template.FieldIndex(id)
	if index < 0 {
		return nil, structural("RemoveField", id, ErrFieldNotFound)
	}

	s.template.Fields = slices.Delete(s.template.Fields, index, index+1)

	if s.active == id {
		s.active = ""
	}

	return s.touch(), nil
}

// DuplicateField inserts a copy of the field with id right after it. The copy
// gets a fresh id and becomes active.
func (s *Session) DuplicateField(id string) (*models.FormTemplate, error) {
	index := s.template.FieldIndex(id)
	if index < 0 {
		return nil, structural("DuplicateField", id, ErrFieldNotFound)
	}

	duplicate := s.template.Fields[index].Clone()
	duplicate.ID = s.newID()

	s.template.Fields = slices.Insert(s.template.Fields, index+1, duplicate)
	s.active = duplicate.ID

	return s.touch(), nil
}

// MoveField swaps the field with id and its neighbor in direction. Moving the
// first field up or the last field down changes nothing.
func (s *Session) MoveField(id string, direction Direction) (*models.FormTemplate, error) {
	index := s.template.FieldIndex(id)
	if index < 0 {
		return nil, structural("MoveField", id, ErrFieldNotFound)
	}

	var neighbor int

	switch direction {
	case Up:
		neighbor = index - 1
	case Down:
		neighbor = index + 1
	default:
		return nil, structural("MoveField", id, fmt.Errorf("%w: %q", ErrInvalidDirection, direction))
	}

	if neighbor < 0 || neighbor >= len(s.template.Fields) {
		return s.Template(), nil
	}

	fields := s.template.Fields
	fields[index], fields[neighbor] = fields[neighbor], fields[index]

	return s.touch(), nil
}

// ReorderField removes the field at from and reinserts it at to.
func (s *Session) ReorderField(from, to int) (*models.FormTemplate, error) {
	count := len(s.template.Fields)
	if from < 0 || from >= count || to < 0 || to >= count {
		return nil, structural("ReorderField", "", fmt.Errorf("%w: from=%d to=%d with %d fields", ErrIndexOutOfRange, from, to, count))
	}

	if from == to {
		return s.Template(), nil
	}

	field := s.template.Fields[from]
	fields := slices.Delete(s.template.Fields, from, from+1)
	s.template.Fields = slices.Insert(fields, to, field)

	return s.touch(), nil
}

// AddOption appends label to the options of the field with id.
func (s *Session) AddOption(id, label string) (*models.FormTemplate, error) {
	field, err := s.optionField("AddOption", id)
	if err != nil {
		return nil, err
	}

	field.Options = append(field.Options, s.sanitize(label))

	return s.touch(), nil
}

// UpdateOption relabels the option at index.
func (s *Session) UpdateOption(id string, index int, label string) (*models.FormTemplate, error) {
	field, err := s.optionField("UpdateOption", id)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(field.Options) {
		return nil, structural("UpdateOption", id, fmt.Errorf("%w: %d", ErrOptionNotFound, index))
	}

	field.Options[index] = s.sanitize(label)

	return s.touch(), nil
}

// RemoveOption deletes the option at index and drops it from the default value.
func (s *Session) RemoveOption(id string, index int) (*models.FormTemplate, error) {
	field, err := s.optionField("RemoveOption", id)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(field.Options) {
		return nil, structural("RemoveOption", id, fmt.Errorf("%w: %d", ErrOptionNotFound, index))
	}

	removed := field.Options[index]
	field.Options = slices.Delete(field.Options, index, index+1)

	switch value := field.Default.(type) {
	case models.TextValue:
		if string(value) == removed {
			field.Default = nil
		}
	case models.ChoicesValue:
		field.Default = slices.DeleteFunc(slices.Clone(value), func(choice string) bool {
			return choice == removed
		})
	}

	return s.touch(), nil
}

// Publish persists the template as published.
func (s *Session) Publish(ctx context.Context) (*models.FormTemplate, error) {
	return s.save(ctx, "Publish", models.TemplateStatusPublished)
}

// SaveDraft persists the template as a draft. A template already published
// stays published.
func (s *Session) SaveDraft(ctx context.Context) (*models.FormTemplate, error) {
	if s.published {
		return nil, structural("SaveDraft", "", ErrCannotUnpublish)
	}

	return s.save(ctx, "SaveDraft", models.TemplateStatusDraft)
}

// Check reports the first structural problem that blocks saving.
func (s *Session) Check() error {
	return Check(s.template)
}

// Check reports the first structural problem that blocks saving template.
func Check(template *models.FormTemplate) error {
	if err := checkStructure(template); err != nil {
		return structural("Check", "", err)
	}

	return nil
}

func checkStructure(template *models.FormTemplate) error {
	if strings.TrimSpace(template.Title) == "" {
		return ErrMissingTitle
	}

	if len(template.Fields) == 0 {
		return ErrNoFields
	}

	seen := make(map[string]bool, len(template.Fields))
	for _, field := range template.Fields {
		if !field.Kind.Valid() {
			return fmt.Errorf("%w: %s is %q", ErrInvalidKind, field.ID, field.Kind)
		}

		if seen[field.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateFieldID, field.ID)
		}

		seen[field.ID] = true
	}

	return nil
}

// save hands a copy to the repository and adopts it only once stored.
func (s *Session) save(ctx context.Context, op string, status models.TemplateStatus) (*models.FormTemplate, error) {
	if err := checkStructure(s.template); err != nil {
		return nil, structural(op, "", err)
	}

	candidate := s.template.Clone()
	candidate.Status = status
	candidate.UpdatedAt = s.now()

	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = candidate.UpdatedAt
	}

	if candidate.ID == "" {
		id, err := s.repo.Create(ctx, candidate)
		if err != nil {
			return nil, asPersistenceError(op, "", err)
		}

		candidate.ID = id
	} else {
		err := s.repo.Update(ctx, candidate.ID, candidate)
		if err != nil {
			return nil, asPersistenceError(op, candidate.ID, err)
		}
	}

	s.template = candidate
	s.published = candidate.IsPublished()

	return s.Template(), nil
}

func asPersistenceError(op, id string, err error) error {
	if persistence.IsPersistenceError(err) {
		return err
	}

	return persistence.NewTemplateError(op, id, err)
}

func (s *Session) optionField(op, id string) (*models.FormField, error) {
	field := s.template.Field(id)
	if field == nil {
		return nil, structural(op, id, ErrFieldNotFound)
	}

	if !field.Kind.Spec().RequiresOptions {
		return nil, structural(op, id, fmt.Errorf("%w: %s", ErrOptionsNotUsed, field.Kind))
	}

	return field, nil
}

func (s *Session) touch() *models.FormTemplate {
	s.template.UpdatedAt = s.now()

	return s.Template()
}

// sanitize strips markup; entities are kept as the characters they encode.
func (s *Session) sanitize(text string) string {
	return html.UnescapeString(s.policy.Sanitize(text))
}

func (s *Session) sanitizeAll(texts []string) []string {
	clean := make([]string, len(texts))
	for i, text := range texts {
		clean[i] = s.sanitize(text)
	}

	return clean
}
