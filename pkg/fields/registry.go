// Package fields dispatches per-kind rendering, validation and serialization
// for form fields through a lookup table keyed by field kind.
package fields

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dukex/formflow/pkg/models"
	"github.com/go-playground/validator/v10"
)

// Widget names the input control a field renders as.
type Widget string

const (
	WidgetText     Widget = "input:text"
	WidgetTextarea Widget = "textarea"
	WidgetNumber   Widget = "input:number"
	WidgetEmail    Widget = "input:email"
	WidgetSelect   Widget = "select"
	WidgetCheckbox Widget = "checkbox-group"
	WidgetRadio    Widget = "radio-group"
	WidgetDate     Widget = "input:date"
	WidgetFile     Widget = "input:file"
	WidgetHeading  Widget = "section-heading"
)

// Rule names one validation rule applied to a field.
type Rule string

const (
	RuleRequired Rule = "required"
	RuleOptions  Rule = "options"
	RuleEmail    Rule = "email"
	RuleNumber   Rule = "number"
	RuleDate     Rule = "date"
	RuleOneOf    Rule = "one_of"
	RuleSubsetOf Rule = "subset_of"
	RuleUpload   Rule = "upload"
	RuleShape    Rule = "shape"
)

var (
	// ErrUnknownKind indicates no handler is registered for a kind.
	ErrUnknownKind = errors.New("unknown field kind")

	// ErrNotCapturable indicates the field takes no value.
	ErrNotCapturable = errors.New("field does not capture a value")

	// ErrUnresolvedUpload indicates a file value was serialized before it was resolved.
	ErrUnresolvedUpload = errors.New("file value has not been resolved to a reference")
)

// Issue is one failed rule on one field.
type Issue struct {
	FieldID string `json:"fieldId"`
	Rule    Rule   `json:"rule"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.FieldID, i.Message)
}

// Handler is the table entry for one field kind. Check runs kind rules on a
// present value; Schema describes the serialized value as JSON Schema.
type Handler struct {
	Spec      models.KindSpec
	Widget    Widget
	Rules     []Rule
	Check     func(r *Registry, field *models.FormField, value models.Value) *Issue
	Serialize func(value models.Value) (any, error)
	Schema    func(field *models.FormField) map[string]any
}

// Registry holds the handler table.
type Registry struct {
	handlers map[models.FieldKind]Handler
	validate *validator.Validate
}

// NewRegistry creates a registry with every built-in kind registered.
func NewRegistry(validate *validator.Validate) *Registry {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	r := &Registry{
		handlers: make(map[models.FieldKind]Handler),
		validate: validate,
	}

	for _, handler := range builtinHandlers() {
		r.Register(handler)
	}

	return r
}

// Register adds or replaces the handler for its kind.
func (r *Registry) Register(handler Handler) {
	r.handlers[handler.Spec.Kind] = handler
}

// Handler returns the handler for kind.
func (r *Registry) Handler(kind models.FieldKind) (Handler, bool) {
	handler, ok := r.handlers[kind]

	return handler, ok
}

func (r *Registry) lookup(kind models.FieldKind) (Handler, error) {
	handler, ok := r.handlers[kind]
	if !ok {
		return Handler{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	return handler, nil
}

// Parse reads a raw captured value for field into its typed value.
func (r *Registry) Parse(field *models.FormField, raw any) (models.Value, error) {
	handler, err := r.lookup(field.Kind)
	if err != nil {
		return nil, err
	}

	if !handler.Spec.Capturable {
		return nil, fmt.Errorf("%w: %s", ErrNotCapturable, field.ID)
	}

	return models.ParseValue(handler.Spec.Shape, raw)
}

// RulesFor returns the rules that apply to field.
func (r *Registry) RulesFor(field *models.FormField) []Rule {
	handler, ok := r.handlers[field.Kind]
	if !ok || !handler.Spec.Capturable {
		return nil
	}

	rules := make([]Rule, 0, len(handler.Rules)+2)

	if field.Required {
		rules = append(rules, RuleRequired)

		if handler.Spec.RequiresOptions {
			rules = append(rules, RuleOptions)
		}
	}

	return append(rules, handler.Rules...)
}

// Validate checks value against the rules of field. A nil value is absent.
func (r *Registry) Validate(field *models.FormField, value models.Value) []Issue {
	handler, err := r.lookup(field.Kind)
	if err != nil {
		return []Issue{{FieldID: field.ID, Rule: RuleShape, Message: err.Error()}}
	}

	if !handler.Spec.Capturable {
		return nil
	}

	var issues []Issue

	empty := value == nil || value.Empty()

	if field.Required {
		if handler.Spec.RequiresOptions && len(field.Options) == 0 {
			issues = append(issues, Issue{
				FieldID: field.ID,
				Rule:    RuleOptions,
				Message: "field has no options to choose from",
			})
		}

		if empty {
			issues = append(issues, Issue{
				FieldID: field.ID,
				Rule:    RuleRequired,
				Message: "value is required",
			})
		}
	}

	if empty {
		return issues
	}

	if value.Shape() != handler.Spec.Shape {
		return append(issues, Issue{
			FieldID: field.ID,
			Rule:    RuleShape,
			Message: fmt.Sprintf("expected %s value, got %s", handler.Spec.Shape, value.Shape()),
		})
	}

	if handler.Check != nil {
		if issue := handler.Check(r, field, value); issue != nil {
			issues = append(issues, *issue)
		}
	}

	return issues
}

// ValidateAll validates every field against values keyed by field id.
func (r *Registry) ValidateAll(fields []*models.FormField, values map[string]models.Value) []Issue {
	var issues []Issue
	for _, field := range fields {
		issues = append(issues, r.Validate(field, values[field.ID])...)
	}

	return issues
}

// Serialize converts value to the shape stored in a submission.
func (r *Registry) Serialize(field *models.FormField, value models.Value) (any, error) {
	handler, err := r.lookup(field.Kind)
	if err != nil {
		return nil, err
	}

	if !handler.Spec.Capturable {
		return nil, fmt.Errorf("%w: %s", ErrNotCapturable, field.ID)
	}

	if handler.Serialize == nil {
		return value.Raw(), nil
	}

	return handler.Serialize(value)
}

// Descriptor is what a renderer needs to draw one field.
type Descriptor struct {
	FieldID     string           `json:"fieldId"`
	Kind        models.FieldKind `json:"kind"`
	Widget      Widget           `json:"widget"`
	Label       string           `json:"label"`
	Placeholder string           `json:"placeholder,omitempty"`
	Description string           `json:"description,omitempty"`
	Required    bool             `json:"required"`
	Options     []string         `json:"options,omitempty"`
	Rules       []Rule           `json:"rules,omitempty"`
	Default     any              `json:"defaultValue,omitempty"`
	Value       any              `json:"value,omitempty"`
}

// Describe renders field into a Descriptor, attaching the captured value when present.
func (r *Registry) Describe(field *models.FormField, value models.Value) Descriptor {
	handler, ok := r.handlers[field.Kind]
	if !ok {
		handler = Handler{Spec: field.Kind.Spec(), Widget: WidgetText}
	}

	descriptor := Descriptor{
		FieldID: field.ID,
		Kind:    field.Kind,
		Widget:  handler.Widget,
		Label:   field.Label,
	}

	if !handler.Spec.Capturable {
		return descriptor
	}

	descriptor.Description = field.Description
	descriptor.Required = field.Required
	descriptor.Rules = r.RulesFor(field)

	if handler.Spec.HasPlaceholder {
		descriptor.Placeholder = field.Placeholder
	}

	if handler.Spec.RequiresOptions {
		descriptor.Options = slices.Clone(field.Options)
	}

	if field.Default != nil {
		descriptor.Default = field.Default.Raw()
	}

	if value != nil && !value.Empty() {
		descriptor.Value = value.Raw()
	}

	return descriptor
}
