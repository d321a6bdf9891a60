// Package models defines the core domain models for schema-driven forms.
package models

import (
	"encoding/json"
	"fmt"
	"slices"
)

// FieldKind identifies the input vocabulary a field belongs to.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindLongText FieldKind = "textarea"
	KindNumber   FieldKind = "number"
	KindEmail    FieldKind = "email"
	KindSelect   FieldKind = "select"   // single select
	KindCheckbox FieldKind = "checkbox" // multi select
	KindRadio    FieldKind = "radio"    // single choice
	KindDate     FieldKind = "date"
	KindFile     FieldKind = "file"
	KindHeading  FieldKind = "heading" // section marker, opens a wizard step
)

// ValueShape is the serialized shape of a captured value.
type ValueShape string

const (
	ShapeNone    ValueShape = "none"
	ShapeString  ValueShape = "string"
	ShapeNumber  ValueShape = "number"
	ShapeStrings ValueShape = "strings"
	ShapeDate    ValueShape = "date"
	ShapeUpload  ValueShape = "upload"
)

// KindSpec declares how a field kind behaves. The kind table is the single
// source of truth for the builder and the renderer/validator.
type KindSpec struct {
	Kind            FieldKind
	Shape           ValueShape
	RequiresOptions bool
	HasPlaceholder  bool
	StepBoundary    bool
	AcceptsDefault  bool
	Capturable      bool
}

var kindTable = map[FieldKind]KindSpec{
	KindText:     {Kind: KindText, Shape: ShapeString, HasPlaceholder: true, AcceptsDefault: true, Capturable: true},
	KindLongText: {Kind: KindLongText, Shape: ShapeString, HasPlaceholder: true, AcceptsDefault: true, Capturable: true},
	KindNumber:   {Kind: KindNumber, Shape: ShapeNumber, HasPlaceholder: true, AcceptsDefault: true, Capturable: true},
	KindEmail:    {Kind: KindEmail, Shape: ShapeString, HasPlaceholder: true, AcceptsDefault: true, Capturable: true},
	KindSelect:   {Kind: KindSelect, Shape: ShapeString, RequiresOptions: true, HasPlaceholder: true, AcceptsDefault: true, Capturable: true},
	KindCheckbox: {Kind: KindCheckbox, Shape: ShapeStrings, RequiresOptions: true, AcceptsDefault: true, Capturable: true},
	KindRadio:    {Kind: KindRadio, Shape: ShapeString, RequiresOptions: true, AcceptsDefault: true, Capturable: true},
	KindDate:     {Kind: KindDate, Shape: ShapeDate, AcceptsDefault: true, Capturable: true},
	KindFile:     {Kind: KindFile, Shape: ShapeUpload, Capturable: true},
	KindHeading:  {Kind: KindHeading, Shape: ShapeNone, StepBoundary: true},
}

// LookupKind returns the table entry for kind.
func LookupKind(kind FieldKind) (KindSpec, bool) {
	spec, ok := kindTable[kind]

	return spec, ok
}

// Kinds returns every registered kind in a stable order.
func Kinds() []FieldKind {
	kinds := make([]FieldKind, 0, len(kindTable))
	for kind := range kindTable {
		kinds = append(kinds, kind)
	}

	slices.Sort(kinds)

	return kinds
}

// Spec returns the table entry for the kind; unknown kinds behave as a
// capturable text field.
func (k FieldKind) Spec() KindSpec {
	if spec, ok := kindTable[k]; ok {
		return spec
	}

	return KindSpec{Kind: k, Shape: ShapeString, Capturable: true}
}

// Valid reports whether the kind is part of the closed kind set.
func (k FieldKind) Valid() bool {
	_, ok := kindTable[k]

	return ok
}

// FormField is one input specification within a template.
type FormField struct {
	ID          string    `json:"id"                    yaml:"id"`
	Kind        FieldKind `json:"kind"                  yaml:"kind"`
	Label       string    `json:"label"                 yaml:"label"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool      `json:"required"              yaml:"required"`
	Options     []string  `json:"options,omitempty"     yaml:"options,omitempty"`
	Default     Value     `json:"-"                     yaml:"-"`
}

// IsHeading reports whether the field is a section marker.
func (f *FormField) IsHeading() bool {
	return f.Kind.Spec().StepBoundary
}

// Clone returns a deep copy of the field.
func (f *FormField) Clone() *FormField {
	clone := *f
	clone.Options = slices.Clone(f.Options)
	clone.Default = CloneValue(f.Default)

	return &clone
}

// fieldJSON mirrors FormField on the wire with an untyped default.
type fieldJSON struct {
	ID           string          `json:"id"`
	Kind         FieldKind       `json:"kind"`
	Label        string          `json:"label"`
	Placeholder  string          `json:"placeholder,omitempty"`
	Description  string          `json:"description,omitempty"`
	Required     bool            `json:"required"`
	Options      []string        `json:"options,omitempty"`
	DefaultValue json.RawMessage `json:"defaultValue,omitempty"`
}

func (f FormField) MarshalJSON() ([]byte, error) {
	wire := fieldJSON{
		ID:          f.ID,
		Kind:        f.Kind,
		Label:       f.Label,
		Placeholder: f.Placeholder,
		Description: f.Description,
		Required:    f.Required,
		Options:     f.Options,
	}

	if f.Default != nil {
		raw, err := json.Marshal(f.Default.Raw())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal default value of field %s: %w", f.ID, err)
		}

		wire.DefaultValue = raw
	}

	return json.Marshal(wire)
}

func (f *FormField) UnmarshalJSON(data []byte) error {
	var wire fieldJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*f = FormField{
		ID:          wire.ID,
		Kind:        wire.Kind,
		Label:       wire.Label,
		Placeholder: wire.Placeholder,
		Description: wire.Description,
		Required:    wire.Required,
		Options:     wire.Options,
	}

	if len(wire.DefaultValue) == 0 || string(wire.DefaultValue) == "null" {
		return nil
	}

	var raw any
	if err := json.Unmarshal(wire.DefaultValue, &raw); err != nil {
		return fmt.Errorf("failed to decode default value of field %s: %w", wire.ID, err)
	}

	value, err := DefaultFor(wire.Kind, raw)
	if err != nil {
		return fmt.Errorf("invalid default value of field %s: %w", wire.ID, err)
	}

	f.Default = value

	return nil
}

// fieldYAML mirrors FormField in YAML documents.
type fieldYAML struct {
	ID           string    `yaml:"id"`
	Kind         FieldKind `yaml:"kind"`
	Label        string    `yaml:"label"`
	Placeholder  string    `yaml:"placeholder,omitempty"`
	Description  string    `yaml:"description,omitempty"`
	Required     bool      `yaml:"required"`
	Options      []string  `yaml:"options,omitempty"`
	DefaultValue any       `yaml:"defaultValue,omitempty"`
}

func (f FormField) MarshalYAML() (any, error) {
	wire := fieldYAML{
		ID:          f.ID,
		Kind:        f.Kind,
		Label:       f.Label,
		Placeholder: f.Placeholder,
		Description: f.Description,
		Required:    f.Required,
		Options:     f.Options,
	}

	if f.Default != nil {
		wire.DefaultValue = f.Default.Raw()
	}

	return wire, nil
}

// UnmarshalYAML decodes through the yaml.v3 unmarshal callback.
func (f *FormField) UnmarshalYAML(unmarshal func(any) error) error {
	var wire fieldYAML
	if err := unmarshal(&wire); err != nil {
		return err
	}

	*f = FormField{
		ID:          wire.ID,
		Kind:        wire.Kind,
		Label:       wire.Label,
		Placeholder: wire.Placeholder,
		Description: wire.Description,
		Required:    wire.Required,
		Options:     wire.Options,
	}

	if wire.DefaultValue == nil {
		return nil
	}

	value, err := DefaultFor(wire.Kind, wire.DefaultValue)
	if err != nil {
		return fmt.Errorf("invalid default value of field %s: %w", wire.ID, err)
	}

	f.Default = value

	return nil
}
