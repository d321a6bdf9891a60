package models_test

import (
	"encoding/json"
	"testing"

	"github.com/dukex/formflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestKindTable(t *testing.T) {
	t.Parallel()

	for _, kind := range models.Kinds() {
		spec, ok := models.LookupKind(kind)
		require.True(t, ok)
		assert.Equal(t, kind, spec.Kind)

		// Only headings bound steps, and they capture nothing.
		assert.Equal(t, kind == models.KindHeading, spec.StepBoundary, kind)
		assert.Equal(t, kind != models.KindHeading, spec.Capturable, kind)
	}

	for _, kind := range []models.FieldKind{models.KindSelect, models.KindCheckbox, models.KindRadio} {
		assert.True(t, kind.Spec().RequiresOptions, kind)
	}

	assert.False(t, models.KindFile.Spec().AcceptsDefault)
	assert.False(t, models.FieldKind("signature").Valid())
}

func TestFormField_DefaultValue_JSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		payload  string
		expected models.Value
	}{
		{
			name:     "number",
			payload:  `{"id":"a","kind":"number","label":"Team size","required":false,"defaultValue":3}`,
			expected: models.NumberValue(3),
		},
		{
			name:     "checkbox",
			payload:  `{"id":"b","kind":"checkbox","label":"Tracks","required":false,"options":["A","B"],"defaultValue":["B"]}`,
			expected: models.ChoicesValue{"B"},
		},
		{
			name:     "text",
			payload:  `{"id":"c","kind":"text","label":"Name","required":true,"defaultValue":"Acme"}`,
			expected: models.TextValue("Acme"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var field models.FormField
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &field))
			assert.Equal(t, tt.expected, field.Default)

			encoded, err := json.Marshal(field)
			require.NoError(t, err)
			assert.JSONEq(t, tt.payload, string(encoded))
		})
	}
}

func TestFormField_DefaultValue_Rejected(t *testing.T) {
	t.Parallel()

	var field models.FormField

	err := json.Unmarshal([]byte(`{"id":"f","kind":"file","label":"Deck","defaultValue":["x"]}`), &field)
	require.ErrorIs(t, err, models.ErrDefaultNotAllowed)

	err = json.Unmarshal([]byte(`{"id":"n","kind":"number","label":"Size","defaultValue":"many"}`), &field)
	require.ErrorIs(t, err, models.ErrShapeMismatch)
}

func TestFormTemplate_YAML(t *testing.T) {
	t.Parallel()

	doc := `
title: Demo day
category: events
status: draft
fields:
  - id: h
    kind: heading
    label: About
  - id: size
    kind: number
    label: Team size
    required: true
    defaultValue: 4
  - id: day
    kind: date
    label: Preferred day
    defaultValue: "2026-11-02"
`

	var template models.FormTemplate
	require.NoError(t, yaml.Unmarshal([]byte(doc), &template))

	require.Len(t, template.Fields, 3)
	assert.Equal(t, "Demo day", template.Title)
	assert.True(t, template.Fields[0].IsHeading())
	assert.Equal(t, models.NumberValue(4), template.Fields[1].Default)
	assert.Equal(t, "2026-11-02", template.Fields[2].Default.Raw())

	encoded, err := yaml.Marshal(&template)
	require.NoError(t, err)

	var decoded models.FormTemplate
	require.NoError(t, yaml.Unmarshal(encoded, &decoded))
	assert.Equal(t, template.Fields[1].Default, decoded.Fields[1].Default)
}

func TestFormTemplate_Clone(t *testing.T) {
	t.Parallel()

	original := &models.FormTemplate{
		Title: "Intake",
		Fields: []*models.FormField{
			{ID: "s", Kind: models.KindSelect, Options: []string{"A"}, Default: models.TextValue("A")},
		},
	}

	clone := original.Clone()
	clone.Fields[0].Options[0] = "changed"
	clone.Fields[0].Label = "changed"

	assert.Equal(t, "A", original.Fields[0].Options[0])
	assert.Empty(t, original.Fields[0].Label)
	assert.Equal(t, 0, original.FieldIndex("s"))
	assert.Nil(t, original.Field("missing"))
}
