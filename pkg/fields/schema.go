package fields

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/formflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// ErrResponsesInvalid indicates assembled responses do not match the template's response schema.
var ErrResponsesInvalid = errors.New("responses do not match the form schema")

// ResponseSchema derives a JSON Schema describing the responses object of a
// submission to template.
func (r *Registry) ResponseSchema(template *models.FormTemplate) map[string]any {
	properties := make(map[string]any)
	required := make([]any, 0)

	for _, field := range template.Fields {
		handler, ok := r.handlers[field.Kind]
		if !ok || !handler.Spec.Capturable || handler.Schema == nil {
			continue
		}

		property := handler.Schema(field)
		if field.Label != "" {
			property["title"] = field.Label
		}

		if field.Description != "" {
			property["description"] = field.Description
		}

		properties[field.ID] = property

		if field.Required {
			required = append(required, field.ID)
		}
	}

	schema := map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"title":                template.Title,
		"properties":           properties,
		"additionalProperties": false,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// ValidateResponses checks responses against the response schema of template.
func (r *Registry) ValidateResponses(template *models.FormTemplate, responses map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(r.ResponseSchema(template))
	dataLoader := gojsonschema.NewGoLoader(responses)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to evaluate response schema: %w", err)
	}

	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrResponsesInvalid, strings.Join(details, "; "))
	}

	return nil
}
