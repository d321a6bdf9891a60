package fields

import (
	"fmt"
	"slices"

	"github.com/dukex/formflow/pkg/models"
)

func spec(kind models.FieldKind) models.KindSpec {
	s, _ := models.LookupKind(kind)

	return s
}

func builtinHandlers() []Handler {
	return []Handler{
		{
			Spec:   spec(models.KindText),
			Widget: WidgetText,
			Schema: stringSchema,
		},
		{
			Spec:   spec(models.KindLongText),
			Widget: WidgetTextarea,
			Schema: stringSchema,
		},
		{
			Spec:   spec(models.KindNumber),
			Widget: WidgetNumber,
			Rules:  []Rule{RuleNumber},
			Schema: func(*models.FormField) map[string]any {
				return map[string]any{"type": "number"}
			},
		},
		{
			Spec:   spec(models.KindEmail),
			Widget: WidgetEmail,
			Rules:  []Rule{RuleEmail},
			Check:  checkEmail,
			Schema: func(*models.FormField) map[string]any {
				return map[string]any{"type": "string", "format": "email"}
			},
		},
		{
			Spec:   spec(models.KindSelect),
			Widget: WidgetSelect,
			Rules:  []Rule{RuleOneOf},
			Check:  checkOneOf,
			Schema: enumSchema,
		},
		{
			Spec:   spec(models.KindRadio),
			Widget: WidgetRadio,
			Rules:  []Rule{RuleOneOf},
			Check:  checkOneOf,
			Schema: enumSchema,
		},
		{
			Spec:   spec(models.KindCheckbox),
			Widget: WidgetCheckbox,
			Rules:  []Rule{RuleSubsetOf},
			Check:  checkSubsetOf,
			Schema: func(field *models.FormField) map[string]any {
				return map[string]any{
					"type":  "array",
					"items": enumSchema(field),
				}
			},
		},
		{
			Spec:   spec(models.KindDate),
			Widget: WidgetDate,
			Rules:  []Rule{RuleDate},
			Schema: func(*models.FormField) map[string]any {
				return map[string]any{"type": "string", "format": "date"}
			},
		},
		{
			Spec:      spec(models.KindFile),
			Widget:    WidgetFile,
			Rules:     []Rule{RuleUpload},
			Serialize: serializeUpload,
			Schema: func(*models.FormField) map[string]any {
				return map[string]any{
					"type":     "object",
					"required": []any{"key", "url", "fileName"},
					"properties": map[string]any{
						"key":      map[string]any{"type": "string", "minLength": 1},
						"url":      map[string]any{"type": "string", "minLength": 1},
						"fileName": map[string]any{"type": "string"},
						"size":     map[string]any{"type": "integer", "minimum": 0},
					},
				}
			},
		},
		{
			Spec:   spec(models.KindHeading),
			Widget: WidgetHeading,
		},
	}
}

func checkEmail(r *Registry, field *models.FormField, value models.Value) *Issue {
	text, _ := value.Raw().(string)

	if err := r.validate.Var(text, "email"); err != nil {
		return &Issue{FieldID: field.ID, Rule: RuleEmail, Message: fmt.Sprintf("%q is not a valid email address", text)}
	}

	return nil
}

func checkOneOf(_ *Registry, field *models.FormField, value models.Value) *Issue {
	choice, _ := value.Raw().(string)

	if !slices.Contains(field.Options, choice) {
		return &Issue{FieldID: field.ID, Rule: RuleOneOf, Message: fmt.Sprintf("%q is not one of the options", choice)}
	}

	return nil
}

func checkSubsetOf(_ *Registry, field *models.FormField, value models.Value) *Issue {
	choices, _ := value.(models.ChoicesValue)

	for _, choice := range choices {
		if !slices.Contains(field.Options, choice) {
			return &Issue{FieldID: field.ID, Rule: RuleSubsetOf, Message: fmt.Sprintf("%q is not one of the options", choice)}
		}
	}

	return nil
}

func serializeUpload(value models.Value) (any, error) {
	upload, ok := value.(models.UploadValue)
	if !ok || upload.Reference.Key == "" {
		return nil, ErrUnresolvedUpload
	}

	return upload.Reference, nil
}

func stringSchema(*models.FormField) map[string]any {
	return map[string]any{"type": "string"}
}

func enumSchema(field *models.FormField) map[string]any {
	if len(field.Options) == 0 {
		return map[string]any{"type": "string"}
	}

	options := make([]any, 0, len(field.Options))
	for _, option := range field.Options {
		if !slices.Contains(options, any(option)) {
			options = append(options, option)
		}
	}

	return map[string]any{"type": "string", "enum": options}
}
