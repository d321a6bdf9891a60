package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/formflow/pkg/authoring"
	"github.com/dukex/formflow/pkg/models"
	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("unknown template format")

type format string

const (
	formatJSON format = "json"
	formatYAML format = "yaml"
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

func readTemplate(path string) (*models.FormTemplate, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	var template models.FormTemplate

	switch f {
	case formatYAML:
		err = yaml.Unmarshal(data, &template)
	default:
		err = json.Unmarshal(data, &template)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	for _, field := range template.Fields {
		if !field.Kind.Valid() {
			return nil, fmt.Errorf("field %s: %w: %s", field.ID, authoring.ErrInvalidKind, field.Kind)
		}
	}

	return &template, nil
}

func writeTemplate(path string, template *models.FormTemplate) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}

	var data []byte

	switch f {
	case formatYAML:
		data, err = yaml.Marshal(template)
	default:
		data, err = json.MarshalIndent(template, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
