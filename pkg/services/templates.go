package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dukex/formflow/pkg/fields"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/dukex/formflow/pkg/steps"
)

// Templates serves the read side of templates and submissions.
type Templates struct {
	persistence persistence.Persistence
	registry    *fields.Registry
}

// NewTemplates creates a new template service.
func NewTemplates(persistence persistence.Persistence, registry *fields.Registry) *Templates {
	return &Templates{
		persistence: persistence,
		registry:    registry,
	}
}

// HealthCheck checks the health of the persistence layer.
func (t *Templates) HealthCheck(ctx context.Context) (string, bool) {
	if t.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := t.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListTemplatesRequest contains options for listing templates.
type ListTemplatesRequest struct {
	// Filtering
	Status   *models.TemplateStatus
	Category string

	// Sorting
	SortBy    string
	SortOrder string
}

// ListTemplates retrieves templates with filtering and sorting.
func (t *Templates) ListTemplates(ctx context.Context, req ListTemplatesRequest) ([]*models.FormTemplate, error) {
	if err := validateListTemplatesRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	opts := persistence.ListTemplatesOptions{
		Status:    req.Status,
		Category:  req.Category,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}

	templates, err := t.persistence.TemplateRepository().List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	return templates, nil
}

func validateListTemplatesRequest(req *ListTemplatesRequest) error {
	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	if !slices.Contains(persistence.SortFields, req.SortBy) {
		return NewValidationError(
			"validateListTemplatesRequest",
			"INVALID_SORT_FIELD",
			fmt.Sprintf("invalid sort field '%s', allowed: %s", req.SortBy, strings.Join(persistence.SortFields, ", ")),
			ErrInvalidSortField,
		)
	}

	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		return NewValidationError(
			"validateListTemplatesRequest",
			"INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder),
			ErrInvalidSortOrder,
		)
	}

	if req.Status != nil {
		allowed := []models.TemplateStatus{models.TemplateStatusDraft, models.TemplateStatusPublished}

		if !slices.Contains(allowed, *req.Status) {
			return NewValidationError(
				"validateListTemplatesRequest",
				"INVALID_STATUS",
				fmt.Sprintf("invalid status '%s'", *req.Status),
				ErrInvalidStatus,
			)
		}
	}

	req.Category = strings.TrimSpace(req.Category)

	return nil
}

// FetchByID retrieves a template by its ID.
func (t *Templates) FetchByID(ctx context.Context, id string) (*models.FormTemplate, error) {
	template, err := t.persistence.TemplateRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if template == nil {
		return nil, notFound("FetchByID", "TEMPLATE_NOT_FOUND", id, ErrTemplateNotFound)
	}

	return template, nil
}

// Steps partitions a stored template into wizard steps.
func (t *Templates) Steps(ctx context.Context, id string) ([]steps.Step, error) {
	template, err := t.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return steps.Partition(template.Fields), nil
}

// Schema returns the response JSON Schema of a stored template.
func (t *Templates) Schema(ctx context.Context, id string) (map[string]any, error) {
	template, err := t.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return t.registry.ResponseSchema(template), nil
}

// Delete removes a template by its ID.
func (t *Templates) Delete(ctx context.Context, id string) error {
	if _, err := t.FetchByID(ctx, id); err != nil {
		return err
	}

	if err := t.persistence.TemplateRepository().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	return nil
}

// Submissions lists the submissions of a template, oldest first.
func (t *Templates) Submissions(ctx context.Context, templateID string) ([]*models.FormSubmission, error) {
	if _, err := t.FetchByID(ctx, templateID); err != nil {
		return nil, err
	}

	submissions, err := t.persistence.SubmissionRepository().ListByForm(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return submissions, nil
}

// Submission retrieves a submission by its ID.
func (t *Templates) Submission(ctx context.Context, id string) (*models.FormSubmission, error) {
	submission, err := t.persistence.SubmissionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if submission == nil {
		return nil, notFound("Submission", "SUBMISSION_NOT_FOUND", id, ErrSubmissionNotFound)
	}

	return submission, nil
}
