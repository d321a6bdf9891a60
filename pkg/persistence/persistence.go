// Package persistence provides the storage boundary for form templates and submissions.
package persistence

import (
	"context"

	"github.com/dukex/formflow/pkg/models"
)

// Persistence groups the repositories of one storage backend.
type Persistence interface {
	TemplateRepository() TemplateRepository
	SubmissionRepository() SubmissionRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// TemplateRepository stores form templates.
// GetByID returns nil and no error when the template does not exist.
type TemplateRepository interface {
	Create(ctx context.Context, template *models.FormTemplate) (string, error)
	Update(ctx context.Context, id string, template *models.FormTemplate) error
	GetByID(ctx context.Context, id string) (*models.FormTemplate, error)
	List(ctx context.Context, opts ListTemplatesOptions) ([]*models.FormTemplate, error)
	Delete(ctx context.Context, id string) error
}

// SubmissionRepository stores form submissions.
// GetByID returns nil and no error when the submission does not exist.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.FormSubmission) (string, error)
	GetByID(ctx context.Context, id string) (*models.FormSubmission, error)
	ListByForm(ctx context.Context, formID string) ([]*models.FormSubmission, error)
}

// ListTemplatesOptions filters and orders template listings.
type ListTemplatesOptions struct {
	// Filtering
	Status   *models.TemplateStatus
	Category string

	// Sorting
	SortBy    string // created_at, updated_at, title
	SortOrder string // asc, desc
}

// SortFields lists the accepted ListTemplatesOptions.SortBy values.
var SortFields = []string{"created_at", "updated_at", "title"}
