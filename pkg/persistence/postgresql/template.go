package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/google/uuid"
)

const templateColumns = `
			id
		  , title
		  , description
		  , category
		  , fields
		  , status
		  , created_at
		  , updated_at`

// TemplateRepository handles template-related database operations.
type TemplateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db *sql.DB, logger *slog.Logger) *TemplateRepository {
	return &TemplateRepository{db: db, logger: logger}
}

// Create inserts a template and returns its id.
func (r *TemplateRepository) Create(ctx context.Context, template *models.FormTemplate) (string, error) {
	id := template.ID
	if id == "" {
		generated, err := uuid.NewV7()
		if err != nil {
			return "", persistence.NewTemplateError("Create", "", fmt.Errorf("failed to generate template ID: %w", err))
		}

		id = generated.String()
	}

	fieldsJSON, err := json.Marshal(template.Fields)
	if err != nil {
		return "", persistence.NewTemplateError("Create", id, fmt.Errorf("failed to marshal fields: %w", err))
	}

	query := `
		INSERT INTO form_templates (id, title, description, category, fields, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		id, template.Title, template.Description, template.Category, fieldsJSON,
		template.Status, template.CreatedAt, template.UpdatedAt,
	)
	if err != nil {
		return "", persistence.NewTemplateError("Create", id, err)
	}

	return id, nil
}

// Update replaces the stored template with the given id.
func (r *TemplateRepository) Update(ctx context.Context, id string, template *models.FormTemplate) error {
	fieldsJSON, err := json.Marshal(template.Fields)
	if err != nil {
		return persistence.NewTemplateError("Update", id, fmt.Errorf("failed to marshal fields: %w", err))
	}

	query := `
		UPDATE form_templates
		SET title = $2, description = $3, category = $4, fields = $5, status = $6, created_at = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		id, template.Title, template.Description, template.Category, fieldsJSON,
		template.Status, template.CreatedAt, template.UpdatedAt,
	)
	if err != nil {
		return persistence.NewTemplateError("Update", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewTemplateError("Update", id, err)
	}

	if affected == 0 {
		return persistence.NewTemplateError("Update", id, persistence.ErrTemplateNotFound)
	}

	return nil
}

// GetByID returns the template with id, or nil when it does not exist.
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.FormTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM form_templates WHERE id = $1`

	template, err := r.scanTemplate(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan template: %w", err)
	}

	return template, nil
}

// List returns the templates matching opts.
func (r *TemplateRepository) List(ctx context.Context, opts persistence.ListTemplatesOptions) ([]*models.FormTemplate, error) {
	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	// Validate sort parameters against allowlist before they reach the query text
	if !slices.Contains(persistence.SortFields, opts.SortBy) {
		return nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, opts.SortBy)
	}

	order := "DESC"
	if strings.EqualFold(opts.SortOrder, "asc") {
		order = "ASC"
	}

	sortColumn := opts.SortBy
	if sortColumn == "title" {
		sortColumn = "LOWER(title)"
	}

	var (
		conditions []string
		args       []any
	)

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if opts.Category != "" {
		args = append(args, opts.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	query := `SELECT ` + templateColumns + ` FROM form_templates`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY %s %s, id", sortColumn, order)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	templates := make([]*models.FormTemplate, 0)

	for rows.Next() {
		template, err := r.scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}

		templates = append(templates, template)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

// Delete removes a template.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM form_templates WHERE id = $1", id)
	if err != nil {
		return persistence.NewTemplateError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewTemplateError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewTemplateError("Delete", id, persistence.ErrTemplateNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *TemplateRepository) scanTemplate(row scanner) (*models.FormTemplate, error) {
	var (
		template   models.FormTemplate
		fieldsJSON []byte
		status     string
	)

	err := row.Scan(
		&template.ID,
		&template.Title,
		&template.Description,
		&template.Category,
		&fieldsJSON,
		&status,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	template.Status = models.TemplateStatus(status)

	err = json.Unmarshal(fieldsJSON, &template.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal fields of template %s: %w", template.ID, err)
	}

	return &template, nil
}
