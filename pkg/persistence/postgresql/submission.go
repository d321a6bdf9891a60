package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/google/uuid"
)

const submissionColumns = `
			id
		  , form_id
		  , form_title
		  , submitted_by
		  , submitted_at
		  , responses
		  , status`

// SubmissionRepository handles submission-related database operations.
type SubmissionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(db *sql.DB, logger *slog.Logger) *SubmissionRepository {
	return &SubmissionRepository{db: db, logger: logger}
}

// Create inserts a submission and returns its id.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.FormSubmission) (string, error) {
	id := submission.ID
	if id == "" {
		generated, err := uuid.NewV7()
		if err != nil {
			return "", persistence.NewSubmissionError("Create", "", fmt.Errorf("failed to generate submission ID: %w", err))
		}

		id = generated.String()
	}

	submitterJSON, err := json.Marshal(submission.SubmittedBy)
	if err != nil {
		return "", persistence.NewSubmissionError("Create", id, fmt.Errorf("failed to marshal submitter: %w", err))
	}

	responses := submission.Responses
	if responses == nil {
		responses = map[string]any{}
	}

	responsesJSON, err := json.Marshal(responses)
	if err != nil {
		return "", persistence.NewSubmissionError("Create", id, fmt.Errorf("failed to marshal responses: %w", err))
	}

	query := `
		INSERT INTO form_submissions (id, form_id, form_title, submitted_by, submitted_at, responses, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		id, submission.FormID, submission.FormTitle, submitterJSON,
		submission.SubmittedAt, responsesJSON, submission.Status,
	)
	if err != nil {
		return "", persistence.NewSubmissionError("Create", id, err)
	}

	return id, nil
}

// GetByID returns the submission with id, or nil when it does not exist.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.FormSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM form_submissions WHERE id = $1`

	submission, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan submission: %w", err)
	}

	return submission, nil
}

// ListByForm returns the submissions to one template, oldest first.
func (r *SubmissionRepository) ListByForm(ctx context.Context, formID string) ([]*models.FormSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM form_submissions WHERE form_id = $1 ORDER BY submitted_at ASC, id`

	rows, err := r.db.QueryContext(ctx, query, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	submissions := make([]*models.FormSubmission, 0)

	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}

		submissions = append(submissions, submission)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}

	return submissions, nil
}

func scanSubmission(row scanner) (*models.FormSubmission, error) {
	var (
		submission    models.FormSubmission
		submitterJSON []byte
		responsesJSON []byte
		status        string
	)

	err := row.Scan(
		&submission.ID,
		&submission.FormID,
		&submission.FormTitle,
		&submitterJSON,
		&submission.SubmittedAt,
		&responsesJSON,
		&status,
	)
	if err != nil {
		return nil, err
	}

	submission.Status = models.SubmissionStatus(status)

	err = json.Unmarshal(submitterJSON, &submission.SubmittedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal submitter of submission %s: %w", submission.ID, err)
	}

	err = json.Unmarshal(responsesJSON, &submission.Responses)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal responses of submission %s: %w", submission.ID, err)
	}

	return &submission, nil
}
