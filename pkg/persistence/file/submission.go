package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/google/uuid"
)

const submissionsDir = "submissions"

// SubmissionRepository handles submission-related file operations.
type SubmissionRepository struct {
	root string
	mu   sync.RWMutex
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(root string) *SubmissionRepository {
	return &SubmissionRepository{root: root}
}

// Create stores a submission record and returns its id.
func (sr *SubmissionRepository) Create(_ context.Context, submission *models.FormSubmission) (string, error) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	stored := *submission
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}

	data, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return "", persistence.NewSubmissionError("Create", stored.ID, err)
	}

	if err := writeDocument(sr.root, submissionsDir, stored.ID, data); err != nil {
		return "", persistence.NewSubmissionError("Create", stored.ID, err)
	}

	return stored.ID, nil
}

// GetByID retrieves a submission by its ID from the file system.
func (sr *SubmissionRepository) GetByID(_ context.Context, id string) (*models.FormSubmission, error) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	return sr.read(id)
}

// ListByForm returns the submissions to one template, oldest first.
func (sr *SubmissionRepository) ListByForm(_ context.Context, formID string) ([]*models.FormSubmission, error) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	root := os.DirFS(sr.root + "/" + submissionsDir)

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list submission files: %w", err)
	}

	submissions := make([]*models.FormSubmission, 0)

	for _, file := range jsonFiles {
		submission, err := sr.read(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, fmt.Errorf("failed to load submission %s: %w", file, err)
		}

		if submission != nil && submission.FormID == formID {
			submissions = append(submissions, submission)
		}
	}

	sort.SliceStable(submissions, func(i, j int) bool {
		return submissions[i].SubmittedAt.Before(submissions[j].SubmittedAt)
	})

	return submissions, nil
}

func (sr *SubmissionRepository) read(id string) (*models.FormSubmission, error) {
	filePath, err := documentPath(sr.root, submissionsDir, id)
	if err != nil {
		return nil, err
	}

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch submission %s: %w", id, err)
	}

	var submission models.FormSubmission

	err = json.Unmarshal(body, &submission)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal submission %s: %w", id, err)
	}

	return &submission, nil
}
