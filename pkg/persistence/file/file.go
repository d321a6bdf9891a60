// Package file provides file-based persistence implementation for form templates and submissions.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/formflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root           string
	templateRepo   *TemplateRepository
	submissionRepo *SubmissionRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:           cleanRoot,
		templateRepo:   NewTemplateRepository(cleanRoot),
		submissionRepo: NewSubmissionRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// TemplateRepository returns the template repository implementation for file persistence.
func (fp *Persistence) TemplateRepository() persistence.TemplateRepository {
	return fp.templateRepo
}

// SubmissionRepository returns the submission repository implementation for file persistence.
func (fp *Persistence) SubmissionRepository() persistence.SubmissionRepository {
	return fp.submissionRepo
}

func documentPath(root, dir, id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid document id %q", id)
	}

	return filepath.Clean(filepath.Join(root, dir, id+".json")), nil
}

func writeDocument(root, dir, id string, data []byte) error {
	err := os.MkdirAll(filepath.Join(root, dir), 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	filePath, err := documentPath(root, dir, id)
	if err != nil {
		return err
	}

	// Readers see either the old or the new document.
	tmpPath := filePath + ".tmp"

	err = os.WriteFile(tmpPath, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", filePath, err)
	}

	return os.Rename(tmpPath, filePath)
}
