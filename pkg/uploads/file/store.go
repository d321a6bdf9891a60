// Package file stores uploaded files on the local file system.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/uploads"
	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxBytes is the size limit used when none is configured.
const DefaultMaxBytes int64 = 10 << 20

// Store writes uploads under a root directory, one file per scope key.
type Store struct {
	root     string
	maxBytes int64
}

// NewStore creates a store rooted at root. A root given as a file:// URL is accepted.
func NewStore(root string, maxBytes int64) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Store{
		root:     strings.Replace(root, "file://", "", 1),
		maxBytes: maxBytes,
	}
}

// Upload writes file under scopeKey, replacing an earlier upload with the same key.
func (s *Store) Upload(_ context.Context, scopeKey string, file uploads.File) (models.UploadReference, error) {
	if err := uploads.ValidateScopeKey(scopeKey); err != nil {
		return models.UploadReference{}, err
	}

	if file.Size() == 0 {
		return models.UploadReference{}, fmt.Errorf("%w: %s", uploads.ErrEmptyFile, file.Name)
	}

	if file.Size() > s.maxBytes {
		return models.UploadReference{}, fmt.Errorf("%w: %s is %d bytes, limit is %d", uploads.ErrFileTooLarge, file.Name, file.Size(), s.maxBytes)
	}

	target := filepath.Join(s.root, filepath.FromSlash(scopeKey))

	err := os.MkdirAll(filepath.Dir(target), 0750)
	if err != nil {
		return models.UploadReference{}, fmt.Errorf("failed to create upload directory: %w", err)
	}

	err = os.WriteFile(target, file.Data, 0600)
	if err != nil {
		return models.UploadReference{}, fmt.Errorf("failed to write upload %s: %w", scopeKey, err)
	}

	absolute, err := filepath.Abs(target)
	if err != nil {
		absolute = target
	}

	contentType := file.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(file.Data).String()
	}

	return models.UploadReference{
		Key:         scopeKey,
		URL:         "file://" + filepath.ToSlash(absolute),
		FileName:    file.Name,
		ContentType: contentType,
		Size:        file.Size(),
		Checksum:    file.Checksum(),
	}, nil
}
