// Package uploads defines the boundary that turns a locally attached file into
// a stable upload reference.
package uploads

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/dukex/formflow/pkg/models"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the upload size limit")
	ErrEmptyFile       = errors.New("file is empty")
	ErrInvalidScopeKey = errors.New("invalid upload scope key")
)

// File is a file attached to a form but not uploaded yet.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the length of the file contents.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// Checksum returns the hex sha256 of the file contents.
func (f File) Checksum() string {
	sum := sha256.Sum256(f.Data)

	return hex.EncodeToString(sum[:])
}

// Uploader stores files. Uploading twice under the same scope key stores the
// file once and returns an equivalent reference.
type Uploader interface {
	Upload(ctx context.Context, scopeKey string, file File) (models.UploadReference, error)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ScopeKey derives the storage key of a file attached to one field of one
// template. The same inputs always give the same key.
func ScopeKey(templateID, fieldID, fileName string) string {
	sum := sha256.Sum256([]byte(templateID + "\x00" + fieldID + "\x00" + fileName))

	name := unsafeName.ReplaceAllString(path.Base(fileName), "_")
	if name == "" || name == "." || name == "/" {
		name = "file"
	}

	return fmt.Sprintf("forms/%s/%s/%s-%s",
		unsafeName.ReplaceAllString(templateID, "_"),
		unsafeName.ReplaceAllString(fieldID, "_"),
		hex.EncodeToString(sum[:8]),
		name,
	)
}

// ValidateScopeKey rejects keys that could escape the storage root.
func ValidateScopeKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidScopeKey, key)
	}

	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidScopeKey, key)
		}
	}

	return nil
}

// IsClientError reports whether err was caused by the file itself rather than the store.
func IsClientError(err error) bool {
	return errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrEmptyFile) || errors.Is(err, ErrInvalidScopeKey)
}
