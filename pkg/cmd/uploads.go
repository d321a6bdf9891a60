package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/formflow/pkg/uploads"
	"github.com/dukex/formflow/pkg/uploads/file"
	"github.com/dukex/formflow/pkg/uploads/redis"
)

// NewUploader creates the file store rooted at uploadURL. When cacheURL is set
// the store is fronted by a Redis cache of resolved references.
func NewUploader(ctx context.Context, logger *slog.Logger, uploadURL string, maxBytes int64, cacheURL string) (uploads.Uploader, error) {
	root, found := strings.CutPrefix(uploadURL, "file://")
	if !found && strings.Contains(uploadURL, "://") {
		return nil, fmt.Errorf("%w: upload store %s", ErrUnsupportedProvider, uploadURL)
	}

	if root == "" {
		return nil, fmt.Errorf("%w: empty upload path", ErrUnsupportedProvider)
	}

	var uploader uploads.Uploader = file.NewStore(root, maxBytes)

	if cacheURL == "" {
		return uploader, nil
	}

	client, err := redis.NewClient(ctx, cacheURL)
	if err != nil {
		return nil, err
	}

	logger.Info("Upload reference cache enabled")

	return redis.NewCachedUploader(client, uploader, redis.DefaultTTL, logger), nil
}
