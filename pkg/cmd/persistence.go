// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/formflow/pkg/persistence"
	"github.com/dukex/formflow/pkg/persistence/file"
	"github.com/dukex/formflow/pkg/persistence/postgresql"
)

var ErrUnsupportedProvider = errors.New("unsupported provider")

// NewPersistence opens the persistence backend named by the scheme of
// databaseURL. A URL without a scheme is a file system root.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider, location := parsePersistenceProvider(databaseURL)

	switch provider {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, err
		}

		return p, nil
	case "file":
		if location == "" {
			return nil, fmt.Errorf("%w: empty file path", ErrUnsupportedProvider)
		}

		return file.NewPersistence(location), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}

func parsePersistenceProvider(databaseURL string) (string, string) {
	provider, location, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file", databaseURL
	}

	return provider, location
}
