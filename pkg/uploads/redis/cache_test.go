package redis_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/uploads"
	uploadcache "github.com/dukex/formflow/pkg/uploads/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type countingUploader struct {
	calls atomic.Int32
	fail  error
}

func (u *countingUploader) Upload(_ context.Context, scopeKey string, file uploads.File) (models.UploadReference, error) {
	u.calls.Add(1)

	if u.fail != nil {
		return models.UploadReference{}, u.fail
	}

	return models.UploadReference{
		Key:      scopeKey,
		URL:      "mem://" + scopeKey,
		FileName: file.Name,
		Size:     file.Size(),
		Checksum: file.Checksum(),
	}, nil
}

func startRedis(t *testing.T) string {
	t.Helper()

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	return "redis://" + endpoint + "/0"
}

func TestCachedUploader(t *testing.T) {
	url := startRedis(t)

	client, err := uploadcache.NewClient(t.Context(), url)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	next := &countingUploader{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := uploadcache.NewCachedUploader(client, next, time.Minute, logger)

	key := uploads.ScopeKey("tpl-1", "deck", "deck.pdf")
	deck := uploads.File{Name: "deck.pdf", Data: []byte("v1")}

	first, err := cache.Upload(t.Context(), key, deck)
	require.NoError(t, err)

	second, err := cache.Upload(t.Context(), key, deck)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), next.calls.Load(), "second resolution must be served from the cache")

	changed, err := cache.Upload(t.Context(), key, uploads.File{Name: "deck.pdf", Data: []byte("v2")})
	require.NoError(t, err)
	assert.NotEqual(t, first.Checksum, changed.Checksum)
	assert.Equal(t, int32(2), next.calls.Load(), "new contents under the same key are uploaded again")
}

func TestCachedUploader_PropagatesUploadFailure(t *testing.T) {
	url := startRedis(t)

	client, err := uploadcache.NewClient(t.Context(), url)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	next := &countingUploader{fail: errors.New("bucket unavailable")}
	cache := uploadcache.NewCachedUploader(client, next, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err = cache.Upload(t.Context(), "forms/t/f/x-a.txt", uploads.File{Name: "a.txt", Data: []byte("a")})
	require.Error(t, err)

	_, err = cache.Upload(t.Context(), "forms/t/f/x-a.txt", uploads.File{Name: "a.txt", Data: []byte("a")})
	require.Error(t, err)
	assert.Equal(t, int32(2), next.calls.Load(), "failures are never cached")
}

func TestNewClient_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := uploadcache.NewClient(t.Context(), "not a url")
	require.Error(t, err)
}
