package mocks

import (
	"context"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/uploads"
	"github.com/stretchr/testify/mock"
)

// MockUploader is a mock implementation of uploads.Uploader interface.
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, scopeKey string, file uploads.File) (models.UploadReference, error) {
	args := m.Called(ctx, scopeKey, file)

	return args.Get(0).(models.UploadReference), args.Error(1)
}
