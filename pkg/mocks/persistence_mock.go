package mocks

import (
	"context"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockTemplateRepository is a mock implementation of persistence.TemplateRepository interface.
type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) Create(ctx context.Context, template *models.FormTemplate) (string, error) {
	args := m.Called(ctx, template)

	return args.String(0), args.Error(1)
}

func (m *MockTemplateRepository) Update(ctx context.Context, id string, template *models.FormTemplate) error {
	args := m.Called(ctx, id, template)

	return args.Error(0)
}

func (m *MockTemplateRepository) GetByID(ctx context.Context, id string) (*models.FormTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.FormTemplate), args.Error(1)
}

func (m *MockTemplateRepository) List(ctx context.Context, opts persistence.ListTemplatesOptions) ([]*models.FormTemplate, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.FormTemplate), args.Error(1)
}

func (m *MockTemplateRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockSubmissionRepository is a mock implementation of persistence.SubmissionRepository interface.
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, submission *models.FormSubmission) (string, error) {
	args := m.Called(ctx, submission)

	return args.String(0), args.Error(1)
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, id string) (*models.FormSubmission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.FormSubmission), args.Error(1)
}

func (m *MockSubmissionRepository) ListByForm(ctx context.Context, formID string) ([]*models.FormSubmission, error) {
	args := m.Called(ctx, formID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.FormSubmission), args.Error(1)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	Templates   *MockTemplateRepository
	Submissions *MockSubmissionRepository
}

// NewMockPersistence creates a MockPersistence with fresh repository mocks.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		Templates:   &MockTemplateRepository{},
		Submissions: &MockSubmissionRepository{},
	}
}

func (m *MockPersistence) TemplateRepository() persistence.TemplateRepository {
	return m.Templates
}

func (m *MockPersistence) SubmissionRepository() persistence.SubmissionRepository {
	return m.Submissions
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
