// Package mocks provides testify mocks of the storage and event boundaries.
package mocks

import (
	"context"

	"github.com/dukex/formflow/pkg/eventbus"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher is a mock implementation of eventbus.EventPublisher interface.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, key string, event eventbus.Event) error {
	args := m.Called(ctx, key, event)

	return args.Error(0)
}
