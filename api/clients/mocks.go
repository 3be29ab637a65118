package clients

import (
	"context"

	"github.com/ruteri/holo-auth-client/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockRegistrationAuthority implements interfaces.RegistrationAuthority for testing.
type MockRegistrationAuthority struct {
	mock.Mock
}

// Register records the call and returns the configured error.
func (m *MockRegistrationAuthority) Register(ctx context.Context, cfg interfaces.Configuration, key interfaces.AgentPubKey) error {
	args := m.Called(ctx, cfg, key)
	return args.Error(0)
}

// MockOverlayAuthority implements interfaces.OverlayAuthority for testing.
type MockOverlayAuthority struct {
	mock.Mock
}

// Attempt records the call and returns the configured error.
func (m *MockOverlayAuthority) Attempt(ctx context.Context, cfg interfaces.Configuration, key interfaces.AgentPubKey) error {
	args := m.Called(ctx, cfg, key)
	return args.Error(0)
}

// MockNotifier implements interfaces.Notifier for testing.
type MockNotifier struct {
	mock.Mock
}

// NotifyFailure records the call and returns the configured error.
func (m *MockNotifier) NotifyFailure(ctx context.Context, email string, data string) error {
	args := m.Called(ctx, email, data)
	return args.Error(0)
}
