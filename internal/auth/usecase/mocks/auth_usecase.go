// Package mocks provides mock implementations for testing HTTP handlers.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cryptshare/cryptshare/internal/auth/usecase"
	userDomain "github.com/cryptshare/cryptshare/internal/user/domain"
)

// MockAuthUseCase is a mock implementation of AuthUseCase for testing.
type MockAuthUseCase struct {
	mock.Mock
}

// Login mocks the Login method of AuthUseCase.
func (m *MockAuthUseCase) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.LoginOutput), args.Error(1)
}

// ConfirmMFA mocks the ConfirmMFA method of AuthUseCase.
func (m *MockAuthUseCase) ConfirmMFA(ctx context.Context, input usecase.ConfirmMFAInput) (*usecase.ConfirmMFAOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ConfirmMFAOutput), args.Error(1)
}

// Authenticate mocks the Authenticate method of AuthUseCase.
func (m *MockAuthUseCase) Authenticate(ctx context.Context, accessToken string) (*userDomain.User, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}
