package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
)

// MockAuditLogUseCase is a mock implementation of AuditLogUseCase for testing.
type MockAuditLogUseCase struct {
	mock.Mock
}

// Record mocks the Record method of AuditLogUseCase.
func (m *MockAuditLogUseCase) Record(ctx context.Context, userID *uuid.UUID, action, resource string, metadata map[string]any) error {
	args := m.Called(ctx, userID, action, resource, metadata)
	return args.Error(0)
}

// List mocks the List method of AuditLogUseCase.
func (m *MockAuditLogUseCase) List(ctx context.Context, offset, limit int) ([]*authDomain.AuditLog, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.AuditLog), args.Error(1)
}

// VerifyChain mocks the VerifyChain method of AuditLogUseCase.
func (m *MockAuditLogUseCase) VerifyChain(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
