// Package mocks provides mock implementations for testing HTTP handlers.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/cryptshare/cryptshare/internal/file/domain"
	"github.com/cryptshare/cryptshare/internal/file/usecase"
	userDomain "github.com/cryptshare/cryptshare/internal/user/domain"
)

// MockFileUseCase is a mock implementation of UseCase for testing.
type MockFileUseCase struct {
	mock.Mock
}

// Upload mocks the Upload method of UseCase.
func (m *MockFileUseCase) Upload(ctx context.Context, owner *userDomain.User, input usecase.UploadFileInput) (*usecase.UploadFileOutput, error) {
	args := m.Called(ctx, owner, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.UploadFileOutput), args.Error(1)
}

// Access mocks the Access method of UseCase.
func (m *MockFileUseCase) Access(ctx context.Context, shareToken string, caller *userDomain.User, action domain.AccessAction) (*usecase.AccessFileOutput, error) {
	args := m.Called(ctx, shareToken, caller, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AccessFileOutput), args.Error(1)
}

// ShareLink mocks the ShareLink method of UseCase.
func (m *MockFileUseCase) ShareLink(ctx context.Context, caller *userDomain.User, fileID uuid.UUID) (*usecase.ShareLinkOutput, error) {
	args := m.Called(ctx, caller, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ShareLinkOutput), args.Error(1)
}

// ListOwn mocks the ListOwn method of UseCase.
func (m *MockFileUseCase) ListOwn(ctx context.Context, caller *userDomain.User, offset, limit int) ([]*domain.File, error) {
	args := m.Called(ctx, caller, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.File), args.Error(1)
}

// ListShared mocks the ListShared method of UseCase.
func (m *MockFileUseCase) ListShared(ctx context.Context, caller *userDomain.User, offset, limit int) ([]*domain.File, error) {
	args := m.Called(ctx, caller, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.File), args.Error(1)
}
