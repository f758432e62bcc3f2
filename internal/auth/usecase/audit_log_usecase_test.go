package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	authService "github.com/cryptshare/cryptshare/internal/auth/service"
	"github.com/cryptshare/cryptshare/internal/httputil"
)

type fakeTxManager struct{}

func (f *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memAuditLogRepo is an in-memory AuditLogRepository keeping insertion order.
type memAuditLogRepo struct {
	mu   sync.Mutex
	logs []*authDomain.AuditLog
}

func (r *memAuditLogRepo) Create(ctx context.Context, auditLog *authDomain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, auditLog)
	return nil
}

func (r *memAuditLogRepo) List(ctx context.Context, offset, limit int) ([]*authDomain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reversed := make([]*authDomain.AuditLog, 0, len(r.logs))
	for i := len(r.logs) - 1; i >= 0; i-- {
		reversed = append(reversed, r.logs[i])
	}
	return page(reversed, offset, limit), nil
}

func (r *memAuditLogRepo) ListAsc(ctx context.Context, offset, limit int) ([]*authDomain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return page(r.logs, offset, limit), nil
}

func (r *memAuditLogRepo) GetLastSignature(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.logs) == 0 {
		return nil, nil
	}
	return r.logs[len(r.logs)-1].Signature, nil
}

func page(logs []*authDomain.AuditLog, offset, limit int) []*authDomain.AuditLog {
	if offset >= len(logs) {
		return nil
	}
	end := offset + limit
	if end > len(logs) {
		end = len(logs)
	}
	return logs[offset:end]
}

func newAuditTestUseCase(t *testing.T) (AuditLogUseCase, *memAuditLogRepo) {
	t.Helper()

	signer := authService.NewAuditSigner([]byte("test-audit-signing-key-material!"))

	repo := &memAuditLogRepo{}
	return NewAuditLogUseCase(&fakeTxManager{}, repo, signer), repo
}

func TestAuditLogUseCase_Record(t *testing.T) {
	ctx := context.Background()
	uc, repo := newAuditTestUseCase(t)

	userID := uuid.Must(uuid.NewV7())

	require.NoError(t, uc.Record(ctx, &userID, authDomain.AuditAuthLogin, "auth/login", map[string]any{"mfa_enabled": true}))
	require.NoError(t, uc.Record(ctx, &userID, authDomain.AuditFileUpload, "files/report.pdf", nil))

	require.Len(t, repo.logs, 2)
	assert.NotEmpty(t, repo.logs[0].Signature)
	assert.NotEmpty(t, repo.logs[1].Signature)
	assert.NotEqual(t, repo.logs[0].Signature, repo.logs[1].Signature)
	assert.NotEqual(t, repo.logs[0].RequestID, uuid.Nil, "request id is generated when the context has none")
}

func TestAuditLogUseCase_Record_RequestIDFromContext(t *testing.T) {
	uc, repo := newAuditTestUseCase(t)

	requestID := uuid.Must(uuid.NewV7())
	ctx := httputil.WithRequestID(context.Background(), requestID)

	require.NoError(t, uc.Record(ctx, nil, authDomain.AuditFileAccess, "files/report.pdf", nil))

	require.Len(t, repo.logs, 1)
	assert.Equal(t, requestID, repo.logs[0].RequestID)
	assert.Nil(t, repo.logs[0].UserID)
}

func TestAuditLogUseCase_List(t *testing.T) {
	ctx := context.Background()
	uc, _ := newAuditTestUseCase(t)

	userID := uuid.Must(uuid.NewV7())
	require.NoError(t, uc.Record(ctx, &userID, authDomain.AuditAuthLogin, "auth/login", nil))
	require.NoError(t, uc.Record(ctx, &userID, authDomain.AuditFileUpload, "files/a.txt", nil))

	logs, err := uc.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, authDomain.AuditFileUpload, logs[0].Action, "newest first")
	assert.Equal(t, authDomain.AuditAuthLogin, logs[1].Action)
}

func TestAuditLogUseCase_VerifyChain(t *testing.T) {
	ctx := context.Background()

	t.Run("empty chain", func(t *testing.T) {
		uc, _ := newAuditTestUseCase(t)

		verified, err := uc.VerifyChain(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, verified)
	})

	t.Run("intact chain", func(t *testing.T) {
		uc, _ := newAuditTestUseCase(t)

		userID := uuid.Must(uuid.NewV7())
		for i := 0; i < 5; i++ {
			require.NoError(t, uc.Record(ctx, &userID, authDomain.AuditFileAccess, "files/report.pdf", nil))
		}

		verified, err := uc.VerifyChain(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, verified)
	})

	t.Run("tampered entry", func(t *testing.T) {
		uc, repo := newAuditTestUseCase(t)

		userID := uuid.Must(uuid.NewV7())
		for i := 0; i < 3; i++ {
			require.NoError(t, uc.Record(ctx, &userID, authDomain.AuditFileAccess, "files/report.pdf", nil))
		}

		repo.logs[1].Resource = "files/other.pdf"

		verified, err := uc.VerifyChain(ctx)
		assert.ErrorIs(t, err, authDomain.ErrSignatureInvalid)
		assert.Equal(t, 1, verified, "entries before the tamper still verify")
	})

	t.Run("deleted entry breaks successors", func(t *testing.T) {
		uc, repo := newAuditTestUseCase(t)

		userID := uuid.Must(uuid.NewV7())
		for i := 0; i < 3; i++ {
			require.NoError(t, uc.Record(ctx, &userID, authDomain.AuditFileAccess, "files/report.pdf", nil))
		}

		repo.logs = append(repo.logs[:1], repo.logs[2:]...)

		verified, err := uc.VerifyChain(ctx)
		assert.ErrorIs(t, err, authDomain.ErrSignatureInvalid)
		assert.Equal(t, 1, verified)
	})
}
