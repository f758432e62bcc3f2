package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	authService "github.com/cryptshare/cryptshare/internal/auth/service"
	"github.com/cryptshare/cryptshare/internal/database"
	apperrors "github.com/cryptshare/cryptshare/internal/errors"
	"github.com/cryptshare/cryptshare/internal/httputil"
)

// verifyChainPageSize is the page size used when replaying the chain.
const verifyChainPageSize = 500

// auditLogUseCase implements AuditLogUseCase with an HMAC signature chain:
// each entry is signed over its content plus the previous entry's signature,
// so rewriting or deleting history breaks every later signature.
type auditLogUseCase struct {
	txManager    database.TxManager
	auditLogRepo AuditLogRepository
	signer       authService.AuditSigner
}

// NewAuditLogUseCase creates a new AuditLogUseCase with the provided dependencies.
func NewAuditLogUseCase(
	txManager database.TxManager,
	auditLogRepo AuditLogRepository,
	signer authService.AuditSigner,
) AuditLogUseCase {
	return &auditLogUseCase{
		txManager:    txManager,
		auditLogRepo: auditLogRepo,
		signer:       signer,
	}
}

// Record appends a signed audit log entry. Reading the previous signature and
// inserting the new entry happen in one transaction, otherwise two concurrent
// writers could chain onto the same predecessor.
func (a *auditLogUseCase) Record(
	ctx context.Context,
	userID *uuid.UUID,
	action, resource string,
	metadata map[string]any,
) error {
	requestID, ok := httputil.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.Must(uuid.NewV7())
	}

	auditLog := &authDomain.AuditLog{
		ID:        uuid.Must(uuid.NewV7()),
		RequestID: requestID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	err := a.txManager.WithTx(ctx, func(ctx context.Context) error {
		prevSignature, err := a.auditLogRepo.GetLastSignature(ctx)
		if err != nil {
			return err
		}

		signature, err := a.signer.Sign(prevSignature, auditLog)
		if err != nil {
			return err
		}
		auditLog.Signature = signature

		return a.auditLogRepo.Create(ctx, auditLog)
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to record audit log")
	}

	return nil
}

// List retrieves audit logs ordered newest first with pagination.
func (a *auditLogUseCase) List(ctx context.Context, offset, limit int) ([]*authDomain.AuditLog, error) {
	auditLogs, err := a.auditLogRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}

	return auditLogs, nil
}

// VerifyChain replays all entries oldest first and recomputes each signature
// against its predecessor. Returns the count of entries verified before the
// first failure.
func (a *auditLogUseCase) VerifyChain(ctx context.Context) (int, error) {
	var (
		prevSignature []byte
		verified      int
		offset        int
	)

	for {
		page, err := a.auditLogRepo.ListAsc(ctx, offset, verifyChainPageSize)
		if err != nil {
			return verified, apperrors.Wrap(err, "failed to read audit logs")
		}
		if len(page) == 0 {
			return verified, nil
		}

		for _, auditLog := range page {
			if err := a.signer.Verify(prevSignature, auditLog); err != nil {
				return verified, apperrors.Wrap(err, "audit chain broken at entry "+auditLog.ID.String())
			}
			prevSignature = auditLog.Signature
			verified++
		}

		offset += len(page)
	}
}
