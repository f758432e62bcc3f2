package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cryptshare/cryptshare/internal/file/domain"
	"github.com/cryptshare/cryptshare/internal/metrics"
	userDomain "github.com/cryptshare/cryptshare/internal/user/domain"
)

// useCaseWithMetrics decorates UseCase with metrics instrumentation.
type useCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUseCaseWithMetrics wraps a file UseCase with metrics recording.
func NewUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &useCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Upload records operation metrics and the uploaded byte count.
func (u *useCaseWithMetrics) Upload(ctx context.Context, owner *userDomain.User, input UploadFileInput) (*UploadFileOutput, error) {
	start := time.Now()
	output, err := u.next.Upload(ctx, owner, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "file", "upload", status)
	u.metrics.RecordDuration(ctx, "file", "upload", time.Since(start), status)
	if err == nil {
		u.metrics.RecordBytes(ctx, "file", "upload", output.File.SizeBytes)
	}

	return output, err
}

// Access records operation metrics and the served byte count.
func (u *useCaseWithMetrics) Access(ctx context.Context, shareToken string, caller *userDomain.User, action domain.AccessAction) (*AccessFileOutput, error) {
	start := time.Now()
	output, err := u.next.Access(ctx, shareToken, caller, action)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "file", "access", status)
	u.metrics.RecordDuration(ctx, "file", "access", time.Since(start), status)
	if err == nil {
		u.metrics.RecordBytes(ctx, "file", "access", int64(len(output.Plaintext)))
	}

	return output, err
}

// ShareLink records metrics for share link issuance.
func (u *useCaseWithMetrics) ShareLink(ctx context.Context, caller *userDomain.User, fileID uuid.UUID) (*ShareLinkOutput, error) {
	start := time.Now()
	output, err := u.next.ShareLink(ctx, caller, fileID)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "file", "share_link", status)
	u.metrics.RecordDuration(ctx, "file", "share_link", time.Since(start), status)

	return output, err
}

// ListOwn records metrics for own-file listing.
func (u *useCaseWithMetrics) ListOwn(ctx context.Context, caller *userDomain.User, offset, limit int) ([]*domain.File, error) {
	start := time.Now()
	files, err := u.next.ListOwn(ctx, caller, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "file", "list_own", status)
	u.metrics.RecordDuration(ctx, "file", "list_own", time.Since(start), status)

	return files, err
}

// ListShared records metrics for shared-file listing.
func (u *useCaseWithMetrics) ListShared(ctx context.Context, caller *userDomain.User, offset, limit int) ([]*domain.File, error) {
	start := time.Now()
	files, err := u.next.ListShared(ctx, caller, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "file", "list_shared", status)
	u.metrics.RecordDuration(ctx, "file", "list_shared", time.Since(start), status)

	return files, err
}
