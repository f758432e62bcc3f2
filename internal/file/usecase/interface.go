// Package usecase implements the hybrid file envelope: server-side body
// encryption plus per-recipient wrapped file keys.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cryptshare/cryptshare/internal/file/domain"
	userDomain "github.com/cryptshare/cryptshare/internal/user/domain"
)

// FileRepository defines persistence operations for files and shares.
// Implementations must support transaction-aware operations via context propagation.
type FileRepository interface {
	// Create stores a new file metadata row.
	Create(ctx context.Context, file *domain.File) error

	// GetByID retrieves a file by ID. Returns ErrFileNotFound when missing.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.File, error)

	// ListByOwner retrieves a user's own files, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*domain.File, error)

	// CreateShare stores a new share row.
	CreateShare(ctx context.Context, share *domain.FileShare) error

	// GetShare retrieves the share of a file for a user. Returns
	// ErrAccessDenied when no share exists.
	GetShare(ctx context.Context, fileID, userID uuid.UUID) (*domain.FileShare, error)

	// ListSharedWith retrieves files shared with a user, newest first.
	ListSharedWith(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*domain.File, error)
}

// RecipientInput names one intended recipient of an upload by email.
type RecipientInput struct {
	Email       string     `json:"email"`
	CanView     bool       `json:"can_view"`
	CanDownload bool       `json:"can_download"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// UploadFileInput carries the plaintext body and the recipient list. FileKey
// is an optional client-supplied file key in raw binary form; when nil the
// server draws a random one.
type UploadFileInput struct {
	Filename    string
	ContentType string
	Data        []byte
	Recipients  []RecipientInput
	FileKey     []byte
}

// UploadFileOutput is the result of a completed upload.
type UploadFileOutput struct {
	File       *domain.File
	Shares     []*domain.FileShare
	ShareToken string
	TokenExp   time.Time
}

// AccessFileOutput carries the decrypted body and the caller's wrapped key.
type AccessFileOutput struct {
	File       *domain.File
	Plaintext  []byte
	WrappedKey string
	Share      *domain.FileShare
}

// ShareLinkOutput is a fresh share token for an existing file.
type ShareLinkOutput struct {
	ShareToken string
	TokenExp   time.Time
}

// UseCase defines the file sharing business logic.
type UseCase interface {
	// Upload encrypts and stores a file for the owner and wraps the file key
	// for each resolvable recipient. Recipients without an account or
	// without a public key are skipped silently; when none remain the owner
	// becomes the sole recipient, and a keyless owner fails the whole upload
	// with ErrNoValidRecipients.
	Upload(ctx context.Context, owner *userDomain.User, input UploadFileInput) (*UploadFileOutput, error)

	// Access resolves a share token, checks the caller's share and its
	// flags, and returns the decrypted body with the caller's wrapped key.
	Access(ctx context.Context, shareToken string, caller *userDomain.User, action domain.AccessAction) (*AccessFileOutput, error)

	// ShareLink issues a fresh share token for a file the caller owns.
	ShareLink(ctx context.Context, caller *userDomain.User, fileID uuid.UUID) (*ShareLinkOutput, error)

	// ListOwn lists the caller's own files with pagination.
	ListOwn(ctx context.Context, caller *userDomain.User, offset, limit int) ([]*domain.File, error)

	// ListShared lists files shared with the caller with pagination.
	ListShared(ctx context.Context, caller *userDomain.User, offset, limit int) ([]*domain.File, error)
}
