// Package usecase defines business logic interfaces for authentication,
// MFA enrollment, and the signed audit log chain.
package usecase

import (
	"context"

	"github.com/google/uuid"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	userDomain "github.com/cryptshare/cryptshare/internal/user/domain"
)

// AuditLogRepository defines persistence operations for audit log entries.
// Implementations must support transaction-aware operations via context propagation.
type AuditLogRepository interface {
	// Create stores a new audit log entry.
	Create(ctx context.Context, auditLog *authDomain.AuditLog) error

	// List retrieves audit logs ordered by creation descending (newest first).
	List(ctx context.Context, offset, limit int) ([]*authDomain.AuditLog, error)

	// ListAsc retrieves audit logs in chain order (oldest first). Used to
	// replay and verify the signature chain.
	ListAsc(ctx context.Context, offset, limit int) ([]*authDomain.AuditLog, error)

	// GetLastSignature returns the signature of the newest entry, or nil
	// when the log is empty.
	GetLastSignature(ctx context.Context) ([]byte, error)
}

// UserReader defines the user lookups the auth context needs. Implemented by
// the user repositories; declared here to keep the dependency narrow.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userDomain.User, error)
	UpdateMFA(ctx context.Context, id uuid.UUID, mfaSecret *string, mfaEnabled bool) error
}

// AuditLogUseCase records and verifies the hash-chained audit log.
type AuditLogUseCase interface {
	// Record appends a signed entry to the audit chain. The request ID is
	// taken from the context when present. Joins the caller's transaction
	// so the entry commits or rolls back with the operation it describes.
	Record(ctx context.Context, userID *uuid.UUID, action, resource string, metadata map[string]any) error

	// List retrieves audit logs newest first with pagination.
	List(ctx context.Context, offset, limit int) ([]*authDomain.AuditLog, error)

	// VerifyChain replays the whole chain oldest first and recomputes every
	// signature. Returns the number of verified entries and the first
	// mismatch as ErrSignatureInvalid.
	VerifyChain(ctx context.Context) (int, error)
}

// LoginInput contains the credentials for the first authentication step.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginOutput is the result of a successful password check. The session is
// not established yet: the pending token must be exchanged together with a
// TOTP code. Provisioning fields are only set while MFA is unconfirmed.
type LoginOutput struct {
	PendingToken string
	MFAEnabled   bool
	OTPAuthURI   string
	QRImagePNG   string
}

// ConfirmMFAInput contains the second authentication step parameters.
type ConfirmMFAInput struct {
	PendingToken string `json:"token"`
	Code         string `json:"code"`
}

// ConfirmMFAOutput carries the established session token.
type ConfirmMFAOutput struct {
	AccessToken string
	ExpiresIn   int64
}

// AuthUseCase orchestrates the two-step login and session authentication.
type AuthUseCase interface {
	// Login verifies the password and returns an mfa-pending token. On the
	// first login it provisions a TOTP seed and returns the otpauth URI and
	// QR code; both keep being returned until the seed is confirmed.
	// Returns ErrInvalidCredentials for unknown emails and wrong passwords alike.
	Login(ctx context.Context, input LoginInput) (*LoginOutput, error)

	// ConfirmMFA exchanges a valid mfa-pending token plus a TOTP code for a
	// full access token. The first successful confirmation enables MFA.
	ConfirmMFA(ctx context.Context, input ConfirmMFAInput) (*ConfirmMFAOutput, error)

	// Authenticate resolves an access token to its user. Returns
	// ErrInvalidToken or ErrExpiredToken for bad tokens.
	Authenticate(ctx context.Context, accessToken string) (*userDomain.User, error)
}
