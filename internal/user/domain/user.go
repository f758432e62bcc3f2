// Package domain defines the core user domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	"github.com/cryptshare/cryptshare/internal/errors"
)

// User represents an account in the system. Every user owns an RSA identity:
// the public half is stored as PEM and used for wrapping file keys, the
// private half only ever exists as a vault blob sealed with the user's
// master password. MFASecret holds the sealed TOTP seed storage string; nil
// means MFA has never been provisioned for the account.
type User struct {
	ID                 uuid.UUID
	Username           string
	Email              string
	PasswordHash       string
	MasterPasswordHash string
	Role               authDomain.Role
	PublicKey          string
	PrivateKeyVault    []byte
	MFASecret          *string
	MFAEnabled         bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasPublicKey reports whether the user can receive wrapped file keys.
func (u *User) HasPublicKey() bool {
	return u.PublicKey != ""
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same username or email already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")

	// ErrInvalidRole indicates the role is not one of the known roles.
	ErrInvalidRole = errors.Wrap(errors.ErrInvalidInput, "invalid role")
)
