// Package domain defines the file sharing entities and their invariants.
package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/cryptshare/cryptshare/internal/errors"
)

// Domain errors for file operations. All wrap the application sentinels so
// httputil can map them to HTTP statuses.
var (
	// ErrFileNotFound indicates the requested file does not exist.
	ErrFileNotFound = apperrors.Wrap(apperrors.ErrNotFound, "file not found")

	// ErrAccessDenied indicates no share grants the caller access to the file.
	ErrAccessDenied = apperrors.Wrap(apperrors.ErrForbidden, "no share grants access to this file")

	// ErrShareExpired indicates the caller's share has passed its expiry.
	ErrShareExpired = apperrors.Wrap(apperrors.ErrForbidden, "file share has expired")

	// ErrDownloadNotPermitted indicates the share allows viewing only.
	ErrDownloadNotPermitted = apperrors.Wrap(apperrors.ErrForbidden, "share does not permit download")

	// ErrNoValidRecipients indicates no recipient (owner included) has a
	// public key to wrap the file key for.
	ErrNoValidRecipients = apperrors.Wrap(apperrors.ErrInvalidInput, "no recipient with a public key")

	// ErrInvalidShare indicates inconsistent share permission flags.
	ErrInvalidShare = apperrors.Wrap(apperrors.ErrInvalidInput, "download permission requires view permission")
)

// AccessAction is what the caller wants to do with a shared file.
type AccessAction string

// Supported access actions.
const (
	AccessView     AccessAction = "view"
	AccessDownload AccessAction = "download"
)

// File is the metadata of an uploaded encrypted file. The body lives in blob
// storage under StorageKey as nonce-prefixed ciphertext; the metadata row
// never contains plaintext.
type File struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// FileShare grants one user access to one file. WrappedKey is the per-file
// key encrypted to the recipient's RSA public key, base64-encoded; only the
// recipient's private key can unwrap it.
type FileShare struct {
	ID          uuid.UUID  `json:"id"`
	FileID      uuid.UUID  `json:"file_id"`
	UserID      uuid.UUID  `json:"user_id"`
	WrappedKey  string     `json:"wrapped_key"`
	CanView     bool       `json:"can_view"`
	CanDownload bool       `json:"can_download"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Validate checks the share's permission invariant.
func (s *FileShare) Validate() error {
	if s.CanDownload && !s.CanView {
		return ErrInvalidShare
	}
	return nil
}

// Expired reports whether the share has passed its expiry at the given time.
// Shares without an expiry never expire.
func (s *FileShare) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// Allows reports whether the share's flags permit the action.
func (s *FileShare) Allows(action AccessAction) bool {
	switch action {
	case AccessDownload:
		return s.CanDownload
	case AccessView:
		return s.CanView
	default:
		return false
	}
}
