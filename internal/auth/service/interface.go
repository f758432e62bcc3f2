// Package service provides technical services for authentication operations:
// signed time-boxed tokens, TOTP verification and audit log signing.
package service

import (
	"time"

	"github.com/google/uuid"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
)

// Claims is the payload carried by a signed token. FileID is only set for
// file-share tokens, where it binds the token to a single file.
type Claims struct {
	Subject uuid.UUID
	Purpose authDomain.Purpose
	FileID  *uuid.UUID
}

// TokenService issues and verifies HMAC-signed time-boxed tokens.
type TokenService interface {
	// Issue creates a signed token for the claims, valid for ttl from now.
	// A zero or negative ttl produces a token that is already expired.
	Issue(claims Claims, ttl time.Duration) (string, error)

	// Verify checks signature, expiry and purpose. The purpose must match
	// exactly: verification selects the signing secret by expected purpose,
	// so tokens never cross flows. Returns ErrExpiredToken only for tokens
	// that passed every other check, ErrInvalidToken for the rest.
	Verify(token string, purpose authDomain.Purpose) (*Claims, error)
}

// TOTPService manages authenticator seeds and code verification.
type TOTPService interface {
	// GenerateSeed creates a fresh base32 seed for the account and returns
	// it together with the otpauth:// provisioning URI.
	GenerateSeed(account string) (secret, uri string, err error)

	// QRImage renders a provisioning URI as a PNG QR code and returns it as
	// a data URI suitable for direct embedding in a client response.
	QRImage(uri string) (string, error)

	// Verify reports whether the code matches the seed within the configured
	// step skew.
	Verify(code, secret string) bool
}

// AuditSigner signs and verifies audit log entries. The previous entry's
// signature is part of the signed content, chaining entries together.
type AuditSigner interface {
	// Sign computes the HMAC-SHA256 signature for the entry given the
	// signature of the preceding entry (nil for the first entry).
	Sign(prev []byte, log *authDomain.AuditLog) ([]byte, error)

	// Verify recomputes the signature and compares it against the one stored
	// on the entry. Returns ErrSignatureInvalid on mismatch.
	Verify(prev []byte, log *authDomain.AuditLog) error
}
