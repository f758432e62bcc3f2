package domain

import (
	"github.com/cryptshare/cryptshare/internal/errors"
)

// Authentication and authorization errors.
var (
	// ErrInvalidCredentials indicates the email/password pair did not match.
	// Deliberately generic so responses cannot be used for account enumeration.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrInvalidToken indicates a token that failed signature, structure or
	// purpose checks. Maps to 401: the caller is not authenticated.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid token")

	// ErrExpiredToken indicates a well-formed, correctly signed token whose
	// validity window has passed. Maps to 403: the caller proved who they
	// are, but this particular grant is dead.
	ErrExpiredToken = errors.Wrap(errors.ErrForbidden, "token expired")

	// ErrInvalidTOTPCode indicates the presented authenticator code did not
	// match the current validation window.
	ErrInvalidTOTPCode = errors.Wrap(errors.ErrUnauthorized, "invalid totp code")

	// ErrMFANotProvisioned indicates an MFA confirmation for an account that
	// never had a seed issued.
	ErrMFANotProvisioned = errors.Wrap(errors.ErrForbidden, "mfa not provisioned")

	// ErrSignatureInvalid indicates an audit log entry whose signature does
	// not match its content and chain position.
	ErrSignatureInvalid = errors.Wrap(errors.ErrInvalidInput, "audit log signature invalid")
)
