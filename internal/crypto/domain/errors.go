package domain

import (
	"github.com/cryptshare/cryptshare/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// so the HTTP layer can map them to status codes without inspecting
// cryptographic detail. The messages are deliberately terse: a failed tag
// check must not disclose whether the key or the ciphertext was at fault.
var (
	// ErrAuthenticationFailed indicates a vault could not be opened because
	// the authentication tag check failed, i.e. the master password is wrong.
	ErrAuthenticationFailed = errors.Wrap(errors.ErrUnauthorized, "authentication failed")

	// ErrDecryptionFailed indicates an AEAD open failed: wrong static key,
	// tampered ciphertext, or an invalid nonce.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrKeyWrapFailed indicates RSA-OAEP encryption of a file key failed,
	// e.g. the recipient key modulus is too small for the payload.
	ErrKeyWrapFailed = errors.Wrap(errors.ErrInvalidInput, "key wrap failed")

	// ErrMalformedBlob indicates a blob is structurally invalid, e.g. too
	// short to contain the salt and nonce header.
	ErrMalformedBlob = errors.Wrap(errors.ErrInvalidInput, "malformed blob")

	// ErrInvalidKeySize indicates a symmetric key is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidSaltSize indicates a KDF salt is not exactly 16 bytes.
	ErrInvalidSaltSize = errors.Wrap(errors.ErrInvalidInput, "invalid salt size")

	// ErrMissingRecipientKey indicates a recipient has no public key on file.
	// Upload treats this as a skip signal, not a hard failure.
	ErrMissingRecipientKey = errors.Wrap(errors.ErrNotFound, "recipient has no public key")

	// ErrInvalidKey indicates key material could not be parsed (bad PEM or DER).
	ErrInvalidKey = errors.Wrap(errors.ErrInvalidInput, "invalid key material")
)
