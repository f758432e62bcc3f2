// Package service implements the cryptographic envelope machinery: password
// key derivation, authenticated secret boxes, user identity keypairs, the
// private-key vault, and per-recipient file-key wrapping.
package service

import (
	"context"
	"crypto/rsa"
)

// KeyDeriver turns a password into a symmetric key given a salt.
// Deterministic: the same password and salt always yield the same key.
type KeyDeriver interface {
	// Derive returns a 32-byte key from the password and a 16-byte salt.
	Derive(password string, salt []byte) ([]byte, error)
}

// SecretBox is an authenticated symmetric encrypt/decrypt primitive used for
// file bodies and the MFA seed, parameterized by which static key is in play.
type SecretBox interface {
	// Encrypt seals plaintext under a fresh random 12-byte nonce.
	Encrypt(plaintext []byte) (nonce, ciphertext []byte, err error)

	// Decrypt opens ciphertext produced by Encrypt. Fails closed on tampering.
	Decrypt(nonce, ciphertext []byte) ([]byte, error)
}

// IdentityService generates and encodes per-user asymmetric keypairs.
type IdentityService interface {
	// Generate creates a new RSA-4096 keypair. CPU-bound; the context lets a
	// caller abandon a generation that is no longer needed.
	Generate(ctx context.Context) (*rsa.PrivateKey, error)

	// ExportPublic encodes a public key as PEM text for persistence.
	ExportPublic(pub *rsa.PublicKey) (string, error)

	// ExportPrivate encodes a private key as unencrypted PKCS#8 DER bytes,
	// intended to be sealed by the Vault immediately and never persisted raw.
	ExportPrivate(priv *rsa.PrivateKey) ([]byte, error)

	// ParsePublic decodes a PEM public key produced by ExportPublic.
	ParsePublic(pemText string) (*rsa.PublicKey, error)

	// ParsePrivate decodes PKCS#8 DER bytes produced by ExportPrivate.
	ParsePrivate(der []byte) (*rsa.PrivateKey, error)
}

// Vault seals and opens a user's exported private key under a key derived
// from their master password.
type Vault interface {
	// Seal encrypts privateKeyDER and returns salt(16)||nonce(12)||ciphertext+tag.
	Seal(privateKeyDER []byte, masterPassword string) ([]byte, error)

	// Open decrypts a blob produced by Seal. Returns ErrAuthenticationFailed
	// on a wrong password and ErrMalformedBlob on a structurally short blob.
	Open(blob []byte, masterPassword string) ([]byte, error)
}

// KeyWrapper wraps a one-time file key for a recipient's public key.
type KeyWrapper interface {
	// Wrap encrypts fileKey with RSA-OAEP (SHA-256) under the recipient's
	// PEM public key and returns the result base64-encoded for storage.
	Wrap(publicKeyPEM string, fileKey []byte) (string, error)

	// Unwrap reverses Wrap with the recipient's private key. The server only
	// does this in tests; in production recipients unwrap client-side.
	Unwrap(priv *rsa.PrivateKey, wrapped string) ([]byte, error)
}

// SeedBox encrypts the MFA seed for storage as an opaque string.
type SeedBox interface {
	// Seal returns the storage encoding of the seed.
	Seal(seed string) (string, error)

	// Open reverses Seal.
	Open(stored string) (string, error)
}
