// Package domain defines the core cryptographic domain models for the
// encryption envelope: password-derived vault keys, static server keys,
// and per-file symmetric keys wrapped for each recipient.
package domain

const (
	// KeySize is the size in bytes of all symmetric keys (AES-256).
	KeySize = 32

	// SaltSize is the size in bytes of the KDF salt in a vault blob.
	SaltSize = 16

	// NonceSize is the size in bytes of an AES-GCM nonce.
	NonceSize = 12

	// VaultHeaderSize is the minimum vault blob length: salt followed by nonce.
	VaultHeaderSize = SaltSize + NonceSize

	// CFBIVSize is the size in bytes of the IV in the legacy CFB seed box.
	CFBIVSize = 16

	// RSAKeyBits is the modulus size of a user identity keypair.
	RSAKeyBits = 4096

	// DefaultKDFIterations is the production PBKDF2-SHA256 iteration count.
	// Seal and open must agree on this value; it is configurable so tests
	// can run with a much lower cost.
	DefaultKDFIterations = 100000
)
