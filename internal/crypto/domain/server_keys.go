package domain

import (
	"encoding/base64"

	"github.com/cryptshare/cryptshare/internal/errors"
)

// Static key configuration errors. Missing keys are a fatal startup
// condition for the service, never a runtime error of the crypto core.
var (
	// ErrFileKeyNotSet indicates FILE_ENCRYPTION_KEY is not configured.
	ErrFileKeyNotSet = errors.New("FILE_ENCRYPTION_KEY environment variable is not set")

	// ErrSeedKeyNotSet indicates MFA_SEED_ENCRYPTION_KEY is not configured.
	ErrSeedKeyNotSet = errors.New("MFA_SEED_ENCRYPTION_KEY environment variable is not set")

	// ErrInvalidKeyBase64 indicates a static key failed base64 decoding.
	ErrInvalidKeyBase64 = errors.New("static key is not valid base64")
)

// ServerKeys holds the long-lived static symmetric keys shared by every
// process instance: one for file bodies at rest and one for the MFA seed
// box. Loaded once at startup and treated as immutable for the process
// lifetime; components receive them by injection and never re-read the
// environment per call.
type ServerKeys struct {
	// FileKey encrypts file bodies at rest on the server's own storage.
	FileKey []byte
	// SeedKey encrypts MFA seeds before they reach the database.
	SeedKey []byte
}

// NewServerKeys builds a ServerKeys value from raw key material,
// validating that both keys are exactly 32 bytes.
func NewServerKeys(fileKey, seedKey []byte) (*ServerKeys, error) {
	if len(fileKey) != KeySize || len(seedKey) != KeySize {
		return nil, ErrInvalidKeySize
	}
	return &ServerKeys{FileKey: fileKey, SeedKey: seedKey}, nil
}

// DecodeKey decodes a base64-encoded static key and checks its size.
func DecodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidKeyBase64
	}
	if len(key) != KeySize {
		Zero(key)
		return nil, ErrInvalidKeySize
	}
	return key, nil
}

// Close zeroes the key material. Call during shutdown.
func (s *ServerKeys) Close() {
	Zero(s.FileKey)
	Zero(s.SeedKey)
}
