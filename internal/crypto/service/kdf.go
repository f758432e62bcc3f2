package service

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	cryptoDomain "github.com/cryptshare/cryptshare/internal/crypto/domain"
)

// KDFService implements KeyDeriver using PBKDF2-HMAC-SHA256.
//
// The iteration count is a deliberate throughput/security tradeoff: the same
// value must be used when sealing and opening a vault blob, so it is fixed at
// construction time rather than read per call. Tests construct the service
// with a low count to stay fast.
type KDFService struct {
	iterations int
}

// NewKDFService creates a KDFService with the given PBKDF2 iteration count.
// A non-positive count falls back to the production default of 100000.
func NewKDFService(iterations int) *KDFService {
	if iterations <= 0 {
		iterations = cryptoDomain.DefaultKDFIterations
	}
	return &KDFService{iterations: iterations}
}

// Derive returns a 32-byte key from the password and a 16-byte salt.
// Returns ErrInvalidSaltSize for any other salt length.
func (k *KDFService) Derive(password string, salt []byte) ([]byte, error) {
	if len(salt) != cryptoDomain.SaltSize {
		return nil, cryptoDomain.ErrInvalidSaltSize
	}
	return pbkdf2.Key([]byte(password), salt, k.iterations, cryptoDomain.KeySize, sha256.New), nil
}
