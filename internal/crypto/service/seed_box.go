package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	cryptoDomain "github.com/cryptshare/cryptshare/internal/crypto/domain"
)

// Seed box modes. The historical deployment encrypted MFA seeds with
// unauthenticated AES-CFB while every other box was an AEAD; the AEAD mode
// is the standardized construction, CFB mode exists only to read seeds
// written by that older scheme during a migration window.
const (
	SeedBoxModeAEAD = "aead"
	SeedBoxModeCFB  = "cfb"
)

// AEADSeedBox stores the MFA seed as base64(nonce(12) || ciphertext+tag)
// under the static seed key.
type AEADSeedBox struct {
	box SecretBox
}

// NewAEADSeedBox creates an authenticated seed box over the static seed key.
func NewAEADSeedBox(seedKey []byte) (*AEADSeedBox, error) {
	box, err := NewAESGCMBox(seedKey)
	if err != nil {
		return nil, err
	}
	return &AEADSeedBox{box: box}, nil
}

// Seal encrypts the seed and returns the storage string.
func (s *AEADSeedBox) Seal(seed string) (string, error) {
	nonce, ciphertext, err := s.box.Encrypt([]byte(seed))
	if err != nil {
		return "", err
	}

	combined := make([]byte, 0, len(nonce)+len(ciphertext))
	combined = append(combined, nonce...)
	combined = append(combined, ciphertext...)
	return base64.StdEncoding.EncodeToString(combined), nil
}

// Open decrypts a storage string produced by Seal.
func (s *AEADSeedBox) Open(stored string) (string, error) {
	combined, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", cryptoDomain.ErrMalformedBlob
	}
	if len(combined) < cryptoDomain.NonceSize {
		return "", cryptoDomain.ErrMalformedBlob
	}

	seed, err := s.box.Decrypt(combined[:cryptoDomain.NonceSize], combined[cryptoDomain.NonceSize:])
	if err != nil {
		return "", err
	}
	return string(seed), nil
}

// CFBSeedBox stores the MFA seed as base64(iv(16) || ciphertext) using
// AES-CFB. The mode carries no authentication tag, so Open cannot detect
// tampering or a wrong key; it exists for compatibility with seeds written
// by the legacy scheme and should not be used for new deployments.
type CFBSeedBox struct {
	key []byte
}

// NewCFBSeedBox creates a legacy CFB seed box over the static seed key.
func NewCFBSeedBox(seedKey []byte) (*CFBSeedBox, error) {
	if len(seedKey) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	key := make([]byte, len(seedKey))
	copy(key, seedKey)
	return &CFBSeedBox{key: key}, nil
}

// Seal encrypts the seed with a fresh random 16-byte IV.
func (s *CFBSeedBox) Seal(seed string) (string, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to create AES cipher: %w", err)
	}

	iv := make([]byte, cryptoDomain.CFBIVSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	ciphertext := make([]byte, len(seed))
	cipher.NewCFBEncrypter(block, iv).XORKeyStream(ciphertext, []byte(seed))

	combined := make([]byte, 0, len(iv)+len(ciphertext))
	combined = append(combined, iv...)
	combined = append(combined, ciphertext...)
	return base64.StdEncoding.EncodeToString(combined), nil
}

// Open decrypts a storage string produced by Seal. Without a tag there is no
// integrity check: a wrong key yields garbage, not an error.
func (s *CFBSeedBox) Open(stored string) (string, error) {
	combined, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", cryptoDomain.ErrMalformedBlob
	}
	if len(combined) < cryptoDomain.CFBIVSize {
		return "", cryptoDomain.ErrMalformedBlob
	}

	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to create AES cipher: %w", err)
	}

	iv := combined[:cryptoDomain.CFBIVSize]
	ciphertext := combined[cryptoDomain.CFBIVSize:]

	seed := make([]byte, len(ciphertext))
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(seed, ciphertext)
	return string(seed), nil
}

// NewSeedBox selects the seed box construction for the configured mode.
func NewSeedBox(mode string, seedKey []byte) (SeedBox, error) {
	switch mode {
	case SeedBoxModeCFB:
		return NewCFBSeedBox(seedKey)
	case SeedBoxModeAEAD, "":
		return NewAEADSeedBox(seedKey)
	default:
		return nil, fmt.Errorf("unsupported seed box mode: %s", mode)
	}
}
