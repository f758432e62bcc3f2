package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/cryptshare/cryptshare/internal/crypto/domain"
)

// VaultService seals a user's exported private key under a key derived from
// their master password.
//
// Blob layout is fixed: salt(16) || nonce(12) || ciphertext+tag. Salt and
// nonce are drawn fresh on every Seal, so sealing the same key twice yields
// different blobs. Opening requires the original master password to re-derive
// the same AES key through the KDF.
type VaultService struct {
	kdf KeyDeriver
}

// NewVaultService creates a VaultService using the given key deriver.
func NewVaultService(kdf KeyDeriver) *VaultService {
	return &VaultService{kdf: kdf}
}

// Seal encrypts privateKeyDER with AES-256-GCM under a password-derived key
// and returns salt||nonce||ciphertext.
func (v *VaultService) Seal(privateKeyDER []byte, masterPassword string) ([]byte, error) {
	salt := make([]byte, cryptoDomain.SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := v.kdf.Derive(masterPassword, salt)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(key)

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, cryptoDomain.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	blob := make([]byte, 0, cryptoDomain.VaultHeaderSize+len(privateKeyDER)+16)
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = aead.Seal(blob, nonce, privateKeyDER, nil)
	return blob, nil
}

// Open decrypts a blob produced by Seal. Returns ErrMalformedBlob when the
// blob cannot contain the salt and nonce header, and ErrAuthenticationFailed
// when the tag check fails, i.e. a wrong master password.
func (v *VaultService) Open(blob []byte, masterPassword string) ([]byte, error) {
	if len(blob) < cryptoDomain.VaultHeaderSize {
		return nil, cryptoDomain.ErrMalformedBlob
	}

	salt := blob[:cryptoDomain.SaltSize]
	nonce := blob[cryptoDomain.SaltSize:cryptoDomain.VaultHeaderSize]
	ciphertext := blob[cryptoDomain.VaultHeaderSize:]

	key, err := v.kdf.Derive(masterPassword, salt)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(key)

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	privateKeyDER, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, cryptoDomain.ErrAuthenticationFailed
	}
	return privateKeyDER, nil
}

// newGCM builds an AES-256-GCM AEAD for a derived key.
func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}
