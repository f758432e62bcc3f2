package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/cryptshare/cryptshare/internal/crypto/domain"
)

// AESGCMBox implements SecretBox using AES-256-GCM.
//
// Each Encrypt call draws a fresh random 12-byte nonce; the nonce must be
// stored alongside the ciphertext and must never be reused under the same
// key. The 16-byte authentication tag is appended to the ciphertext, so
// decryption fails closed on any tampering. No associated data is used.
//
// The box is stateless apart from the precomputed cipher and safe for
// concurrent use.
type AESGCMBox struct {
	aead cipher.AEAD
}

// NewAESGCMBox creates a secret box bound to a 32-byte static key.
// Returns ErrInvalidKeySize for any other key length.
func NewAESGCMBox(key []byte) (*AESGCMBox, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMBox{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns both.
func (b *AESGCMBox) Encrypt(plaintext []byte) (nonce, ciphertext []byte, err error) {
	nonce = make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext = b.aead.Seal(nil, nonce, plaintext, nil)
	return nonce, ciphertext, nil
}

// Decrypt opens ciphertext produced by Encrypt. The specific failure cause
// (wrong key, bad nonce, tampered data) is folded into ErrDecryptionFailed
// to avoid leaking useful detail.
func (b *AESGCMBox) Decrypt(nonce, ciphertext []byte) ([]byte, error) {
	plaintext, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
