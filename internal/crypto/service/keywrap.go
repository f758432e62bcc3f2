package service

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"

	cryptoDomain "github.com/cryptshare/cryptshare/internal/crypto/domain"
)

// OAEPKeyWrapper implements KeyWrapper with RSA-OAEP, using SHA-256 for both
// the hash and the MGF1 mask. The wrapped key is base64-encoded so it can be
// stored in a text column and returned in HTTP headers unchanged.
type OAEPKeyWrapper struct {
	identity IdentityService
}

// NewOAEPKeyWrapper creates a key wrapper that parses recipient keys through
// the given identity service.
func NewOAEPKeyWrapper(identity IdentityService) *OAEPKeyWrapper {
	return &OAEPKeyWrapper{identity: identity}
}

// Wrap encrypts fileKey under the recipient's PEM public key.
func (w *OAEPKeyWrapper) Wrap(publicKeyPEM string, fileKey []byte) (string, error) {
	pub, err := w.identity.ParsePublic(publicKeyPEM)
	if err != nil {
		return "", err
	}

	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, fileKey, nil)
	if err != nil {
		return "", cryptoDomain.ErrKeyWrapFailed
	}
	return base64.StdEncoding.EncodeToString(wrapped), nil
}

// Unwrap decrypts a wrapped key with the recipient's private key.
func (w *OAEPKeyWrapper) Unwrap(priv *rsa.PrivateKey, wrapped string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return nil, cryptoDomain.ErrMalformedBlob
	}

	fileKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, raw, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return fileKey, nil
}
