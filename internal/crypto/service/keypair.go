package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"

	cryptoDomain "github.com/cryptshare/cryptshare/internal/crypto/domain"
	apperrors "github.com/cryptshare/cryptshare/internal/errors"
)

const publicKeyPEMType = "PUBLIC KEY"

// RSAIdentityService implements IdentityService with RSA-4096 keypairs.
//
// Public keys are exported as PEM "PUBLIC KEY" (PKIX) text so they can be
// stored and shipped to clients verbatim. Private keys are exported as
// unencrypted PKCS#8 DER, which the Vault seals before anything touches
// the database.
//
// Generation of a 4096-bit key takes on the order of seconds; callers on a
// latency-sensitive path should go through KeygenPool instead of calling
// Generate inline.
type RSAIdentityService struct {
	bits int
}

// NewRSAIdentityService creates an identity service producing RSA-4096 keys.
func NewRSAIdentityService() *RSAIdentityService {
	return &RSAIdentityService{bits: cryptoDomain.RSAKeyBits}
}

// Generate creates a new RSA keypair. The context is checked before the
// expensive generation starts so an abandoned registration does not burn CPU.
func (s *RSAIdentityService) Generate(ctx context.Context) (*rsa.PrivateKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	priv, err := rsa.GenerateKey(rand.Reader, s.bits)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate RSA keypair")
	}
	return priv, nil
}

// ExportPublic encodes a public key as PEM text.
func (s *RSAIdentityService) ExportPublic(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to marshal public key")
	}

	block := &pem.Block{Type: publicKeyPEMType, Bytes: der}
	return string(pem.EncodeToMemory(block)), nil
}

// ExportPrivate encodes a private key as unencrypted PKCS#8 DER bytes.
func (s *RSAIdentityService) ExportPrivate(priv *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal private key")
	}
	return der, nil
}

// ParsePublic decodes a PEM public key produced by ExportPublic.
func (s *RSAIdentityService) ParsePublic(pemText string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil || block.Type != publicKeyPEMType {
		return nil, cryptoDomain.ErrInvalidKey
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, cryptoDomain.ErrInvalidKey
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, cryptoDomain.ErrInvalidKey
	}
	return rsaPub, nil
}

// ParsePrivate decodes PKCS#8 DER bytes produced by ExportPrivate.
func (s *RSAIdentityService) ParsePrivate(der []byte) (*rsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, cryptoDomain.ErrInvalidKey
	}

	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, cryptoDomain.ErrInvalidKey
	}
	return priv, nil
}
