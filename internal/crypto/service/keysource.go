package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/cryptshare/cryptshare/internal/crypto/domain"

	// Register KMS provider drivers for the secrets keeper URIs.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KeySource loads the static server keys at startup.
//
// Two modes:
//   - plain: the environment values are base64 of the raw 32-byte keys.
//   - keeper: a gocloud.dev secrets keeper URI is configured, the environment
//     values are base64 of keeper-encrypted key material, and the keeper
//     decrypts them at startup. This keeps raw keys out of the deployment
//     environment the way the rest of the fleet handles master keys.
type KeySource struct {
	keeperURI string
}

// NewKeySource creates a key source. An empty keeperURI selects plain mode.
func NewKeySource(keeperURI string) *KeySource {
	return &KeySource{keeperURI: keeperURI}
}

// Load decodes (and, in keeper mode, decrypts) the two static server keys.
func (k *KeySource) Load(ctx context.Context, fileKeyEnc, seedKeyEnc string) (*cryptoDomain.ServerKeys, error) {
	if fileKeyEnc == "" {
		return nil, cryptoDomain.ErrFileKeyNotSet
	}
	if seedKeyEnc == "" {
		return nil, cryptoDomain.ErrSeedKeyNotSet
	}

	if k.keeperURI == "" {
		fileKey, err := cryptoDomain.DecodeKey(fileKeyEnc)
		if err != nil {
			return nil, err
		}
		seedKey, err := cryptoDomain.DecodeKey(seedKeyEnc)
		if err != nil {
			cryptoDomain.Zero(fileKey)
			return nil, err
		}
		return cryptoDomain.NewServerKeys(fileKey, seedKey)
	}

	keeper, err := secrets.OpenKeeper(ctx, k.keeperURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer keeper.Close()

	fileKey, err := k.decryptKey(ctx, keeper, fileKeyEnc)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt file encryption key: %w", err)
	}
	seedKey, err := k.decryptKey(ctx, keeper, seedKeyEnc)
	if err != nil {
		cryptoDomain.Zero(fileKey)
		return nil, fmt.Errorf("failed to decrypt MFA seed key: %w", err)
	}

	return cryptoDomain.NewServerKeys(fileKey, seedKey)
}

// decryptKey base64-decodes a keeper ciphertext and decrypts it to raw key bytes.
func (k *KeySource) decryptKey(ctx context.Context, keeper *secrets.Keeper, encoded string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, cryptoDomain.ErrInvalidKeyBase64
	}

	key, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, err
	}
	if len(key) != cryptoDomain.KeySize {
		cryptoDomain.Zero(key)
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	return key, nil
}
