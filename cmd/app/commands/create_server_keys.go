package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/cryptshare/cryptshare/internal/crypto/domain"
)

// RunCreateServerKeys generates the static server secrets and prints them in
// env-file format. Raw key material is zeroed from memory after encoding.
//
// Without KMS flags the encryption keys are printed as plain base64 and the
// process environment must be trusted with them. With --kms-provider and
// --kms-key-uri the file and MFA seed keys are encrypted by the keeper before
// output, and the server decrypts them at startup.
//
// Security: never use the localsecrets provider in production. Use cloud KMS
// providers (gcpkms, awskms, azurekeyvault, hashivault).
func RunCreateServerKeys(ctx context.Context, kmsProvider, kmsKeyURI string, writer io.Writer) error {
	if (kmsProvider == "") != (kmsKeyURI == "") {
		return fmt.Errorf(
			"--kms-provider and --kms-key-uri must be set together\n\nFor local development, use:\n  --kms-provider=localsecrets --kms-key-uri=\"base64key://<32-byte-base64-key>\"",
		)
	}

	fileKey, err := randomKey()
	if err != nil {
		return fmt.Errorf("failed to generate file encryption key: %w", err)
	}
	defer cryptoDomain.Zero(fileKey)

	seedKey, err := randomKey()
	if err != nil {
		return fmt.Errorf("failed to generate MFA seed encryption key: %w", err)
	}
	defer cryptoDomain.Zero(seedKey)

	fileKeyEnc := base64.StdEncoding.EncodeToString(fileKey)
	seedKeyEnc := base64.StdEncoding.EncodeToString(seedKey)

	if kmsProvider != "" {
		keeper, err := secrets.OpenKeeper(ctx, kmsKeyURI)
		if err != nil {
			return fmt.Errorf("failed to open KMS keeper: %w", err)
		}
		defer func() {
			if closeErr := keeper.Close(); closeErr != nil {
				fmt.Fprintf(writer, "# Warning: failed to close KMS keeper: %v\n", closeErr)
			}
		}()

		fileKeyCipher, err := keeper.Encrypt(ctx, fileKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt file encryption key: %w", err)
		}
		seedKeyCipher, err := keeper.Encrypt(ctx, seedKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt MFA seed encryption key: %w", err)
		}

		fileKeyEnc = base64.StdEncoding.EncodeToString(fileKeyCipher)
		seedKeyEnc = base64.StdEncoding.EncodeToString(seedKeyCipher)
	}

	// HMAC secrets are used as opaque strings, not decoded, so they stay
	// plain base64 in both modes.
	mfaTokenSecret, err := randomSecret()
	if err != nil {
		return fmt.Errorf("failed to generate MFA token secret: %w", err)
	}
	shareTokenSecret, err := randomSecret()
	if err != nil {
		return fmt.Errorf("failed to generate share token secret: %w", err)
	}
	auditSigningKey, err := randomSecret()
	if err != nil {
		return fmt.Errorf("failed to generate audit log signing key: %w", err)
	}

	fmt.Fprintln(writer, "# Add these to your environment or .env file")
	fmt.Fprintf(writer, "FILE_ENCRYPTION_KEY=%q\n", fileKeyEnc)
	fmt.Fprintf(writer, "MFA_SEED_ENCRYPTION_KEY=%q\n", seedKeyEnc)
	fmt.Fprintf(writer, "MFA_TOKEN_SECRET=%q\n", mfaTokenSecret)
	fmt.Fprintf(writer, "SHARE_TOKEN_SECRET=%q\n", shareTokenSecret)
	fmt.Fprintf(writer, "AUDIT_LOG_SIGNING_KEY=%q\n", auditSigningKey)

	if kmsProvider != "" {
		fmt.Fprintf(writer, "KMS_PROVIDER=%q\n", kmsProvider)
		fmt.Fprintf(writer, "KMS_KEY_URI=%q\n", kmsKeyURI)
	}

	return nil
}

// randomKey generates a raw 32-byte encryption key.
func randomKey() ([]byte, error) {
	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// randomSecret generates a base64-encoded 32-byte HMAC secret.
func randomSecret() (string, error) {
	secret, err := randomKey()
	if err != nil {
		return "", err
	}
	defer cryptoDomain.Zero(secret)
	return base64.StdEncoding.EncodeToString(secret), nil
}
