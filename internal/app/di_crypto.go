package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/cryptshare/cryptshare/internal/crypto/domain"
	cryptoService "github.com/cryptshare/cryptshare/internal/crypto/service"
)

// ServerKeys returns the static server keys, loading them on first access.
// Key loading is fatal at startup: a process without its keys cannot serve.
func (c *Container) ServerKeys(ctx context.Context) (*cryptoDomain.ServerKeys, error) {
	c.serverKeysInit.Do(func() {
		keeperURI := ""
		if c.config.KMSProvider != "" {
			keeperURI = c.config.KMSKeyURI
		}

		source := cryptoService.NewKeySource(keeperURI)
		keys, err := source.Load(ctx, c.config.FileEncryptionKey, c.config.MFASeedEncryptionKey)
		if err != nil {
			c.initErrors["serverKeys"] = fmt.Errorf("failed to load server keys: %w", err)
			return
		}
		c.serverKeys = keys
	})
	if storedErr, exists := c.initErrors["serverKeys"]; exists {
		return nil, storedErr
	}
	return c.serverKeys, nil
}

// IdentityService returns the RSA identity service.
func (c *Container) IdentityService() cryptoService.IdentityService {
	c.identityInit.Do(func() {
		c.identity = cryptoService.NewRSAIdentityService()
	})
	return c.identity
}

// KeygenPool returns the bounded RSA keypair generation pool.
func (c *Container) KeygenPool() *cryptoService.KeygenPool {
	c.keygenPoolInit.Do(func() {
		c.keygenPool = cryptoService.NewKeygenPool(c.IdentityService(), c.config.KeygenWorkers)
	})
	return c.keygenPool
}

// VaultService returns the private key vault service.
func (c *Container) VaultService() cryptoService.Vault {
	c.vaultInit.Do(func() {
		kdf := cryptoService.NewKDFService(c.config.KDFIterations)
		c.vault = cryptoService.NewVaultService(kdf)
	})
	return c.vault
}

// FileSecretBox returns the secret box bound to the static file body key.
func (c *Container) FileSecretBox(ctx context.Context) (cryptoService.SecretBox, error) {
	c.fileBoxInit.Do(func() {
		keys, err := c.ServerKeys(ctx)
		if err != nil {
			c.initErrors["fileBox"] = err
			return
		}

		box, err := cryptoService.NewAESGCMBox(keys.FileKey)
		if err != nil {
			c.initErrors["fileBox"] = fmt.Errorf("failed to create file secret box: %w", err)
			return
		}
		c.fileBox = box
	})
	if storedErr, exists := c.initErrors["fileBox"]; exists {
		return nil, storedErr
	}
	return c.fileBox, nil
}

// SeedBox returns the MFA seed box in the configured mode.
func (c *Container) SeedBox(ctx context.Context) (cryptoService.SeedBox, error) {
	c.seedBoxInit.Do(func() {
		keys, err := c.ServerKeys(ctx)
		if err != nil {
			c.initErrors["seedBox"] = err
			return
		}

		box, err := cryptoService.NewSeedBox(c.config.MFASeedBoxMode, keys.SeedKey)
		if err != nil {
			c.initErrors["seedBox"] = fmt.Errorf("failed to create seed box: %w", err)
			return
		}
		c.seedBox = box
	})
	if storedErr, exists := c.initErrors["seedBox"]; exists {
		return nil, storedErr
	}
	return c.seedBox, nil
}

// KeyWrapper returns the RSA-OAEP file key wrapper.
func (c *Container) KeyWrapper() cryptoService.KeyWrapper {
	c.keyWrapperInit.Do(func() {
		c.keyWrapper = cryptoService.NewOAEPKeyWrapper(c.IdentityService())
	})
	return c.keyWrapper
}
