package app

import (
	"context"
	"fmt"

	fileRepositoryPkg "github.com/cryptshare/cryptshare/internal/file/repository"
	fileUseCase "github.com/cryptshare/cryptshare/internal/file/usecase"
	"github.com/cryptshare/cryptshare/internal/storage"
)

// BlobStore returns the blob store for the configured storage backend.
func (c *Container) BlobStore(ctx context.Context) (storage.BlobStore, error) {
	c.blobStoreInit.Do(func() {
		switch c.config.StorageBackend {
		case "local":
			store, err := storage.NewLocalStore(c.config.StorageLocalPath)
			if err != nil {
				c.initErrors["blobStore"] = fmt.Errorf("failed to create local blob store: %w", err)
				return
			}
			c.blobStore = store
		case "minio":
			store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
				Endpoint:  c.config.MinioEndpoint,
				AccessKey: c.config.MinioAccessKey,
				SecretKey: c.config.MinioSecretKey,
				Bucket:    c.config.MinioBucket,
				UseSSL:    c.config.MinioUseSSL,
			})
			if err != nil {
				c.initErrors["blobStore"] = fmt.Errorf("failed to create minio blob store: %w", err)
				return
			}
			c.blobStore = store
		default:
			c.initErrors["blobStore"] = fmt.Errorf("unsupported storage backend: %s", c.config.StorageBackend)
		}
	})
	if storedErr, exists := c.initErrors["blobStore"]; exists {
		return nil, storedErr
	}
	return c.blobStore, nil
}

// FileRepository returns the file repository for the configured driver.
func (c *Container) FileRepository(ctx context.Context) (fileUseCase.FileRepository, error) {
	c.fileRepoInit.Do(func() {
		db, err := c.DB(ctx)
		if err != nil {
			c.initErrors["fileRepo"] = fmt.Errorf("failed to get database for file repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.fileRepo = fileRepositoryPkg.NewMySQLFileRepository(db)
		case "postgres":
			c.fileRepo = fileRepositoryPkg.NewPostgreSQLFileRepository(db)
		default:
			c.initErrors["fileRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["fileRepo"]; exists {
		return nil, storedErr
	}
	return c.fileRepo, nil
}

// FileUseCase returns the file envelope use case with metrics instrumentation.
func (c *Container) FileUseCase(ctx context.Context) (fileUseCase.UseCase, error) {
	c.fileUCInit.Do(func() {
		txManager, err := c.TxManager(ctx)
		if err != nil {
			c.initErrors["fileUC"] = err
			return
		}

		fileRepo, err := c.FileRepository(ctx)
		if err != nil {
			c.initErrors["fileUC"] = err
			return
		}

		userRepo, err := c.UserRepository(ctx)
		if err != nil {
			c.initErrors["fileUC"] = err
			return
		}

		secretBox, err := c.FileSecretBox(ctx)
		if err != nil {
			c.initErrors["fileUC"] = err
			return
		}

		blobStore, err := c.BlobStore(ctx)
		if err != nil {
			c.initErrors["fileUC"] = err
			return
		}

		tokens, err := c.TokenService()
		if err != nil {
			c.initErrors["fileUC"] = err
			return
		}

		auditLogUC, err := c.AuditLogUseCase(ctx)
		if err != nil {
			c.initErrors["fileUC"] = err
			return
		}

		useCase := fileUseCase.NewFileUseCase(
			txManager,
			fileRepo,
			userRepo,
			secretBox,
			c.KeyWrapper(),
			blobStore,
			tokens,
			auditLogUC,
			c.config.ShareTokenTTL,
		)

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["fileUC"] = err
			return
		}

		c.fileUC = fileUseCase.NewUseCaseWithMetrics(useCase, businessMetrics)
	})
	if storedErr, exists := c.initErrors["fileUC"]; exists {
		return nil, storedErr
	}
	return c.fileUC, nil
}
