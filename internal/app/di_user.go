package app

import (
	"context"
	"fmt"

	userRepositoryPkg "github.com/cryptshare/cryptshare/internal/user/repository"
	userUseCase "github.com/cryptshare/cryptshare/internal/user/usecase"
)

// UserRepository returns the user repository for the configured driver.
func (c *Container) UserRepository(ctx context.Context) (userRepository, error) {
	c.userRepoInit.Do(func() {
		db, err := c.DB(ctx)
		if err != nil {
			c.initErrors["userRepo"] = fmt.Errorf("failed to get database for user repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.userRepo = userRepositoryPkg.NewMySQLUserRepository(db)
		case "postgres":
			c.userRepo = userRepositoryPkg.NewPostgreSQLUserRepository(db)
		default:
			c.initErrors["userRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// UserUseCase returns the user registration use case.
func (c *Container) UserUseCase(ctx context.Context) (userUseCase.UseCase, error) {
	c.userUCInit.Do(func() {
		txManager, err := c.TxManager(ctx)
		if err != nil {
			c.initErrors["userUC"] = err
			return
		}

		userRepo, err := c.UserRepository(ctx)
		if err != nil {
			c.initErrors["userUC"] = err
			return
		}

		auditLogUC, err := c.AuditLogUseCase(ctx)
		if err != nil {
			c.initErrors["userUC"] = err
			return
		}

		useCase, err := userUseCase.NewUserUseCase(
			txManager,
			userRepo,
			c.KeygenPool(),
			c.IdentityService(),
			c.VaultService(),
			auditLogUC,
		)
		if err != nil {
			c.initErrors["userUC"] = fmt.Errorf("failed to create user use case: %w", err)
			return
		}

		c.userUC = useCase
	})
	if storedErr, exists := c.initErrors["userUC"]; exists {
		return nil, storedErr
	}
	return c.userUC, nil
}
