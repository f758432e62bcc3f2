package app

import (
	"context"
	"fmt"

	authRepository "github.com/cryptshare/cryptshare/internal/auth/repository"
	authService "github.com/cryptshare/cryptshare/internal/auth/service"
	authUseCase "github.com/cryptshare/cryptshare/internal/auth/usecase"
)

// TokenService returns the signed token service.
func (c *Container) TokenService() (authService.TokenService, error) {
	c.tokenServiceInit.Do(func() {
		tokens, err := authService.NewJWTTokenService(c.config.MFATokenSecret, c.config.ShareTokenSecret)
		if err != nil {
			c.initErrors["tokenService"] = fmt.Errorf("failed to create token service: %w", err)
			return
		}
		c.tokenService = tokens
	})
	if storedErr, exists := c.initErrors["tokenService"]; exists {
		return nil, storedErr
	}
	return c.tokenService, nil
}

// TOTPService returns the TOTP service.
func (c *Container) TOTPService() authService.TOTPService {
	c.totpServiceInit.Do(func() {
		c.totpService = authService.NewTOTPService(c.config.TOTPIssuer, int(c.config.TOTPSkewSteps))
	})
	return c.totpService
}

// AuditSigner returns the audit log chain signer.
func (c *Container) AuditSigner() (authService.AuditSigner, error) {
	c.auditSignerInit.Do(func() {
		if c.config.AuditLogSigningKey == "" {
			c.initErrors["auditSigner"] = fmt.Errorf("audit log signing key is not set")
			return
		}
		c.auditSigner = authService.NewAuditSigner([]byte(c.config.AuditLogSigningKey))
	})
	if storedErr, exists := c.initErrors["auditSigner"]; exists {
		return nil, storedErr
	}
	return c.auditSigner, nil
}

// AuditLogRepository returns the audit log repository for the configured driver.
func (c *Container) AuditLogRepository(ctx context.Context) (authUseCase.AuditLogRepository, error) {
	c.auditLogRepoInit.Do(func() {
		db, err := c.DB(ctx)
		if err != nil {
			c.initErrors["auditLogRepo"] = fmt.Errorf("failed to get database for audit log repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.auditLogRepo = authRepository.NewMySQLAuditLogRepository(db)
		case "postgres":
			c.auditLogRepo = authRepository.NewPostgreSQLAuditLogRepository(db)
		default:
			c.initErrors["auditLogRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["auditLogRepo"]; exists {
		return nil, storedErr
	}
	return c.auditLogRepo, nil
}

// AuditLogUseCase returns the audit log use case.
func (c *Container) AuditLogUseCase(ctx context.Context) (authUseCase.AuditLogUseCase, error) {
	c.auditLogUCInit.Do(func() {
		txManager, err := c.TxManager(ctx)
		if err != nil {
			c.initErrors["auditLogUC"] = err
			return
		}

		repo, err := c.AuditLogRepository(ctx)
		if err != nil {
			c.initErrors["auditLogUC"] = err
			return
		}

		signer, err := c.AuditSigner()
		if err != nil {
			c.initErrors["auditLogUC"] = err
			return
		}

		c.auditLogUC = authUseCase.NewAuditLogUseCase(txManager, repo, signer)
	})
	if storedErr, exists := c.initErrors["auditLogUC"]; exists {
		return nil, storedErr
	}
	return c.auditLogUC, nil
}

// AuthUseCase returns the authentication use case with metrics instrumentation.
func (c *Container) AuthUseCase(ctx context.Context) (authUseCase.AuthUseCase, error) {
	c.authUCInit.Do(func() {
		userRepo, err := c.UserRepository(ctx)
		if err != nil {
			c.initErrors["authUC"] = err
			return
		}

		tokens, err := c.TokenService()
		if err != nil {
			c.initErrors["authUC"] = err
			return
		}

		seedBox, err := c.SeedBox(ctx)
		if err != nil {
			c.initErrors["authUC"] = err
			return
		}

		auditLogUC, err := c.AuditLogUseCase(ctx)
		if err != nil {
			c.initErrors["authUC"] = err
			return
		}

		useCase, err := authUseCase.NewAuthUseCase(
			userRepo,
			tokens,
			c.TOTPService(),
			seedBox,
			auditLogUC,
			c.config.MFAPendingTokenTTL,
			c.config.AccessTokenTTL,
		)
		if err != nil {
			c.initErrors["authUC"] = fmt.Errorf("failed to create auth use case: %w", err)
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["authUC"] = err
			return
		}

		c.authUC = authUseCase.NewAuthUseCaseWithMetrics(useCase, businessMetrics)
	})
	if storedErr, exists := c.initErrors["authUC"]; exists {
		return nil, storedErr
	}
	return c.authUC, nil
}
