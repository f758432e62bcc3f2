// Package app provides the dependency injection container assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	authUseCase "github.com/cryptshare/cryptshare/internal/auth/usecase"
	"github.com/cryptshare/cryptshare/internal/config"
	cryptoDomain "github.com/cryptshare/cryptshare/internal/crypto/domain"
	cryptoService "github.com/cryptshare/cryptshare/internal/crypto/service"
	"github.com/cryptshare/cryptshare/internal/database"
	fileUseCase "github.com/cryptshare/cryptshare/internal/file/usecase"
	"github.com/cryptshare/cryptshare/internal/http"
	"github.com/cryptshare/cryptshare/internal/metrics"
	"github.com/cryptshare/cryptshare/internal/storage"
	userUseCase "github.com/cryptshare/cryptshare/internal/user/usecase"

	authService "github.com/cryptshare/cryptshare/internal/auth/service"
)

// userRepository is the full surface both user repositories implement. The
// container hands it out as the narrower per-context interfaces.
type userRepository interface {
	userUseCase.UserRepository
	authUseCase.UserReader
	fileUseCase.UserDirectory
}

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger     *slog.Logger
	db         *sql.DB
	serverKeys *cryptoDomain.ServerKeys

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Crypto services
	identity   cryptoService.IdentityService
	keygenPool *cryptoService.KeygenPool
	vault      cryptoService.Vault
	fileBox    cryptoService.SecretBox
	seedBox    cryptoService.SeedBox
	keyWrapper cryptoService.KeyWrapper

	// Auth services
	tokenService authService.TokenService
	totpService  authService.TOTPService
	auditSigner  authService.AuditSigner

	// Repositories
	userRepo     userRepository
	auditLogRepo authUseCase.AuditLogRepository
	fileRepo     fileUseCase.FileRepository
	blobStore    storage.BlobStore

	// Use Cases
	userUC     userUseCase.UseCase
	authUC     authUseCase.AuthUseCase
	auditLogUC authUseCase.AuditLogUseCase
	fileUC     fileUseCase.UseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	serverKeysInit      sync.Once
	txManagerInit       sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	identityInit        sync.Once
	keygenPoolInit      sync.Once
	vaultInit           sync.Once
	fileBoxInit         sync.Once
	seedBoxInit         sync.Once
	keyWrapperInit      sync.Once
	tokenServiceInit    sync.Once
	totpServiceInit     sync.Once
	auditSignerInit     sync.Once
	userRepoInit        sync.Once
	auditLogRepoInit    sync.Once
	fileRepoInit        sync.Once
	blobStoreInit       sync.Once
	userUCInit          sync.Once
	authUCInit          sync.Once
	auditLogUCInit      sync.Once
	fileUCInit          sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB(ctx context.Context) (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(ctx, database.Config{
			Driver:             c.config.DBDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to connect to database: %w", err)
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager(ctx context.Context) (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB(ctx)
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// used when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		if !c.config.MetricsEnabled {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}

		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}

		businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = businessMetrics
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if c.serverKeys != nil {
		c.serverKeys.Close()
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
