package app

import (
	"context"
	"fmt"

	authHTTP "github.com/cryptshare/cryptshare/internal/auth/http"
	fileHTTP "github.com/cryptshare/cryptshare/internal/file/http"
	"github.com/cryptshare/cryptshare/internal/http"
	"github.com/cryptshare/cryptshare/internal/metrics"
	userHTTP "github.com/cryptshare/cryptshare/internal/user/http"

	"github.com/gin-gonic/gin"
)

// HTTPServer returns the API server with all routes mounted.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	c.httpServerInit.Do(func() {
		db, err := c.DB(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}

		userUC, err := c.UserUseCase(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}

		authUC, err := c.AuthUseCase(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}

		fileUC, err := c.FileUseCase(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}

		logger := c.Logger()

		var loginRateLimit gin.HandlerFunc
		if c.config.RateLimitLoginEnabled {
			loginRateLimit = authHTTP.LoginRateLimitMiddleware(
				c.config.RateLimitLoginRequestsPerSec,
				c.config.RateLimitLoginBurst,
				logger,
			)
		}

		var httpMetrics gin.HandlerFunc
		if c.config.MetricsEnabled {
			provider, err := c.MetricsProvider()
			if err != nil {
				c.initErrors["httpServer"] = err
				return
			}
			httpMetrics = metrics.HTTPMetricsMiddleware(provider.MeterProvider(), c.config.MetricsNamespace)
		}

		server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
		server.SetupRouter(http.RouterConfig{
			UserHandler:    userHTTP.NewUserHandler(userUC, businessMetrics, logger),
			AuthHandler:    authHTTP.NewAuthHandler(authUC, logger),
			FileHandler:    fileHTTP.NewFileHandler(fileUC, logger),
			Session:        authHTTP.SessionMiddleware(authUC, logger),
			LoginRateLimit: loginRateLimit,
			CORS:           http.CORSMiddleware(c.config.CORSEnabled, c.config.CORSAllowOrigins, logger),
			HTTPMetrics:    httpMetrics,
		})

		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the standalone metrics server, or nil when metrics
// are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}

		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = fmt.Errorf("failed to get metrics provider: %w", err)
			return
		}

		c.metricsServer = http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}
