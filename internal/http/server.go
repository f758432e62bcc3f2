// Package http provides the gin API server, its middleware stack and the
// Prometheus metrics server.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	authHTTP "github.com/cryptshare/cryptshare/internal/auth/http"
	fileHTTP "github.com/cryptshare/cryptshare/internal/file/http"
	userHTTP "github.com/cryptshare/cryptshare/internal/user/http"
)

// RouterConfig carries the handlers and middleware the router mounts.
// Nil optional middleware (CORS, rate limit, metrics) is skipped.
type RouterConfig struct {
	UserHandler    *userHTTP.UserHandler
	AuthHandler    *authHTTP.AuthHandler
	FileHandler    *fileHTTP.FileHandler
	Session        gin.HandlerFunc
	LoginRateLimit gin.HandlerFunc
	CORS           gin.HandlerFunc
	HTTPMetrics    gin.HandlerFunc
}

// Server is the main API server.
type Server struct {
	server *http.Server
	router *gin.Engine
	db     *sql.DB
	logger *slog.Logger
}

// NewServer creates the API server. The router is assembled separately via
// SetupRouter so tests can mount a minimal route set.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the gin engine and registers every route.
func (s *Server) SetupRouter(cfg RouterConfig) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(RequestIDContextMiddleware())
	router.Use(CustomLoggerMiddleware(s.logger))
	if cfg.HTTPMetrics != nil {
		router.Use(cfg.HTTPMetrics)
	}
	if cfg.CORS != nil {
		router.Use(cfg.CORS)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	requireUpload := authHTTP.RequireAction(authDomain.ActionUpload, s.logger)
	requireAccess := authHTTP.RequireAction(authDomain.ActionAccess, s.logger)

	v1 := router.Group("/v1")
	{
		v1.POST("/users", cfg.UserHandler.RegisterHandler)

		auth := v1.Group("/auth")
		{
			login := auth.Group("")
			if cfg.LoginRateLimit != nil {
				login.Use(cfg.LoginRateLimit)
			}
			login.POST("/login", cfg.AuthHandler.LoginHandler)
			auth.POST("/mfa/confirm", cfg.AuthHandler.ConfirmMFAHandler)
		}

		files := v1.Group("/files", cfg.Session)
		{
			files.POST("", requireUpload, cfg.FileHandler.UploadHandler)
			files.GET("", cfg.FileHandler.ListOwnHandler)
			files.GET("/shared", cfg.FileHandler.ListSharedHandler)
			files.GET("/access", requireAccess, cfg.FileHandler.AccessHandler)
			files.POST("/:id/share-link", requireUpload, cfg.FileHandler.ShareLinkHandler)
		}
	}

	s.router = router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports readiness to serve traffic. The database is the
// only hard dependency; blob storage failures surface per-request.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	if s.db == nil {
		components["database"] = "error"
	} else if err := s.db.PingContext(c.Request.Context()); err != nil {
		s.logger.Error("readiness database ping failed", slog.Any("error", err))
		components["database"] = "error"
	}

	if components["database"] != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}

// GetHandler returns the assembled router. Used by tests to mount the full
// route set in an httptest server.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the API server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
