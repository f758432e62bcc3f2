package http

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cryptshare/cryptshare/internal/httputil"
)

// RequestIDContextMiddleware copies the request correlation ID into the
// request context so layers below the handlers (use cases, audit log) can
// read it without a gin dependency.
func RequestIDContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := uuid.Parse(requestid.Get(c)); err == nil {
			c.Request = c.Request.WithContext(httputil.WithRequestID(c.Request.Context(), id))
		}
		c.Next()
	}
}

// CustomLoggerMiddleware logs one line per request with the correlation ID.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("http request",
			slog.String("request_id", requestid.Get(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}
