package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	authUseCase "github.com/cryptshare/cryptshare/internal/auth/usecase"
	apperrors "github.com/cryptshare/cryptshare/internal/errors"
	"github.com/cryptshare/cryptshare/internal/httputil"
)

// SessionMiddleware authenticates requests via a Bearer access token in the
// Authorization header and stores the resolved user in the request context
// for GetUser.
//
// Authorization header format: "Bearer <token>" (case-insensitive "bearer").
//
// Error handling:
//   - Missing or malformed Authorization header → 401 Unauthorized
//   - Invalid token or unknown user → 401 Unauthorized
//   - Expired token → 403 Forbidden
func SessionMiddleware(authUC authUseCase.AuthUseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		accessToken := authHeader[len(bearerPrefix):]
		if accessToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		user, err := authUC.Authenticate(c.Request.Context(), accessToken)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful",
			slog.String("user_id", user.ID.String()),
			slog.String("username", user.Username))

		c.Next()
	}
}

// RequireAction authorizes the authenticated user's role for an action.
// Must run after SessionMiddleware.
//
// Error handling:
//   - No user in context → 401 Unauthorized
//   - Role does not permit the action → 403 Forbidden
func RequireAction(action authDomain.Action, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c.Request.Context())
		if !ok || user == nil {
			logger.Debug("authorization failed: no authenticated user in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !user.Role.Can(action) {
			logger.Debug("authorization failed: insufficient role",
				slog.String("user_id", user.ID.String()),
				slog.String("role", string(user.Role)),
				slog.String("action", string(action)))
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
