package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	"github.com/cryptshare/cryptshare/internal/auth/usecase/mocks"
	userDomain "github.com/cryptshare/cryptshare/internal/user/domain"
)

func setupMiddlewareRouter(t *testing.T, mockUseCase *mocks.MockAuthUseCase, extra ...gin.HandlerFunc) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := gin.New()
	handlers := append([]gin.HandlerFunc{SessionMiddleware(mockUseCase, logger)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		user, ok := GetUser(c.Request.Context())
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": user.ID.String()})
	})
	router.GET("/protected", handlers...)

	return router
}

func TestSessionMiddleware(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		mockUseCase := &mocks.MockAuthUseCase{}
		user := &userDomain.User{ID: uuid.Must(uuid.NewV7()), Role: authDomain.RoleUser}

		mockUseCase.On("Authenticate", mock.Anything, "valid-token").
			Return(user, nil).
			Once()

		router := setupMiddlewareRouter(t, mockUseCase)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), user.ID.String())
		mockUseCase.AssertExpectations(t)
	})

	t.Run("case insensitive bearer prefix", func(t *testing.T) {
		mockUseCase := &mocks.MockAuthUseCase{}
		user := &userDomain.User{ID: uuid.Must(uuid.NewV7()), Role: authDomain.RoleUser}

		mockUseCase.On("Authenticate", mock.Anything, "valid-token").
			Return(user, nil).
			Once()

		router := setupMiddlewareRouter(t, mockUseCase)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "bearer valid-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		router := setupMiddlewareRouter(t, &mocks.MockAuthUseCase{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		router := setupMiddlewareRouter(t, &mocks.MockAuthUseCase{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		mockUseCase := &mocks.MockAuthUseCase{}

		mockUseCase.On("Authenticate", mock.Anything, "expired-token").
			Return(nil, authDomain.ErrExpiredToken).
			Once()

		router := setupMiddlewareRouter(t, mockUseCase)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer expired-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		mockUseCase := &mocks.MockAuthUseCase{}

		mockUseCase.On("Authenticate", mock.Anything, "garbage").
			Return(nil, authDomain.ErrInvalidToken).
			Once()

		router := setupMiddlewareRouter(t, mockUseCase)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireAction(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	newRouter := func(t *testing.T, role authDomain.Role, action authDomain.Action) *gin.Engine {
		mockUseCase := &mocks.MockAuthUseCase{}
		user := &userDomain.User{ID: uuid.Must(uuid.NewV7()), Role: role}

		mockUseCase.On("Authenticate", mock.Anything, "valid-token").
			Return(user, nil).
			Once()

		return setupMiddlewareRouter(t, mockUseCase, RequireAction(action, logger))
	}

	request := func(router *gin.Engine) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("user can upload", func(t *testing.T) {
		w := request(newRouter(t, authDomain.RoleUser, authDomain.ActionUpload))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("guest cannot upload", func(t *testing.T) {
		w := request(newRouter(t, authDomain.RoleGuest, authDomain.ActionUpload))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("guest can access", func(t *testing.T) {
		w := request(newRouter(t, authDomain.RoleGuest, authDomain.ActionAccess))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("only admin manages users", func(t *testing.T) {
		w := request(newRouter(t, authDomain.RoleUser, authDomain.ActionManageUsers))
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = request(newRouter(t, authDomain.RoleAdmin, authDomain.ActionManageUsers))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("no user in context", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.GET("/protected", RequireAction(authDomain.ActionUpload, logger), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
