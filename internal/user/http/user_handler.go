// Package http provides HTTP handlers for user account operations.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cryptshare/cryptshare/internal/httputil"
	"github.com/cryptshare/cryptshare/internal/metrics"
	"github.com/cryptshare/cryptshare/internal/user/http/dto"
	"github.com/cryptshare/cryptshare/internal/user/usecase"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userUseCase usecase.UseCase
	metrics     metrics.BusinessMetrics
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userUseCase usecase.UseCase, businessMetrics metrics.BusinessMetrics, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
		metrics:     businessMetrics,
		logger:      logger,
	}
}

// RegisterHandler registers a new user account.
// POST /v1/users
// Returns 201 Created with the user metadata. The response never includes
// password hashes or the private key vault.
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterUserRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	user, err := h.userUseCase.RegisterUser(c.Request.Context(), dto.ToRegisterUserInput(req))
	if err != nil {
		h.metrics.RecordOperation(c.Request.Context(), "user", "register", "error")
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.metrics.RecordOperation(c.Request.Context(), "user", "register", "success")
	c.JSON(http.StatusCreated, dto.MapUserToResponse(user))
}
