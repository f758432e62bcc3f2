package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cryptshare/cryptshare/internal/auth/http/dto"
	authUseCase "github.com/cryptshare/cryptshare/internal/auth/usecase"
	"github.com/cryptshare/cryptshare/internal/httputil"
)

// AuthHandler handles the two-step login HTTP endpoints.
type AuthHandler struct {
	authUseCase authUseCase.AuthUseCase
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authUC authUseCase.AuthUseCase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUC,
		logger:      logger,
	}
}

// LoginHandler verifies credentials and returns an mfa-pending token.
// POST /v1/auth/login
// While the TOTP seed is unconfirmed the response also carries the otpauth
// URI and a QR code image for enrollment.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	output, err := h.authUseCase.Login(c.Request.Context(), dto.ToLoginInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapLoginOutputToResponse(output))
}

// ConfirmMFAHandler exchanges an mfa-pending token plus a TOTP code for an
// access token.
// POST /v1/auth/mfa/confirm
func (h *AuthHandler) ConfirmMFAHandler(c *gin.Context) {
	var req dto.ConfirmMFARequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	output, err := h.authUseCase.ConfirmMFA(c.Request.Context(), dto.ToConfirmMFAInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapConfirmMFAOutputToResponse(output))
}
