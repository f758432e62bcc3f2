package dto

import (
	"github.com/cryptshare/cryptshare/internal/auth/usecase"
)

// LoginResponse carries the mfa-pending token. The provisioning fields are
// only present while the TOTP seed is unconfirmed.
type LoginResponse struct {
	PendingToken string `json:"pending_token"`
	MFAEnabled   bool   `json:"mfa_enabled"`
	OTPAuthURI   string `json:"otpauth_uri,omitempty"`
	QRImagePNG   string `json:"qr_image,omitempty"`
}

// MapLoginOutputToResponse converts a use case login output to a response DTO.
func MapLoginOutputToResponse(output *usecase.LoginOutput) LoginResponse {
	return LoginResponse{
		PendingToken: output.PendingToken,
		MFAEnabled:   output.MFAEnabled,
		OTPAuthURI:   output.OTPAuthURI,
		QRImagePNG:   output.QRImagePNG,
	}
}

// ConfirmMFAResponse carries the established session token.
type ConfirmMFAResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// MapConfirmMFAOutputToResponse converts a use case confirmation output to a response DTO.
func MapConfirmMFAOutputToResponse(output *usecase.ConfirmMFAOutput) ConfirmMFAResponse {
	return ConfirmMFAResponse{
		AccessToken: output.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   output.ExpiresIn,
	}
}
