// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/cryptshare/cryptshare/internal/auth/usecase"
	appValidation "github.com/cryptshare/cryptshare/internal/validation"
)

// LoginRequest contains the credentials for the password step.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that the credentials are present.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("email is required")),
		validation.Field(&r.Password, validation.Required.Error("password is required")),
	)
}

// ToLoginInput converts the request DTO to a use case input.
func ToLoginInput(r LoginRequest) usecase.LoginInput {
	return usecase.LoginInput{
		Email:    r.Email,
		Password: r.Password,
	}
}

// ConfirmMFARequest contains the pending token and TOTP code for the second step.
type ConfirmMFARequest struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

// Validate checks that the token is present and the code is a six-digit TOTP code.
func (r ConfirmMFARequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required.Error("token is required")),
		validation.Field(&r.Code, validation.Required.Error("code is required"), appValidation.TOTPCode),
	)
}

// ToConfirmMFAInput converts the request DTO to a use case input.
func ToConfirmMFAInput(r ConfirmMFARequest) usecase.ConfirmMFAInput {
	return usecase.ConfirmMFAInput{
		PendingToken: r.Token,
		Code:         r.Code,
	}
}
