// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/cryptshare/cryptshare/internal/user/usecase"
)

// RegisterUserRequest contains the parameters for registering a new user.
// The master password seals the generated private key and is never stored
// in plain form.
type RegisterUserRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	MasterPassword string `json:"master_password"`
	Role           string `json:"role,omitempty"`
}

// Validate checks that the required fields are present. Field content rules
// (password strength, username charset) are enforced by the use case.
func (r RegisterUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("username is required")),
		validation.Field(&r.Email, validation.Required.Error("email is required")),
		validation.Field(&r.Password, validation.Required.Error("password is required")),
		validation.Field(&r.MasterPassword, validation.Required.Error("master_password is required")),
	)
}

// ToRegisterUserInput converts the request DTO to a use case input.
func ToRegisterUserInput(r RegisterUserRequest) usecase.RegisterUserInput {
	return usecase.RegisterUserInput{
		Username:       r.Username,
		Email:          r.Email,
		Password:       r.Password,
		MasterPassword: r.MasterPassword,
		Role:           r.Role,
	}
}
