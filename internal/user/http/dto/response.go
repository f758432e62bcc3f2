package dto

import (
	"time"

	"github.com/cryptshare/cryptshare/internal/user/domain"
)

// UserResponse represents a user in API responses. Password hashes and the
// private key vault are never exposed.
type UserResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	PublicKey  string    `json:"public_key"`
	MFAEnabled bool      `json:"mfa_enabled"`
	CreatedAt  time.Time `json:"created_at"`
}

// MapUserToResponse converts a domain user to a response DTO.
func MapUserToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID.String(),
		Username:   user.Username,
		Email:      user.Email,
		Role:       string(user.Role),
		PublicKey:  user.PublicKey,
		MFAEnabled: user.MFAEnabled,
		CreatedAt:  user.CreatedAt,
	}
}
