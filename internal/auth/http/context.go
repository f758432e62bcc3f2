// Package http provides HTTP handlers and middleware for authentication.
package http

import (
	"context"

	userDomain "github.com/cryptshare/cryptshare/internal/user/domain"
)

type userKey struct{}

// WithUser stores an authenticated user in the context.
// Called by the session middleware after successful token validation.
func WithUser(ctx context.Context, user *userDomain.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser retrieves the authenticated user from the context.
// Returns (user, true) if a user is present, or (nil, false) if not.
func GetUser(ctx context.Context) (*userDomain.User, bool) {
	user, ok := ctx.Value(userKey{}).(*userDomain.User)
	return user, ok
}
