package httputil

import (
	"context"

	"github.com/google/uuid"
)

// requestIDKey is a context key type for storing the request correlation ID.
type requestIDKey struct{}

// WithRequestID stores the request correlation ID in the context. Set by the
// HTTP layer from the X-Request-Id header so audit entries written anywhere
// down the call chain share the same correlation ID.
func WithRequestID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext retrieves the request correlation ID from the context.
// Returns (uuid.Nil, false) when no request ID was set, e.g. in CLI flows.
func RequestIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(requestIDKey{}).(uuid.UUID)
	return id, ok
}
