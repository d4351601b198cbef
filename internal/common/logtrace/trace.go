package logtrace

import (
	"context"

	"github.com/google/uuid"
)

// HeaderRequestID is the header used to propagate the request ID.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext extracts the request ID from the context.
// Returns an empty string if the context is nil or if no request ID is found.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	r, ok := ctx.Value(requestIDKey{}).(string)
	if !ok {
		return ""
	}
	return r
}

// EnsureRequestID returns ctx and its request ID, generating a time-ordered
// UUIDv7 when the context does not carry one yet.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id := RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := NewID()
	return WithRequestID(ctx, id), id
}

// NewID returns a new UUIDv7 string, falling back to a random UUID if the
// clock-based generator fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
