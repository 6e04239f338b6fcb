// Package http provides the gin handlers and middleware that implement the
// proxy surface: authentication, per-route authorization, upstream forwarding,
// response classification and audit emission.
package http

import (
	"context"

	"github.com/allisson/pdns-gateway/internal/policy/domain"
)

// environmentKey is a context key type for storing resolved environments.
type environmentKey struct{}

// WithEnvironment stores a resolved environment in the context.
// This is called by the authentication middleware after token resolution.
func WithEnvironment(ctx context.Context, env *domain.Environment) context.Context {
	return context.WithValue(ctx, environmentKey{}, env)
}

// GetEnvironment retrieves the resolved environment from the context.
// Returns (env, true) if present, or (nil, false) if authentication has not
// run for this request.
func GetEnvironment(ctx context.Context) (*domain.Environment, bool) {
	env, ok := ctx.Value(environmentKey{}).(*domain.Environment)
	return env, ok
}
