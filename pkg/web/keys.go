package web

import (
	"context"

	"github.com/akrylov/marketplace/pkg/auth"
)

type principalKey struct{}

// WithPrincipal adds an authenticated principal to the context.
func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext retrieves the authenticated principal from the context.
// Returns the principal and a boolean indicating whether it was found.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(auth.Principal)
	return p, ok
}
