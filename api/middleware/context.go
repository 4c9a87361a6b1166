package middleware

import (
	"context"

	"github.com/servmarket/servmarket-backend/internal/users"
)

type contextKey string

const (
	ctxPrincipal contextKey = "principal"
	ctxScheme    contextKey = "auth_scheme"
)

// PrincipalFromContext returns the authenticated principal, or nil on public routes.
func PrincipalFromContext(ctx context.Context) *users.UserDTO {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxPrincipal).(*users.UserDTO); ok {
		return v
	}
	return nil
}

// SchemeFromContext reports which scheme authenticated the request.
func SchemeFromContext(ctx context.Context) Scheme {
	if ctx == nil {
		return SchemePublic
	}
	if v, ok := ctx.Value(ctxScheme).(Scheme); ok {
		return v
	}
	return SchemePublic
}

// WithPrincipal injects the authenticated principal into the context.
func WithPrincipal(ctx context.Context, principal *users.UserDTO, scheme Scheme) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxPrincipal, principal)
	return context.WithValue(ctx, ctxScheme, scheme)
}
