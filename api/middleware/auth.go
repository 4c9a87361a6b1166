package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/servmarket/servmarket-backend/api/responses"
	"github.com/servmarket/servmarket-backend/internal/users"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
	"github.com/servmarket/servmarket-backend/pkg/logger"
)

// Scheme is the authentication strategy a route declares when it is mounted.
type Scheme int

const (
	SchemePublic Scheme = iota
	SchemeBearer
	SchemeAPIKey
	// SchemeBearerOrAPIKey uses the API key when one is presented and falls
	// back to the bearer token otherwise.
	SchemeBearerOrAPIKey
)

// APIKeyHeader carries machine credentials.
const APIKeyHeader = "X-API-Key"

func (s Scheme) String() string {
	switch s {
	case SchemeBearer:
		return "bearer"
	case SchemeAPIKey:
		return "api_key"
	case SchemeBearerOrAPIKey:
		return "bearer_or_api_key"
	default:
		return "public"
	}
}

// Authenticator resolves a principal from presented credentials.
type Authenticator interface {
	AuthenticateBearer(ctx context.Context, token string) (*users.UserDTO, error)
	SignInWithAPIKey(ctx context.Context, apiKey string) (*users.UserDTO, error)
}

// Authenticate resolves the caller according to scheme and seeds the request
// context with the principal. Public routes pass straight through.
func Authenticate(scheme Scheme, authn Authenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if scheme == SchemePublic {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if authn == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "authenticator unavailable"))
				return
			}

			resolved := scheme
			if scheme == SchemeBearerOrAPIKey {
				resolved = SchemeBearer
				if apiKeyFromRequest(r) != "" {
					resolved = SchemeAPIKey
				}
			}

			var (
				principal *users.UserDTO
				err       error
			)
			switch resolved {
			case SchemeAPIKey:
				principal, err = authn.SignInWithAPIKey(ctx, apiKeyFromRequest(r))
			default:
				principal, err = authn.AuthenticateBearer(ctx, bearerFromRequest(r))
			}
			if err != nil {
				if logg != nil {
					ctx = logg.WithField(ctx, "auth_scheme", resolved.String())
				}
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if principal == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnknownAuth, "unknown principal"))
				return
			}

			ctx = WithPrincipal(ctx, principal, resolved)
			if logg != nil {
				ctx = logg.WithUserID(ctx, principal.ID)
				ctx = logg.WithActorRole(ctx, principal.Role.String())
				ctx = logg.WithPrincipalKind(ctx, principal.Kind.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerFromRequest(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) < 7 || !strings.EqualFold(raw[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(raw[7:])
}

func apiKeyFromRequest(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
		return key
	}
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) < 7 || !strings.EqualFold(raw[:7], "apikey ") {
		return ""
	}
	return strings.TrimSpace(raw[7:])
}
