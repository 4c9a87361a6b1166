package controllers

import (
	"net/http"
	"strings"

	"github.com/servmarket/servmarket-backend/api/middleware"
	"github.com/servmarket/servmarket-backend/api/responses"
	"github.com/servmarket/servmarket-backend/api/validators"
	"github.com/servmarket/servmarket-backend/internal/auth"
	"github.com/servmarket/servmarket-backend/internal/notifications"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
	"github.com/servmarket/servmarket-backend/pkg/logger"
)

// signInRequest accepts either an email and password or an API key.
type signInRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
	APIKey   string `json:"api_key"`
}

// AuthSignIn exchanges credentials for a principal. Passwords mint a bearer
// token (201); API keys only resolve the principal (200).
func AuthSignIn(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body signInRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		apiKey := strings.TrimSpace(body.APIKey)
		if apiKey == "" {
			apiKey = strings.TrimSpace(r.Header.Get(middleware.APIKeyHeader))
		}
		if apiKey != "" {
			principal, err := svc.SignInWithAPIKey(r.Context(), apiKey)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, principal)
			return
		}

		if strings.TrimSpace(body.Email) == "" || body.Password == "" {
			err := pkgerrors.New(pkgerrors.CodeValidation, "email and password are required").
				WithDetails(map[string]string{"email": "is required", "password": "is required"})
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SignInWithPassword(r.Context(), auth.LoginRequest{Email: body.Email, Password: body.Password})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AuthMe returns the principal resolved by the route's authentication scheme.
func AuthMe(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := middleware.PrincipalFromContext(r.Context())
		if principal == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		responses.WriteSuccess(w, principal)
	}
}

// AuthContact forwards a visitor's message to the support inbox.
func AuthContact(notifier notifications.Notifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if notifier == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifier unavailable"))
			return
		}

		var body notifications.ContactMessage
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := notifier.SendContactMessage(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send contact message"))
			return
		}
		responses.WriteSuccess(w, auth.MessageResponse{Message: "Your message has been sent. We will get back to you shortly."})
	}
}
