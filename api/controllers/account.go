package controllers

import (
	"net/http"

	"github.com/servmarket/servmarket-backend/api/responses"
	"github.com/servmarket/servmarket-backend/api/validators"
	"github.com/servmarket/servmarket-backend/internal/auth"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
	"github.com/servmarket/servmarket-backend/pkg/logger"
)

const (
	resetRequestedMessage   = "If an account exists for this email, a password reset link has been sent."
	passwordResetMessage    = "Your password has been reset. You can now sign in."
	emailConfirmedMessage   = "Your email address has been confirmed."
	accountValidatedMessage = "Your account has been validated. You can now sign in."
)

// AuthRegister creates a pending account and sends the confirmation link.
func AuthRegister(svc auth.AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AuthRequestPasswordReset always answers with the same message.
func AuthRequestPasswordReset(svc auth.AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		var body auth.PasswordResetRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RequestPasswordReset(r.Context(), body.Email); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, auth.MessageResponse{Message: resetRequestedMessage})
	}
}

func AuthConfirmPasswordReset(svc auth.AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		var body auth.PasswordResetConfirmRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ConfirmPasswordReset(r.Context(), body.Token, body.NewPassword); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, auth.MessageResponse{Message: passwordResetMessage})
	}
}

// AuthConfirmEmail redeems a confirmation token. The validate-account route
// shares the flow and differs only in message.
func AuthConfirmEmail(svc auth.AccountService, message string, logg *logger.Logger) http.HandlerFunc {
	if message == "" {
		message = emailConfirmedMessage
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		var body auth.ConfirmEmailRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ConfirmEmail(r.Context(), body.Token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, auth.MessageResponse{Message: message})
	}
}

// AuthValidateAccount is the confirm-email flow behind /users/validate-account.
func AuthValidateAccount(svc auth.AccountService, logg *logger.Logger) http.HandlerFunc {
	return AuthConfirmEmail(svc, accountValidatedMessage, logg)
}
