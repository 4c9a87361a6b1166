package auth

import (
	"github.com/servmarket/servmarket-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the sign-in endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the access token and sanitized principal.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"`
	User        *users.UserDTO `json:"user"`
}

// RegisterRequest is the public self-registration payload.
type RegisterRequest struct {
	FirstName       string `json:"first_name" validate:"required,max=64"`
	LastName        string `json:"last_name" validate:"required,max=64"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// RegisterResponse is deliberately non-committal about delivery.
type RegisterResponse struct {
	Message string         `json:"message"`
	User    *users.UserDTO `json:"user"`
}

// PasswordResetRequest starts the reset flow.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest redeems a reset token.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// ConfirmEmailRequest redeems an email confirmation token.
type ConfirmEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// MessageResponse wraps a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}
