package notifications

//go:generate mockgen -source=notifier.go -destination=mock/notifier_mock.go -package=mock

import (
	"context"
	"time"
)

// Notification kinds, used as mail tags and metric labels.
const (
	KindEmailConfirmation = "email_confirmation"
	KindPasswordReset     = "password_reset"
	KindContactMessage    = "contact_message"
)

// Notifier delivers account lifecycle messages out of band.
type Notifier interface {
	SendEmailConfirmation(ctx context.Context, msg EmailConfirmation) error
	SendPasswordReset(ctx context.Context, msg PasswordReset) error
	SendContactMessage(ctx context.Context, msg ContactMessage) error
}

// EmailConfirmation asks a new account holder to prove ownership of To.
type EmailConfirmation struct {
	To        string
	FirstName string
	LastName  string
	Link      string
	ExpiresAt time.Time
}

// PasswordReset carries the single-use reset link.
type PasswordReset struct {
	To        string
	FirstName string
	LastName  string
	Link      string
	ExpiresAt time.Time
}

// ContactMessage is a visitor's contact form submission, forwarded to support.
type ContactMessage struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Subject   string `json:"subject" validate:"required,max=200"`
	Message   string `json:"message" validate:"required,max=2000"`
}
