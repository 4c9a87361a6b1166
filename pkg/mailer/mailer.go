package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/servmarket/servmarket-backend/pkg/config"
)

var (
	ErrFailedToSendEmail = errors.New("mailer: failed to send email")
	ErrInvalidConfig     = errors.New("mailer: invalid config")
	ErrInvalidParams     = errors.New("mailer: invalid params")
)

var validate = validator.New()

// Sender delivers a fully rendered email.
type Sender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

type SendEmailParams struct {
	SendTo   string `json:"send_to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	Tag      string `json:"tag,omitempty"`
	// ReplyTo overrides the configured support address.
	ReplyTo string `json:"reply_to,omitempty"`
}

// Validate checks the recipient and required content.
func (p SendEmailParams) Validate() error {
	if strings.TrimSpace(p.SendTo) == "" {
		return fmt.Errorf("%w: SendTo is required", ErrInvalidParams)
	}
	if err := validate.Var(p.SendTo, "email"); err != nil {
		return fmt.Errorf("%w: SendTo must be a valid email address", ErrInvalidParams)
	}
	if strings.TrimSpace(p.Subject) == "" {
		return fmt.Errorf("%w: Subject is required", ErrInvalidParams)
	}
	if strings.TrimSpace(p.BodyHTML) == "" {
		return fmt.Errorf("%w: BodyHTML is required", ErrInvalidParams)
	}
	if p.ReplyTo != "" {
		if err := validate.Var(p.ReplyTo, "email"); err != nil {
			return fmt.Errorf("%w: ReplyTo must be a valid email address", ErrInvalidParams)
		}
	}
	return nil
}

// New picks the sender for the configured provider.
func New(cfg config.MailConfig) (Sender, error) {
	switch cfg.ProviderName() {
	case config.MailProviderPostmark:
		return NewPostmarkSender(cfg)
	case config.MailProviderDev:
		return NewDevSender(cfg.DevOutputDir), nil
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
