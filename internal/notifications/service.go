package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/templ"
	"github.com/servmarket/servmarket-backend/pkg/config"
	"github.com/servmarket/servmarket-backend/pkg/logger"
	"github.com/servmarket/servmarket-backend/pkg/mailer"
	"github.com/servmarket/servmarket-backend/pkg/metrics"
)

// ServiceParams wires the email notifier.
type ServiceParams struct {
	Sender  mailer.Sender
	Mail    config.MailConfig
	Logger  *logger.Logger
	Metrics *metrics.AuthMetrics
}

// Service renders account emails and hands them to the configured sender.
type Service struct {
	sender  mailer.Sender
	mail    config.MailConfig
	logg    *logger.Logger
	metrics *metrics.AuthMetrics
}

var _ Notifier = (*Service)(nil)

// NewService builds the email notifier.
func NewService(params ServiceParams) (*Service, error) {
	if params.Sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if strings.TrimSpace(params.Mail.ContactRecipient) == "" {
		return nil, fmt.Errorf("contact recipient required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		sender:  params.Sender,
		mail:    params.Mail,
		logg:    logg,
		metrics: params.Metrics,
	}, nil
}

func (s *Service) SendEmailConfirmation(ctx context.Context, msg EmailConfirmation) error {
	body := actionEmail(
		displayName(msg.FirstName, msg.LastName),
		"Thanks for signing up. Please confirm your email address to activate your account.",
		"Confirm my email",
		msg.Link,
		msg.ExpiresAt,
		s.mail.SupportEmail,
	)
	return s.deliver(ctx, KindEmailConfirmation, mailer.SendEmailParams{
		SendTo:  msg.To,
		Subject: "Confirm your email address",
	}, layout("Confirm your email address", body))
}

func (s *Service) SendPasswordReset(ctx context.Context, msg PasswordReset) error {
	body := actionEmail(
		displayName(msg.FirstName, msg.LastName),
		"We received a request to reset your password. If you did not ask for it, you can ignore this email.",
		"Choose a new password",
		msg.Link,
		msg.ExpiresAt,
		s.mail.SupportEmail,
	)
	return s.deliver(ctx, KindPasswordReset, mailer.SendEmailParams{
		SendTo:  msg.To,
		Subject: "Reset your password",
	}, layout("Reset your password", body))
}

func (s *Service) SendContactMessage(ctx context.Context, msg ContactMessage) error {
	subject := "Contact: " + strings.TrimSpace(msg.Subject)
	return s.deliver(ctx, KindContactMessage, mailer.SendEmailParams{
		SendTo:  s.mail.ContactRecipient,
		Subject: subject,
		ReplyTo: strings.TrimSpace(msg.Email),
	}, layout(subject, contactEmail(msg)))
}

func (s *Service) deliver(ctx context.Context, kind string, params mailer.SendEmailParams, tpl templ.Component) error {
	html, err := render(ctx, tpl)
	if err != nil {
		s.metrics.IncNotification(kind, "render_failed")
		return fmt.Errorf("render %s email: %w", kind, err)
	}
	params.BodyHTML = html
	params.Tag = kind

	ctx = s.logg.WithField(ctx, "notification", kind)
	if err := s.sender.SendEmail(ctx, params); err != nil {
		s.metrics.IncNotification(kind, "failed")
		s.logg.Error(ctx, "notifications.send_failed", err)
		return err
	}
	s.metrics.IncNotification(kind, "sent")
	s.logg.Info(ctx, "notifications.sent")
	return nil
}
