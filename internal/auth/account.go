package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/servmarket/servmarket-backend/internal/notifications"
	"github.com/servmarket/servmarket-backend/internal/users"
	"github.com/servmarket/servmarket-backend/pkg/config"
	"github.com/servmarket/servmarket-backend/pkg/db"
	"github.com/servmarket/servmarket-backend/pkg/db/models"
	"github.com/servmarket/servmarket-backend/pkg/enums"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
	"github.com/servmarket/servmarket-backend/pkg/logger"
	"github.com/servmarket/servmarket-backend/pkg/metrics"
	"github.com/servmarket/servmarket-backend/pkg/security"
	"gorm.io/gorm"
)

const registeredMessage = "Registration received. Please check your inbox to confirm your email address."

// AccountService runs the self-service account flows: registration, email
// confirmation and password reset.
type AccountService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	ConfirmEmail(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
}

type accountRepository interface {
	tokenStore
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	EmailExists(ctx context.Context, email string, excludeID uint64) (bool, error)
	FindActiveByEmail(ctx context.Context, email string) (*models.User, error)
}

type passwordHasher interface {
	Hash(plaintext string) (string, error)
}

// AccountServiceParams packages the dependencies for the account flows.
type AccountServiceParams struct {
	UserRepo       accountRepository
	PasswordHasher passwordHasher
	Notifier       notifications.Notifier
	App            config.AppConfig
	Tokens         config.TokensConfig
	GenerateToken  security.TokenGenerator
	Metrics        *metrics.AuthMetrics
	Logger         *logger.Logger
	Now            func() time.Time
}

type accountService struct {
	repo              accountRepository
	hasher            passwordHasher
	notifier          notifications.Notifier
	tokens            *actionTokens
	passwordReset     actionTokenKind
	emailConfirmation actionTokenKind
	logg              *logger.Logger
}

// NewAccountService builds the account flow service with the provided dependencies.
func NewAccountService(params AccountServiceParams) (AccountService, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.PasswordHasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	generate := params.GenerateToken
	if generate == nil {
		generate = security.GenerateToken
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	return &accountService{
		repo:     params.UserRepo,
		hasher:   params.PasswordHasher,
		notifier: params.Notifier,
		tokens: &actionTokens{
			store:    params.UserRepo,
			generate: generate,
			app:      params.App,
			now:      now,
			metrics:  params.Metrics,
		},
		passwordReset:     passwordResetKind(params.Tokens.PasswordResetTTL),
		emailConfirmation: emailConfirmationKind(params.Tokens.EmailConfirmationTTL),
		logg:              logg,
	}, nil
}

func (s *accountService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := users.NormalizeEmail(req.Email)
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if firstName == "" || lastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}
	if req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "passwords do not match")
	}

	exists, err := s.repo.EmailExists(ctx, email, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeEmailAlreadyExists, "email already exists")
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	confirmation, err := s.tokens.mint(s.emailConfirmation)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, users.CreateUserDTO{
		FirstName:                  firstName,
		LastName:                   lastName,
		Email:                      &email,
		PasswordHash:               &passwordHash,
		Kind:                       enums.UserKindInternal,
		Role:                       enums.RoleCustomer,
		EmailConfirmed:             false,
		EmailConfirmationToken:     &confirmation.Value,
		EmailConfirmationExpiresAt: &confirmation.ExpiresAt,
	})
	if err != nil {
		if db.IsUniqueViolation(err, users.EmailUniqueConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeEmailAlreadyExists, "email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	s.tokens.metrics.IncToken(s.emailConfirmation.purpose, "issued")

	ctx = s.logg.WithUserID(ctx, user.ID)
	s.logg.Info(ctx, "auth.register.created")

	if err := s.notifier.SendEmailConfirmation(ctx, notifications.EmailConfirmation{
		To:        email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Link:      confirmation.Link,
		ExpiresAt: confirmation.ExpiresAt,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send confirmation email")
	}

	return &RegisterResponse{
		Message: registeredMessage,
		User:    users.FromModel(user),
	}, nil
}

func (s *accountService) ConfirmEmail(ctx context.Context, token string) error {
	if err := s.tokens.redeem(ctx, s.emailConfirmation, strings.TrimSpace(token), map[string]any{
		"email_confirmed": true,
	}); err != nil {
		return err
	}
	s.logg.Info(ctx, "auth.email_confirmation.redeemed")
	return nil
}

// RequestPasswordReset never reports whether the email belongs to an account.
// Store and delivery failures are logged, not returned.
func (s *accountService) RequestPasswordReset(ctx context.Context, email string) error {
	normalized := users.NormalizeEmail(email)
	if normalized == "" {
		return nil
	}

	user, err := s.repo.FindActiveByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Debug(ctx, "auth.password_reset.unknown_email")
			return nil
		}
		s.logg.Error(ctx, "auth.password_reset.lookup_failed", err)
		return nil
	}

	ctx = s.logg.WithUserID(ctx, user.ID)
	if user.Kind != enums.UserKindInternal {
		s.logg.Warn(ctx, "auth.password_reset.not_internal")
		return nil
	}
	reset, err := s.tokens.issue(ctx, s.passwordReset, user.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Error(ctx, "auth.password_reset.issue_failed", err)
		}
		return nil
	}

	if err := s.notifier.SendPasswordReset(ctx, notifications.PasswordReset{
		To:        normalized,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Link:      reset.Link,
		ExpiresAt: reset.ExpiresAt,
	}); err != nil {
		s.logg.Error(ctx, "auth.password_reset.notify_failed", err)
		return nil
	}
	s.logg.Info(ctx, "auth.password_reset.issued")
	return nil
}

func (s *accountService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return pkgerrors.New(s.passwordReset.failure, s.passwordReset.failureMessage)
	}
	if newPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password is required")
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.tokens.redeem(ctx, s.passwordReset, token, map[string]any{
		"password_hash": passwordHash,
	}); err != nil {
		return err
	}
	s.logg.Info(ctx, "auth.password_reset.redeemed")
	return nil
}
