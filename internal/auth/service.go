package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/servmarket/servmarket-backend/internal/users"
	pkgAuth "github.com/servmarket/servmarket-backend/pkg/auth"
	"github.com/servmarket/servmarket-backend/pkg/config"
	"github.com/servmarket/servmarket-backend/pkg/db/models"
	"github.com/servmarket/servmarket-backend/pkg/enums"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
	"github.com/servmarket/servmarket-backend/pkg/logger"
	"github.com/servmarket/servmarket-backend/pkg/metrics"
	"github.com/servmarket/servmarket-backend/pkg/security"
	"gorm.io/gorm"
)

const (
	invalidCredentialsMessage = "invalid email or password"
	invalidAPIKeyMessage      = "invalid api key"
	accountDeactivatedMessage = "account is deactivated"

	outcomeSuccess = "success"

	// timingPlaceholder is hashed once so lookups that find no password still
	// pay for one comparison.
	timingPlaceholder = "servmarket-sign-in-placeholder"
)

// Service authenticates principals.
type Service interface {
	SignInWithPassword(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	SignInWithAPIKey(ctx context.Context, apiKey string) (*users.UserDTO, error)
	AuthenticateBearer(ctx context.Context, token string) (*users.UserDTO, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint64) (*models.User, error)
	ListAPIKeyCandidates(ctx context.Context, prefix string) ([]models.User, error)
}

type secretHasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, digest string) bool
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	PasswordHasher secretHasher
	APIKeyHasher   secretHasher
	JWTConfig      config.JWTConfig
	// RequireEmailConfirmation rejects password sign-in until the address is confirmed.
	RequireEmailConfirmation bool
	Metrics                  *metrics.AuthMetrics
	Logger                   *logger.Logger
	Now                      func() time.Time
}

type service struct {
	users          userRepository
	passwordHasher secretHasher
	apiKeyHasher   secretHasher
	jwtCfg         config.JWTConfig
	requireConfirm bool
	metrics        *metrics.AuthMetrics
	logg           *logger.Logger
	now            func() time.Time

	placeholderOnce sync.Once
	placeholder     string
}

// NewService constructs the authentication service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.PasswordHasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if params.APIKeyHasher == nil {
		return nil, fmt.Errorf("api key hasher is required")
	}
	if params.JWTConfig.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		users:          params.UserRepo,
		passwordHasher: params.PasswordHasher,
		apiKeyHasher:   params.APIKeyHasher,
		jwtCfg:         params.JWTConfig,
		requireConfirm: params.RequireEmailConfirmation,
		metrics:        params.Metrics,
		logg:           logg,
		now:            now,
	}, nil
}

func (s *service) SignInWithPassword(ctx context.Context, req LoginRequest) (resp *LoginResponse, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveAttempt(metrics.MethodPassword, outcomeOf(err), time.Since(started)) }()

	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:     user.ID,
		Identifier: user.Identifier(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID), "auth.sign_in.succeeded")
	return &LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtCfg.TTL().Seconds()),
		User:        users.FromModel(user),
	}, nil
}

// authenticate resolves the account behind an email and password. Unknown
// emails and wrong passwords fail identically; only a correct password
// reveals deactivation or a pending confirmation.
func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := users.NormalizeEmail(email)
	if input == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}

	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.burnComparison(password)
			s.logg.Warn(ctx, "auth.sign_in.unknown_email")
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	ctx = s.logg.WithUserID(ctx, user.ID)
	if user.Kind != enums.UserKindInternal {
		s.burnComparison(password)
		s.logg.Warn(ctx, "auth.sign_in.not_internal")
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		s.burnComparison(password)
		s.logg.Warn(ctx, "auth.sign_in.no_password")
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}
	if !s.passwordHasher.Compare(password, *user.PasswordHash) {
		s.logg.Warn(ctx, "auth.sign_in.wrong_password")
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}
	if user.DeletedAt.Valid {
		s.logg.Warn(ctx, "auth.sign_in.deactivated")
		return nil, pkgerrors.New(pkgerrors.CodeAccountDeactivated, accountDeactivatedMessage)
	}
	if s.requireConfirm && !user.EmailConfirmed {
		s.logg.Warn(ctx, "auth.sign_in.email_not_confirmed")
		return nil, pkgerrors.New(pkgerrors.CodeEmailNotConfirmed, "please confirm your email address before signing in")
	}
	return user, nil
}

func (s *service) SignInWithAPIKey(ctx context.Context, apiKey string) (principal *users.UserDTO, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveAttempt(metrics.MethodAPIKey, outcomeOf(err), time.Since(started)) }()

	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAPIKey, invalidAPIKeyMessage)
	}

	candidates, err := s.users.ListAPIKeyCandidates(ctx, security.APIKeyPrefix(key))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list api accounts")
	}

	for i := range candidates {
		candidate := &candidates[i]
		if candidate.APIKeyHash == nil || !s.apiKeyHasher.Compare(key, *candidate.APIKeyHash) {
			continue
		}
		ctx = s.logg.WithUserID(ctx, candidate.ID)
		if candidate.DeletedAt.Valid {
			s.logg.Warn(ctx, "auth.api_key.deactivated")
			return nil, pkgerrors.New(pkgerrors.CodeAccountDeactivated, accountDeactivatedMessage)
		}
		return users.FromModel(candidate), nil
	}

	s.logg.Warn(ctx, "auth.api_key.no_match")
	return nil, pkgerrors.New(pkgerrors.CodeInvalidAPIKey, invalidAPIKeyMessage)
}

func (s *service) AuthenticateBearer(ctx context.Context, token string) (principal *users.UserDTO, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveAttempt(metrics.MethodBearer, outcomeOf(err), time.Since(started)) }()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNoTokenProvided, "no token provided")
	}

	claims, err := pkgAuth.ParseAccessToken(s.jwtCfg, token)
	if err != nil {
		if pkgAuth.IsExpired(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTokenExpired, err, "token expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidBearerToken, err, "invalid bearer token")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnknownAuth, err, "unknown principal")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve principal")
	}
	if user.DeletedAt.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeAccountDeactivated, accountDeactivatedMessage)
	}
	return users.FromModel(user), nil
}

func (s *service) burnComparison(password string) {
	s.placeholderOnce.Do(func() {
		digest, err := s.passwordHasher.Hash(timingPlaceholder)
		if err == nil {
			s.placeholder = digest
		}
	})
	if s.placeholder != "" {
		_ = s.passwordHasher.Compare(password, s.placeholder)
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	return string(pkgerrors.As(err).Code())
}
