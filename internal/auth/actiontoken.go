package auth

import (
	"context"
	"net/url"
	"time"

	"github.com/servmarket/servmarket-backend/internal/users"
	"github.com/servmarket/servmarket-backend/pkg/config"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
	"github.com/servmarket/servmarket-backend/pkg/metrics"
	"github.com/servmarket/servmarket-backend/pkg/security"
)

const (
	defaultPasswordResetTTL     = time.Hour
	defaultEmailConfirmationTTL = 24 * time.Hour
)

// actionTokenKind describes one single-use token flow: which columns hold the
// token, how long it lives, where its link points and how a failed redemption
// is reported.
type actionTokenKind struct {
	purpose        string
	columns        users.TokenColumns
	ttl            time.Duration
	path           string
	failure        pkgerrors.Code
	failureMessage string
}

func passwordResetKind(ttl time.Duration) actionTokenKind {
	if ttl <= 0 {
		ttl = defaultPasswordResetTTL
	}
	return actionTokenKind{
		purpose:        "password_reset",
		columns:        users.PasswordResetColumns,
		ttl:            ttl,
		path:           "/forgot-password",
		failure:        pkgerrors.CodeInvalidOrExpiredToken,
		failureMessage: "invalid or expired token",
	}
}

func emailConfirmationKind(ttl time.Duration) actionTokenKind {
	if ttl <= 0 {
		ttl = defaultEmailConfirmationTTL
	}
	return actionTokenKind{
		purpose:        "email_confirmation",
		columns:        users.EmailConfirmationColumns,
		ttl:            ttl,
		path:           "/confirm-email",
		failure:        pkgerrors.CodeEmailConfirmation,
		failureMessage: "invalid or expired confirmation token",
	}
}

type tokenStore interface {
	IssueToken(ctx context.Context, id uint64, cols users.TokenColumns, token string, expiresAt time.Time) error
	RedeemToken(ctx context.Context, cols users.TokenColumns, token string, now time.Time, changes map[string]any) (bool, error)
}

type issuedToken struct {
	Value     string
	ExpiresAt time.Time
	Link      string
}

// actionTokens issues and redeems single-use tokens for any actionTokenKind.
type actionTokens struct {
	store    tokenStore
	generate security.TokenGenerator
	app      config.AppConfig
	now      func() time.Time
	metrics  *metrics.AuthMetrics
}

// mint produces a token without persisting it, for callers that store it as
// part of a larger write.
func (a *actionTokens) mint(kind actionTokenKind) (issuedToken, error) {
	value, err := a.generate()
	if err != nil {
		return issuedToken{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate token")
	}
	return issuedToken{
		Value:     value,
		ExpiresAt: a.now().UTC().Add(kind.ttl),
		Link:      a.app.Link(kind.path, url.Values{"token": []string{value}}),
	}, nil
}

// issue mints a token and stores it on the account, replacing any earlier one.
func (a *actionTokens) issue(ctx context.Context, kind actionTokenKind, userID uint64) (issuedToken, error) {
	token, err := a.mint(kind)
	if err != nil {
		return issuedToken{}, err
	}
	if err := a.store.IssueToken(ctx, userID, kind.columns, token.Value, token.ExpiresAt); err != nil {
		return issuedToken{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store "+kind.purpose+" token")
	}
	a.metrics.IncToken(kind.purpose, "issued")
	return token, nil
}

// redeem consumes a live token and applies changes atomically. Unknown,
// expired and already used tokens are indistinguishable to the caller.
func (a *actionTokens) redeem(ctx context.Context, kind actionTokenKind, token string, changes map[string]any) error {
	if token == "" {
		a.metrics.IncToken(kind.purpose, "rejected")
		return pkgerrors.New(kind.failure, kind.failureMessage)
	}
	ok, err := a.store.RedeemToken(ctx, kind.columns, token, a.now().UTC(), changes)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redeem "+kind.purpose+" token")
	}
	if !ok {
		a.metrics.IncToken(kind.purpose, "rejected")
		return pkgerrors.New(kind.failure, kind.failureMessage)
	}
	a.metrics.IncToken(kind.purpose, "redeemed")
	return nil
}
