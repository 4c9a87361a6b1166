package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/servmarket/servmarket-backend/internal/users"
	"github.com/servmarket/servmarket-backend/pkg/logger"
	"github.com/servmarket/servmarket-backend/pkg/metrics"
	"go.uber.org/multierr"
)

const tokenCleanupJobName = "auth-token-cleanup"

type expiredTokenStore interface {
	ClearExpiredTokens(ctx context.Context, cols users.TokenColumns, now time.Time) (int64, error)
}

type TokenCleanupJobParams struct {
	Logger  *logger.Logger
	Store   expiredTokenStore
	Metrics *metrics.JobMetrics
	Now     func() time.Time
}

// tokenCleanupJob clears expired password-reset and email-confirmation tokens.
// Redemption rejects expired tokens on its own; this only clears the columns.
type tokenCleanupJob struct {
	logg    *logger.Logger
	store   expiredTokenStore
	metrics *metrics.JobMetrics
	now     func() time.Time
}

func NewTokenCleanupJob(params TokenCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("token store required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &tokenCleanupJob{
		logg:    params.Logger,
		store:   params.Store,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

func (j *tokenCleanupJob) Name() string { return tokenCleanupJobName }

func (j *tokenCleanupJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	kinds := []struct {
		name string
		cols users.TokenColumns
	}{
		{"reset", users.PasswordResetColumns},
		{"confirmation", users.EmailConfirmationColumns},
	}

	var errs error
	cleared := map[string]any{}
	for _, kind := range kinds {
		n, err := j.store.ClearExpiredTokens(ctx, kind.cols, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("clear expired %s tokens: %w", kind.name, err))
			continue
		}
		cleared[kind.name+"_cleared"] = n
		j.metrics.AddRows(tokenCleanupJobName, n)
	}

	j.logg.Info(j.logg.WithFields(ctx, cleared), "cron.token_cleanup.done")
	return errs
}
