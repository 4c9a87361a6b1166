package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/servmarket/servmarket-backend/api/controllers"
	"github.com/servmarket/servmarket-backend/api/middleware"
	"github.com/servmarket/servmarket-backend/api/routes"
	"github.com/servmarket/servmarket-backend/internal/auth"
	"github.com/servmarket/servmarket-backend/internal/automatedservices"
	"github.com/servmarket/servmarket-backend/internal/notifications"
	"github.com/servmarket/servmarket-backend/internal/organizations"
	"github.com/servmarket/servmarket-backend/internal/services"
	"github.com/servmarket/servmarket-backend/internal/users"
	"github.com/servmarket/servmarket-backend/pkg/config"
	"github.com/servmarket/servmarket-backend/pkg/db"
	"github.com/servmarket/servmarket-backend/pkg/logger"
	"github.com/servmarket/servmarket-backend/pkg/mailer"
	"github.com/servmarket/servmarket-backend/pkg/metrics"
	"github.com/servmarket/servmarket-backend/pkg/migrate"
	"github.com/servmarket/servmarket-backend/pkg/redis"
	"github.com/servmarket/servmarket-backend/pkg/security"
)

const shutdownGrace = 15 * time.Second

// The sign-in limiter clears a caller's email counter after a good sign-in.
var _ middleware.RateLimitResetter = (*redis.Client)(nil)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	checks := map[string]controllers.Pinger{"database": dbClient}

	var limiter middleware.RateLimiter
	if cfg.Redis.Enabled() {
		var redisClient *redis.Client
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		limiter = redisClient
		checks["redis"] = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, auth rate limiting disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	authMetrics := metrics.NewAuthMetrics(registry)

	sender, err := mailer.New(cfg.Mail)
	if err != nil {
		return err
	}
	notifier, err := notifications.NewService(notifications.ServiceParams{
		Sender:  sender,
		Mail:    cfg.Mail,
		Logger:  logg,
		Metrics: authMetrics,
	})
	if err != nil {
		return err
	}

	passwordHasher := security.NewHasher(cfg.Password.Hash())
	apiKeyHasher := security.NewHasher(cfg.APIKey.Hash())

	userRepo := users.NewRepository(dbClient.DB())
	orgRepo := organizations.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:                 userRepo,
		PasswordHasher:           passwordHasher,
		APIKeyHasher:             apiKeyHasher,
		JWTConfig:                cfg.JWT,
		RequireEmailConfirmation: cfg.FeatureFlags.RequireEmailConfirmation,
		Metrics:                  authMetrics,
		Logger:                   logg,
	})
	if err != nil {
		return err
	}

	accountService, err := auth.NewAccountService(auth.AccountServiceParams{
		UserRepo:       userRepo,
		PasswordHasher: passwordHasher,
		Notifier:       notifier,
		App:            cfg.App,
		Tokens:         cfg.Tokens,
		GenerateToken:  security.GenerateToken,
		Metrics:        authMetrics,
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	userService, err := users.NewService(users.ServiceParams{
		Repo:           userRepo,
		PasswordHasher: passwordHasher,
		APIKeyHasher:   apiKeyHasher,
		GenerateToken:  security.GenerateToken,
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	orgService, err := organizations.NewService(organizations.ServiceParams{
		Repo:   orgRepo,
		Users:  userRepo,
		Logger: logg,
	})
	if err != nil {
		return err
	}

	listingService, err := services.NewService(services.ServiceParams{
		Repo:          services.NewRepository(dbClient.DB()),
		Users:         userRepo,
		Organizations: orgRepo,
		Logger:        logg,
	})
	if err != nil {
		return err
	}

	automatedService, err := automatedservices.NewService(automatedservices.ServiceParams{
		Repo:   automatedservices.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:            cfg,
			Logger:            logg,
			Checks:            checks,
			RateLimiter:       limiter,
			HTTPMetrics:       metrics.NewHTTPMetrics(registry),
			Gatherer:          registry,
			Auth:              authService,
			Accounts:          accountService,
			Users:             userService,
			Organizations:     orgService,
			Services:          listingService,
			AutomatedServices: automatedService,
			Notifier:          notifier,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
