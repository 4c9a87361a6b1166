package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/servmarket/servmarket-backend/api/controllers"
	"github.com/servmarket/servmarket-backend/api/middleware"
	"github.com/servmarket/servmarket-backend/internal/auth"
	"github.com/servmarket/servmarket-backend/internal/automatedservices"
	"github.com/servmarket/servmarket-backend/internal/notifications"
	"github.com/servmarket/servmarket-backend/internal/organizations"
	"github.com/servmarket/servmarket-backend/internal/services"
	"github.com/servmarket/servmarket-backend/internal/users"
	"github.com/servmarket/servmarket-backend/pkg/config"
	"github.com/servmarket/servmarket-backend/pkg/enums"
	"github.com/servmarket/servmarket-backend/pkg/logger"
	"github.com/servmarket/servmarket-backend/pkg/metrics"
)

// Params carries everything the HTTP surface is assembled from.
type Params struct {
	Config *config.Config
	Logger *logger.Logger

	// Checks are pinged by /health/ready, keyed by dependency name.
	Checks map[string]controllers.Pinger
	// RateLimiter must be left nil (untyped) when redis is not configured.
	RateLimiter middleware.RateLimiter

	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Auth              auth.Service
	Accounts          auth.AccountService
	Users             users.Service
	Organizations     organizations.Service
	Services          services.Service
	AutomatedServices automatedservices.Service
	Notifier          notifications.Notifier
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, p.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	limits := cfg.AuthRateLimit
	signInPolicy := middleware.RateLimitPolicy{
		Name:           "sign_in",
		Window:         limits.SignInWindow,
		IPLimit:        limits.SignInIPLimit,
		EmailLimit:     limits.SignInEmailLimit,
		ResetOnSuccess: true,
	}
	registerPolicy := middleware.RateLimitPolicy{
		Name:       "register",
		Window:     limits.RegisterWindow,
		IPLimit:    limits.RegisterIPLimit,
		EmailLimit: limits.RegisterEmailLimit,
	}
	resetPolicy := middleware.RateLimitPolicy{
		Name:       "reset",
		Window:     limits.ResetWindow,
		IPLimit:    limits.ResetIPLimit,
		EmailLimit: limits.ResetEmailLimit,
	}
	contactPolicy := middleware.RateLimitPolicy{
		Name:    "contact",
		Window:  limits.ContactWindow,
		IPLimit: limits.ContactIPLimit,
	}

	bearer := middleware.Authenticate(middleware.SchemeBearer, p.Auth, logg)
	apiKey := middleware.Authenticate(middleware.SchemeAPIKey, p.Auth, logg)
	either := middleware.Authenticate(middleware.SchemeBearerOrAPIKey, p.Auth, logg)
	adminOnly := middleware.RequireRoles(logg, enums.RoleAdministrator)
	providers := middleware.RequireRoles(logg, enums.RoleAdministrator, enums.RoleEntrepreneur)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.Checks, logg))
	})

	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.RateLimit(signInPolicy, p.RateLimiter, logg)).
			Post("/sign-in", controllers.AuthSignIn(p.Auth, logg))
		r.With(middleware.RateLimit(contactPolicy, p.RateLimiter, logg)).
			Post("/contact", controllers.AuthContact(p.Notifier, logg))
		r.With(either).Get("/me", controllers.AuthMe(logg))
	})

	r.With(bearer, adminOnly).Post("/admin/users", controllers.AdminCreateUser(p.Users, logg))

	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RateLimit(registerPolicy, p.RateLimiter, logg)).
			Post("/", controllers.AuthRegister(p.Accounts, logg))
		r.With(middleware.RateLimit(resetPolicy, p.RateLimiter, logg)).
			Post("/reset-password", controllers.AuthRequestPasswordReset(p.Accounts, logg))
		r.Post("/reset-password/confirm", controllers.AuthConfirmPasswordReset(p.Accounts, logg))
		r.Post("/confirm-email", controllers.AuthConfirmEmail(p.Accounts, "", logg))
		r.Post("/validate-account", controllers.AuthValidateAccount(p.Accounts, logg))

		r.Group(func(r chi.Router) {
			r.Use(bearer)
			r.With(adminOnly).Get("/", controllers.ListUsers(p.Users, logg))
			r.With(adminOnly).Get("/{id}", controllers.GetUser(p.Users, logg))
			r.Patch("/{id}", controllers.UpdateUser(p.Users, logg))
			r.With(adminOnly).Patch("/{id}/update-state", controllers.UpdateUserState(p.Users, logg))
		})
	})

	r.Route("/organizations", func(r chi.Router) {
		r.Use(bearer)
		r.Post("/", controllers.CreateOrganization(p.Organizations, logg))
		r.Get("/", controllers.ListOrganizations(p.Organizations, logg))
		r.Get("/{id}", controllers.GetOrganization(p.Organizations, logg))
	})

	r.Route("/services", func(r chi.Router) {
		r.With(apiKey).Get("/ia", controllers.ListAIAgentServices(p.Services, logg))

		r.Group(func(r chi.Router) {
			r.Use(either)
			r.With(providers).Post("/", controllers.CreateService(p.Services, logg))
			r.Get("/", controllers.ListServices(p.Services, logg))
			r.Get("/type/{type}", controllers.ListServicesByType(p.Services, logg))
			r.Get("/user/{userID}", controllers.ListServicesByUser(p.Services, logg))
			r.Get("/by-user", controllers.ListOwnServices(p.Services, logg))
			r.Get("/{id}", controllers.GetService(p.Services, logg))
			r.Put("/{id}", controllers.UpdateService(p.Services, logg))
			r.Patch("/{id}", controllers.UpdateService(p.Services, logg))
		})
	})

	r.Route("/automated-services", func(r chi.Router) {
		r.Use(either)
		r.With(providers).Post("/", controllers.CreateAutomatedService(p.AutomatedServices, logg))
		r.Get("/", controllers.ListAutomatedServices(p.AutomatedServices, logg))
		r.Get("/{id}", controllers.GetAutomatedService(p.AutomatedServices, logg))
	})

	return r
}
