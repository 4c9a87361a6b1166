package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/servmarket/servmarket-backend/api/responses"
	"github.com/servmarket/servmarket-backend/pkg/config"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
	"github.com/servmarket/servmarket-backend/pkg/logger"
)

const (
	envHeader          = "X-Servmarket-Env"
	readyCheckDeadline = 2 * time.Second
)

// Pinger is a dependency the readiness probe verifies.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and reports 503 when any is down.
func HealthReady(cfg *config.Config, checks map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckDeadline)
		defer cancel()

		status := map[string]string{}
		var failed []string
		for _, name := range names {
			if err := checks[name].Ping(ctx); err != nil {
				status[name] = "down"
				failed = append(failed, name)
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{"dependency": name, "error": err.Error()}), "health.dependency_down")
				}
				continue
			}
			status[name] = "up"
		}

		if len(failed) > 0 {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(status)
			responses.WriteError(r.Context(), nil, w, err)
			return
		}
		status["status"] = "ready"
		responses.WriteSuccess(w, status)
	}
}
