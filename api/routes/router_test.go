package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/servmarket/servmarket-backend/api/controllers"
	"github.com/servmarket/servmarket-backend/internal/auth"
	"github.com/servmarket/servmarket-backend/internal/services"
	"github.com/servmarket/servmarket-backend/internal/users"
	"github.com/servmarket/servmarket-backend/pkg/config"
	"github.com/servmarket/servmarket-backend/pkg/enums"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
	"github.com/servmarket/servmarket-backend/pkg/logger"
	"github.com/servmarket/servmarket-backend/pkg/metrics"
	"github.com/servmarket/servmarket-backend/pkg/pagination"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubAuth struct{}

func (stubAuth) SignInWithPassword(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "token", TokenType: "Bearer"}, nil
}

func (stubAuth) SignInWithAPIKey(_ context.Context, key string) (*users.UserDTO, error) {
	if key != "raw-key" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAPIKey, "invalid api key")
	}
	return &users.UserDTO{ID: 50, Role: enums.RoleEntrepreneur, Kind: enums.UserKindAPI}, nil
}

func (stubAuth) AuthenticateBearer(_ context.Context, token string) (*users.UserDTO, error) {
	switch token {
	case "admin-token":
		return &users.UserDTO{ID: 1, Role: enums.RoleAdministrator, Kind: enums.UserKindInternal}, nil
	case "customer-token":
		return &users.UserDTO{ID: 2, Role: enums.RoleCustomer, Kind: enums.UserKindInternal}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeInvalidBearerToken, "invalid bearer token")
}

type stubUsers struct {
	users.Service
}

func (stubUsers) List(context.Context, pagination.Params) (*pagination.Page[users.UserDTO], error) {
	return &pagination.Page[users.UserDTO]{Items: []users.UserDTO{{ID: 1}}}, nil
}

type stubServices struct {
	services.Service
}

func (stubServices) ListByType(context.Context, enums.ServiceType, pagination.Params) (*pagination.Page[services.ServiceDTO], error) {
	return &pagination.Page[services.ServiceDTO]{}, nil
}

func (stubServices) ListByUser(_ context.Context, userID uint64, _ pagination.Params) (*pagination.Page[services.ServiceDTO], error) {
	return &pagination.Page[services.ServiceDTO]{Items: []services.ServiceDTO{{ID: 7, UserID: userID}}}, nil
}

type denyLimiter struct {
	calls int
}

func (d *denyLimiter) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	d.calls++
	return false, 1, nil
}

func newTestRouter(t *testing.T, mutate func(*Params)) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	p := Params{
		Config:   cfg,
		Logger:   logger.Nop(),
		Checks:   map[string]controllers.Pinger{"database": stubPinger{}},
		Auth:     stubAuth{},
		Users:    stubUsers{},
		Services: stubServices{},
	}
	if mutate != nil {
		mutate(&p)
	}
	return NewRouter(p)
}

func do(h http.Handler, method, path string, headers map[string]string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCodeOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, rec.Body.String())
	}
	return env.Error.Code
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(router, http.MethodGet, "/health/live", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-Servmarket-Env") != "test" {
		t.Fatalf("expected env header, got %q", rec.Header().Get("X-Servmarket-Env"))
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}

	down := newTestRouter(t, func(p *Params) {
		p.Checks = map[string]controllers.Pinger{
			"database": stubPinger{},
			"redis":    stubPinger{err: errors.New("connection refused")},
		}
	})
	rec = do(down, http.MethodGet, "/health/ready", nil, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready: expected 503 got %d", rec.Code)
	}
	if code := errorCodeOf(t, rec); code != string(pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency code, got %s", code)
	}
}

func TestMeRequiresCredentials(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(router, http.MethodGet, "/auth/me", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}

	rec = do(router, http.MethodGet, "/auth/me", map[string]string{"Authorization": "Bearer customer-token"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer: expected 200 got %d", rec.Code)
	}

	rec = do(router, http.MethodGet, "/auth/me", map[string]string{"X-API-Key": "raw-key"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("api key: expected 200 got %d", rec.Code)
	}
}

func TestUserListingIsAdminOnly(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(router, http.MethodGet, "/users", map[string]string{"Authorization": "Bearer customer-token"}, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("customer: expected 403 got %d", rec.Code)
	}

	rec = do(router, http.MethodGet, "/users", map[string]string{"Authorization": "Bearer admin-token"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200 got %d", rec.Code)
	}

	rec = do(router, http.MethodGet, "/users", map[string]string{"X-API-Key": "raw-key"}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("api key on bearer route: expected 401 got %d", rec.Code)
	}
}

func TestAIAgentCatalogueRequiresAPIKey(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(router, http.MethodGet, "/services/ia", map[string]string{"Authorization": "Bearer customer-token"}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bearer: expected 401 got %d", rec.Code)
	}

	rec = do(router, http.MethodGet, "/services/ia", map[string]string{"X-API-Key": "raw-key"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("api key: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestServicesByUserListsCallerListings(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(router, http.MethodGet, "/services/by-user", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401 got %d", rec.Code)
	}

	rec = do(router, http.MethodGet, "/services/by-user", map[string]string{"Authorization": "Bearer customer-token"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data struct {
			Items []services.ServiceDTO `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data.Items) != 1 || env.Data.Items[0].UserID != 2 {
		t.Fatalf("expected listings of caller 2, got %+v", env.Data.Items)
	}
}

func TestSignInIsRateLimited(t *testing.T) {
	limiter := &denyLimiter{}
	router := newTestRouter(t, func(p *Params) {
		p.RateLimiter = limiter
		p.Config.AuthRateLimit.SignInWindow = time.Minute
		p.Config.AuthRateLimit.SignInIPLimit = 1
	})

	rec := do(router, http.MethodPost, "/auth/sign-in", nil, `{"email":"a@example.com","password":"secret123"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
	if limiter.calls == 0 {
		t.Fatalf("expected limiter to be consulted")
	}
}

func TestMetricsEndpointExportsRouteCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := newTestRouter(t, func(p *Params) {
		p.HTTPMetrics = metrics.NewHTTPMetrics(reg)
		p.Gatherer = reg
	})

	do(router, http.MethodGet, "/health/live", nil, "")

	rec := do(router, http.MethodGet, "/metrics", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `route="/health/live"`) {
		t.Fatalf("expected route label in metrics output:\n%s", rec.Body.String())
	}
}
