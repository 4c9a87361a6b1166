package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/servmarket/servmarket-backend/internal/users"
	"github.com/servmarket/servmarket-backend/pkg/enums"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
)

type stubAuthenticator struct {
	bearer map[string]*users.UserDTO
	keys   map[string]*users.UserDTO

	bearerCalls int
	keyCalls    int
	lastToken   string
	lastKey     string
}

func (s *stubAuthenticator) AuthenticateBearer(_ context.Context, token string) (*users.UserDTO, error) {
	s.bearerCalls++
	s.lastToken = token
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNoTokenProvided, "no token provided")
	}
	if token == "expired" {
		return nil, pkgerrors.New(pkgerrors.CodeTokenExpired, "token expired")
	}
	if p, ok := s.bearer[token]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeInvalidBearerToken, "invalid bearer token")
}

func (s *stubAuthenticator) SignInWithAPIKey(_ context.Context, key string) (*users.UserDTO, error) {
	s.keyCalls++
	s.lastKey = key
	if p, ok := s.keys[key]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeInvalidAPIKey, "invalid api key")
}

func newStubAuthenticator() *stubAuthenticator {
	return &stubAuthenticator{
		bearer: map[string]*users.UserDTO{
			"customer-token": {ID: 7, Role: enums.RoleCustomer, Kind: enums.UserKindInternal, Status: enums.AccountStatusActive},
			"admin-token":    {ID: 1, Role: enums.RoleAdministrator, Kind: enums.UserKindInternal, Status: enums.AccountStatusActive},
		},
		keys: map[string]*users.UserDTO{
			"raw-key": {ID: 42, Role: enums.RoleEntrepreneur, Kind: enums.UserKindAPI, Status: enums.AccountStatusActive},
		},
	}
}

type captured struct {
	principal *users.UserDTO
	scheme    Scheme
	reached   bool
}

func capture(c *captured) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.reached = true
		c.principal = PrincipalFromContext(r.Context())
		c.scheme = SchemeFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return payload.Error.Code
}

func TestAuthenticatePublicSkipsAuthenticator(t *testing.T) {
	authn := newStubAuthenticator()
	var c captured
	handler := Authenticate(SchemePublic, authn, nil)(capture(&c))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK || !c.reached {
		t.Fatalf("expected public route to pass, got %d", rec.Code)
	}
	if authn.bearerCalls+authn.keyCalls != 0 {
		t.Fatalf("authenticator must not run on public routes")
	}
	if c.principal != nil {
		t.Fatalf("expected no principal on public route")
	}
}

func TestAuthenticateBearer(t *testing.T) {
	cases := []struct {
		name   string
		header string
		status int
		code   pkgerrors.Code
	}{
		{name: "missing", header: "", status: http.StatusUnauthorized, code: pkgerrors.CodeNoTokenProvided},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, code: pkgerrors.CodeNoTokenProvided},
		{name: "invalid", header: "Bearer nope", status: http.StatusUnauthorized, code: pkgerrors.CodeInvalidBearerToken},
		{name: "expired", header: "Bearer expired", status: http.StatusUnauthorized, code: pkgerrors.CodeTokenExpired},
		{name: "valid lowercase prefix", header: "bearer customer-token", status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c captured
			handler := Authenticate(SchemeBearer, newStubAuthenticator(), nil)(capture(&c))

			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
			if tc.status != http.StatusOK {
				if c.reached {
					t.Fatalf("handler must not run on rejection")
				}
				if got := errorCode(t, rec); got != string(tc.code) {
					t.Fatalf("expected code %s got %s", tc.code, got)
				}
				return
			}
			if c.principal == nil || c.principal.ID != 7 || c.scheme != SchemeBearer {
				t.Fatalf("unexpected principal %+v scheme %v", c.principal, c.scheme)
			}
		})
	}
}

func TestAuthenticateAPIKeyHeaders(t *testing.T) {
	for _, set := range []func(*http.Request){
		func(r *http.Request) { r.Header.Set(APIKeyHeader, "raw-key") },
		func(r *http.Request) { r.Header.Set("Authorization", "ApiKey raw-key") },
	} {
		authn := newStubAuthenticator()
		var c captured
		handler := Authenticate(SchemeAPIKey, authn, nil)(capture(&c))

		req := httptest.NewRequest(http.MethodGet, "/services/ia", nil)
		set(req)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
		if authn.lastKey != "raw-key" || authn.bearerCalls != 0 {
			t.Fatalf("expected api key strategy, got key %q bearer calls %d", authn.lastKey, authn.bearerCalls)
		}
		if c.principal.ID != 42 || c.scheme != SchemeAPIKey {
			t.Fatalf("unexpected principal %+v", c.principal)
		}
	}
}

func TestAuthenticateAPIKeyRejectsBearerToken(t *testing.T) {
	handler := Authenticate(SchemeAPIKey, newStubAuthenticator(), nil)(capture(&captured{}))

	req := httptest.NewRequest(http.MethodGet, "/services/ia", nil)
	req.Header.Set("Authorization", "Bearer customer-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if got := errorCode(t, rec); got != string(pkgerrors.CodeInvalidAPIKey) {
		t.Fatalf("unexpected code %s", got)
	}
}

func TestAuthenticateEitherSchemePrefersAPIKey(t *testing.T) {
	authn := newStubAuthenticator()
	var c captured
	handler := Authenticate(SchemeBearerOrAPIKey, authn, nil)(capture(&c))

	req := httptest.NewRequest(http.MethodGet, "/services", nil)
	req.Header.Set(APIKeyHeader, "raw-key")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || c.scheme != SchemeAPIKey {
		t.Fatalf("expected api key auth, got %d scheme %v", rec.Code, c.scheme)
	}

	req = httptest.NewRequest(http.MethodGet, "/services", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || c.scheme != SchemeBearer || c.principal.ID != 1 {
		t.Fatalf("expected bearer auth, got %d scheme %v", rec.Code, c.scheme)
	}
}

func TestRequireRolesRunsAfterAuthentication(t *testing.T) {
	authn := newStubAuthenticator()
	guard := func(next http.Handler) http.Handler {
		return Authenticate(SchemeBearer, authn, nil)(RequireRoles(nil, enums.RoleAdministrator)(next))
	}

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "unauthenticated", header: "", status: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer customer-token", status: http.StatusForbidden},
		{name: "admin", header: "Bearer admin-token", status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c captured
			handler := guard(capture(&c))
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
			if c.reached != (tc.status == http.StatusOK) {
				t.Fatalf("handler reached=%v for status %d", c.reached, tc.status)
			}
		})
	}
}

func TestRequireRolesWithoutPrincipal(t *testing.T) {
	var c captured
	handler := RequireRoles(nil, enums.RoleCustomer)(capture(&c))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized || c.reached {
		t.Fatalf("expected 401 without principal, got %d", rec.Code)
	}
}
