package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/servmarket/servmarket-backend/api/middleware"
	"github.com/servmarket/servmarket-backend/internal/auth"
	"github.com/servmarket/servmarket-backend/internal/notifications"
	"github.com/servmarket/servmarket-backend/internal/users"
	"github.com/servmarket/servmarket-backend/pkg/enums"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
)

type stubAuthService struct {
	login     *auth.LoginResponse
	principal *users.UserDTO
	err       error

	gotLogin auth.LoginRequest
	gotKey   string
}

func (s *stubAuthService) SignInWithPassword(_ context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.gotLogin = req
	return s.login, s.err
}

func (s *stubAuthService) SignInWithAPIKey(_ context.Context, key string) (*users.UserDTO, error) {
	s.gotKey = key
	return s.principal, s.err
}

func (s *stubAuthService) AuthenticateBearer(context.Context, string) (*users.UserDTO, error) {
	return s.principal, s.err
}

type stubAccountService struct {
	registered *auth.RegisterResponse
	err        error

	confirmedToken string
	resetEmail     string
	resetToken     string
	newPassword    string
}

func (s *stubAccountService) Register(context.Context, auth.RegisterRequest) (*auth.RegisterResponse, error) {
	return s.registered, s.err
}

func (s *stubAccountService) ConfirmEmail(_ context.Context, token string) error {
	s.confirmedToken = token
	return s.err
}

func (s *stubAccountService) RequestPasswordReset(_ context.Context, email string) error {
	s.resetEmail = email
	return s.err
}

func (s *stubAccountService) ConfirmPasswordReset(_ context.Context, token, newPassword string) error {
	s.resetToken = token
	s.newPassword = newPassword
	return s.err
}

type recordingNotifier struct {
	contact *notifications.ContactMessage
	err     error
}

func (n *recordingNotifier) SendEmailConfirmation(context.Context, notifications.EmailConfirmation) error {
	return nil
}

func (n *recordingNotifier) SendPasswordReset(context.Context, notifications.PasswordReset) error {
	return nil
}

func (n *recordingNotifier) SendContactMessage(_ context.Context, msg notifications.ContactMessage) error {
	n.contact = &msg
	return n.err
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error.Code
}

func TestAuthSignInWithPasswordReturnsCreated(t *testing.T) {
	svc := &stubAuthService{login: &auth.LoginResponse{
		AccessToken: "jwt",
		TokenType:   "Bearer",
		ExpiresIn:   3600,
		User:        &users.UserDTO{ID: 3},
	}}
	rec := postJSON(AuthSignIn(svc, nil), "/auth/sign-in", `{"email":"a@example.com","password":"secret"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	var got auth.LoginResponse
	decodeData(t, rec, &got)
	if got.AccessToken != "jwt" || got.User.ID != 3 {
		t.Fatalf("unexpected response %+v", got)
	}
	if svc.gotLogin.Email != "a@example.com" || svc.gotLogin.Password != "secret" {
		t.Fatalf("unexpected login request %+v", svc.gotLogin)
	}
}

func TestAuthSignInWithAPIKeyReturnsPrincipal(t *testing.T) {
	svc := &stubAuthService{principal: &users.UserDTO{ID: 9, Kind: enums.UserKindAPI}}

	rec := postJSON(AuthSignIn(svc, nil), "/auth/sign-in", `{"api_key":"raw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var got users.UserDTO
	decodeData(t, rec, &got)
	if got.ID != 9 || svc.gotKey != "raw" {
		t.Fatalf("unexpected principal %+v key %q", got, svc.gotKey)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", bytes.NewBufferString(`{}`))
	req.Header.Set(middleware.APIKeyHeader, "from-header")
	rec = httptest.NewRecorder()
	AuthSignIn(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || svc.gotKey != "from-header" {
		t.Fatalf("expected header key to be used, got %d %q", rec.Code, svc.gotKey)
	}
}

func TestAuthSignInErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
		code   pkgerrors.Code
	}{
		{name: "missing credentials", body: `{}`, status: http.StatusBadRequest, code: pkgerrors.CodeValidation},
		{name: "bad email", body: `{"email":"nope","password":"x"}`, status: http.StatusBadRequest, code: pkgerrors.CodeValidation},
		{
			name:   "invalid credentials",
			body:   `{"email":"a@example.com","password":"wrong"}`,
			err:    pkgerrors.New(pkgerrors.CodeInvalidCredentials, "invalid email or password"),
			status: http.StatusUnauthorized,
			code:   pkgerrors.CodeInvalidCredentials,
		},
		{
			name:   "unconfirmed",
			body:   `{"email":"a@example.com","password":"secret"}`,
			err:    pkgerrors.New(pkgerrors.CodeEmailNotConfirmed, "confirm first"),
			status: http.StatusUnauthorized,
			code:   pkgerrors.CodeEmailNotConfirmed,
		},
		{
			name:   "invalid api key",
			body:   `{"api_key":"bad"}`,
			err:    pkgerrors.New(pkgerrors.CodeInvalidAPIKey, "invalid api key"),
			status: http.StatusUnauthorized,
			code:   pkgerrors.CodeInvalidAPIKey,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(AuthSignIn(&stubAuthService{err: tc.err}, nil), "/auth/sign-in", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
			if got := decodeErrorCode(t, rec); got != string(tc.code) {
				t.Fatalf("expected %s got %s", tc.code, got)
			}
		})
	}
}

func TestAuthMeReturnsContextPrincipal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), &users.UserDTO{ID: 5}, middleware.SchemeBearer))
	rec := httptest.NewRecorder()
	AuthMe(nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var got users.UserDTO
	decodeData(t, rec, &got)
	if got.ID != 5 {
		t.Fatalf("unexpected principal %+v", got)
	}

	rec = httptest.NewRecorder()
	AuthMe(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %d", rec.Code)
	}
}

func TestAuthRegister(t *testing.T) {
	svc := &stubAccountService{registered: &auth.RegisterResponse{Message: "check inbox", User: &users.UserDTO{ID: 1}}}
	body := `{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","password":"longenough","confirm_password":"longenough"}`

	rec := postJSON(AuthRegister(svc, nil), "/users", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}

	svc.err = pkgerrors.New(pkgerrors.CodeEmailAlreadyExists, "email already exists")
	rec = postJSON(AuthRegister(svc, nil), "/users", body)
	if rec.Code != http.StatusBadRequest || decodeErrorCode(t, rec) != string(pkgerrors.CodeEmailAlreadyExists) {
		t.Fatalf("expected EMAIL_ALREADY_EXISTS, got %d %s", rec.Code, rec.Body.String())
	}

	mismatch := `{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","password":"longenough","confirm_password":"different"}`
	rec = postJSON(AuthRegister(&stubAccountService{}, nil), "/users", mismatch)
	if rec.Code != http.StatusBadRequest || decodeErrorCode(t, rec) != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %d", rec.Code)
	}
}

func TestAuthPasswordResetFlow(t *testing.T) {
	svc := &stubAccountService{}

	rec := postJSON(AuthRequestPasswordReset(svc, nil), "/users/reset-password", `{"email":"who@example.com"}`)
	if rec.Code != http.StatusOK || svc.resetEmail != "who@example.com" {
		t.Fatalf("unexpected reset request outcome %d %q", rec.Code, svc.resetEmail)
	}
	var msg auth.MessageResponse
	decodeData(t, rec, &msg)
	if msg.Message != resetRequestedMessage {
		t.Fatalf("unexpected message %q", msg.Message)
	}

	rec = postJSON(AuthConfirmPasswordReset(svc, nil), "/users/reset-password/confirm", `{"token":"tok","new_password":"brand-new-pass"}`)
	if rec.Code != http.StatusOK || svc.resetToken != "tok" || svc.newPassword != "brand-new-pass" {
		t.Fatalf("unexpected confirm outcome %d", rec.Code)
	}

	svc.err = pkgerrors.New(pkgerrors.CodeInvalidOrExpiredToken, "invalid or expired token")
	rec = postJSON(AuthConfirmPasswordReset(svc, nil), "/users/reset-password/confirm", `{"token":"tok","new_password":"brand-new-pass"}`)
	if rec.Code != http.StatusBadRequest || decodeErrorCode(t, rec) != string(pkgerrors.CodeInvalidOrExpiredToken) {
		t.Fatalf("expected INVALID_OR_EXPIRED_TOKEN, got %d", rec.Code)
	}
}

func TestAuthConfirmEmailAndValidateAccountMessages(t *testing.T) {
	svc := &stubAccountService{}

	rec := postJSON(AuthConfirmEmail(svc, "", nil), "/users/confirm-email", `{"token":"abc"}`)
	var msg auth.MessageResponse
	decodeData(t, rec, &msg)
	if rec.Code != http.StatusOK || msg.Message != emailConfirmedMessage || svc.confirmedToken != "abc" {
		t.Fatalf("unexpected confirm outcome %d %q", rec.Code, msg.Message)
	}

	rec = postJSON(AuthValidateAccount(svc, nil), "/users/validate-account", `{"token":"def"}`)
	decodeData(t, rec, &msg)
	if rec.Code != http.StatusOK || msg.Message != accountValidatedMessage || svc.confirmedToken != "def" {
		t.Fatalf("unexpected validate outcome %d %q", rec.Code, msg.Message)
	}

	svc.err = pkgerrors.New(pkgerrors.CodeEmailConfirmation, "invalid or expired confirmation token")
	rec = postJSON(AuthConfirmEmail(svc, "", nil), "/users/confirm-email", `{"token":"abc"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAuthContact(t *testing.T) {
	notifier := &recordingNotifier{}
	body := `{"first_name":"Ada","last_name":"L","email":"ada@example.com","subject":"Hello","message":"Need help"}`

	rec := postJSON(AuthContact(notifier, nil), "/auth/contact", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if notifier.contact == nil || notifier.contact.Subject != "Hello" {
		t.Fatalf("expected contact message forwarded, got %+v", notifier.contact)
	}

	notifier.err = errors.New("postmark down")
	rec = postJSON(AuthContact(notifier, nil), "/auth/contact", body)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}

	rec = postJSON(AuthContact(&recordingNotifier{}, nil), "/auth/contact", `{"email":"ada@example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete form, got %d", rec.Code)
	}
}
