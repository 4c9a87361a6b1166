package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/servmarket/servmarket-backend/internal/users"
	"github.com/servmarket/servmarket-backend/pkg/enums"
)

func TestOptionsToInput(t *testing.T) {
	tests := []struct {
		name    string
		opts    options
		wantErr string
		check   func(t *testing.T, in users.CreateUserInput)
	}{
		{
			name: "internal account carries credentials",
			opts: options{firstName: "Ada", lastName: "Admin", kind: "internal", role: "administrator", email: "ada@example.com", password: "supersecret"},
			check: func(t *testing.T, in users.CreateUserInput) {
				if in.Kind != enums.UserKindInternal || in.Role != enums.RoleAdministrator {
					t.Fatalf("unexpected kind/role %s/%s", in.Kind, in.Role)
				}
				if in.Email == nil || *in.Email != "ada@example.com" || in.Password == nil {
					t.Fatalf("expected credentials to be set")
				}
			},
		},
		{
			name: "api account ignores credentials",
			opts: options{firstName: "Bot", lastName: "One", kind: "API", role: "entrepreneur", email: "x@example.com"},
			check: func(t *testing.T, in users.CreateUserInput) {
				if in.Email != nil || in.Password != nil {
					t.Fatalf("api accounts must not carry credentials")
				}
			},
		},
		{
			name: "internal account without password leaves it to the service",
			opts: options{firstName: "Ada", lastName: "Admin", kind: "internal", role: "customer", email: "ada@example.com"},
			check: func(t *testing.T, in users.CreateUserInput) {
				if in.Email == nil || in.Password != nil {
					t.Fatalf("expected email only, got email=%v password=%v", in.Email, in.Password)
				}
			},
		},
		{
			name:    "internal account without email",
			opts:    options{firstName: "Ada", lastName: "Admin", kind: "internal", role: "customer", password: "supersecret"},
			wantErr: "-email is required",
		},
		{
			name:    "unknown role",
			opts:    options{firstName: "Ada", lastName: "Admin", kind: "internal", role: "owner"},
			wantErr: "invalid role",
		},
		{
			name:    "missing names",
			opts:    options{kind: "api", role: "customer"},
			wantErr: "-first-name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := tt.opts.toInput()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, in)
		})
	}
}

func TestReportPrintsKeyOnlyWhenPresent(t *testing.T) {
	var buf bytes.Buffer
	report(&buf, &users.CreateUserResult{User: &users.UserDTO{ID: 3, Kind: enums.UserKindAPI, Role: enums.RoleEntrepreneur}, APIKey: "raw-key"})
	if !strings.Contains(buf.String(), "raw-key") {
		t.Fatalf("expected key in output: %s", buf.String())
	}

	buf.Reset()
	report(&buf, &users.CreateUserResult{User: &users.UserDTO{ID: 4, Kind: enums.UserKindInternal, Role: enums.RoleCustomer}})
	if strings.Contains(buf.String(), "api key") {
		t.Fatalf("unexpected key line: %s", buf.String())
	}
}

func TestReportPrintsTemporaryPassword(t *testing.T) {
	var buf bytes.Buffer
	report(&buf, &users.CreateUserResult{
		User:              &users.UserDTO{ID: 5, Kind: enums.UserKindInternal, Role: enums.RoleAdministrator},
		TemporaryPassword: "Temp0rary-Secret",
	})
	out := buf.String()
	if !strings.Contains(out, "temporary password") || !strings.Contains(out, "Temp0rary-Secret") {
		t.Fatalf("expected temporary password line: %s", out)
	}
	if strings.Contains(out, "api key") {
		t.Fatalf("unexpected key line: %s", out)
	}
}
