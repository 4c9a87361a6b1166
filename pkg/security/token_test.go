package security_test

import (
	"encoding/hex"
	"testing"

	"github.com/servmarket/servmarket-backend/pkg/security"
)

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 32; i++ {
		token, err := security.GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		if len(token) != 64 {
			t.Fatalf("expected 64 hex chars, got %d", len(token))
		}
		if _, err := hex.DecodeString(token); err != nil {
			t.Fatalf("token is not hex: %v", err)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token %s", token)
		}
		seen[token] = struct{}{}
	}
}

func TestAPIKeyPrefix(t *testing.T) {
	if got := security.APIKeyPrefix("abcdef0123456789"); got != "abcdef01" {
		t.Fatalf("unexpected prefix %q", got)
	}
	if got := security.APIKeyPrefix("abc"); got != "abc" {
		t.Fatalf("short keys are their own prefix, got %q", got)
	}
}

func TestGenerateTempPassword(t *testing.T) {
	pw, err := security.GenerateTempPassword(20)
	if err != nil {
		t.Fatalf("GenerateTempPassword: %v", err)
	}
	if len(pw) != 20 {
		t.Fatalf("expected 20 chars, got %d", len(pw))
	}
	if _, err := security.GenerateTempPassword(0); err == nil {
		t.Fatal("expected error for non-positive length")
	}
}
