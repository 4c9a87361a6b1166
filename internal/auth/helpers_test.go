package auth

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/servmarket/servmarket-backend/internal/users"
	"github.com/servmarket/servmarket-backend/pkg/config"
	"github.com/servmarket/servmarket-backend/pkg/db"
	"github.com/servmarket/servmarket-backend/pkg/db/models"
	"github.com/servmarket/servmarket-backend/pkg/enums"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
	"github.com/servmarket/servmarket-backend/pkg/security"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	testHashConfig = config.HashConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1}
	testJWTConfig  = config.JWTConfig{Secret: "test-secret", Issuer: "servmarket", ExpirationMinutes: 60}
	testAppConfig  = config.AppConfig{PublicURL: "https://app.servmarket.test"}
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now().UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func openTestRepo(t *testing.T) *users.Repository {
	t.Helper()

	dsn := fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", url.QueryEscape(t.Name()))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return users.NewRepository(conn)
}

func testHasher() *security.Hasher {
	return security.NewHasher(testHashConfig)
}

func seedPasswordUser(t *testing.T, repo *users.Repository, email, password string, confirmed bool) *models.User {
	t.Helper()
	hash, err := testHasher().Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := repo.Create(context.Background(), users.CreateUserDTO{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          &email,
		PasswordHash:   &hash,
		Kind:           enums.UserKindInternal,
		Role:           enums.RoleCustomer,
		EmailConfirmed: confirmed,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func seedAPIUser(t *testing.T, repo *users.Repository, rawKey string, withPrefix bool) *models.User {
	t.Helper()
	hash, err := testHasher().Hash(rawKey)
	if err != nil {
		t.Fatalf("hash api key: %v", err)
	}
	dto := users.CreateUserDTO{
		FirstName:      "Partner",
		LastName:       "Bot",
		Kind:           enums.UserKindAPI,
		Role:           enums.RoleEntrepreneur,
		APIKeyHash:     &hash,
		EmailConfirmed: true,
	}
	if withPrefix {
		prefix := security.APIKeyPrefix(rawKey)
		dto.APIKeyPrefix = &prefix
	}
	user, err := repo.Create(context.Background(), dto)
	if err != nil {
		t.Fatalf("create api user: %v", err)
	}
	return user
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link %q: %v", link, err)
	}
	token := parsed.Query().Get("token")
	if token == "" {
		t.Fatalf("link %q carries no token", link)
	}
	return token
}
