package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/servmarket/servmarket-backend/pkg/config"
	"github.com/servmarket/servmarket-backend/pkg/logger"
)

func TestNewOpensAndPingsSQLite(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, config.DBConfig{Driver: DriverSQLite, DSN: "file:client_open?mode=memory&cache=shared", MaxOpenConns: 1}, logger.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := client.Ping(ctx); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if client.Ping(ctx) == nil {
		t.Fatal("expected ping on a closed pool to fail")
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{Driver: DriverSQLite}, nil); err == nil {
		t.Fatal("expected missing DSN error")
	}
}

func TestQueryLoggerReportsFailuresAndSlowStatements(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf, Format: "json"})
	ql := newQueryLogger(logg, 50*time.Millisecond)
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT * FROM users", 0 }

	ql.Trace(ctx, time.Now(), query, nil)
	ql.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("fast and not-found statements should be silent, got %s", buf.String())
	}

	ql.Trace(ctx, time.Now(), query, errors.New("relation does not exist"))
	if !strings.Contains(buf.String(), "db.query_failed") || !strings.Contains(buf.String(), "SELECT * FROM users") {
		t.Fatalf("expected failed query log, got %s", buf.String())
	}

	buf.Reset()
	ql.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	if !strings.Contains(buf.String(), "db.query_slow") {
		t.Fatalf("expected slow query log, got %s", buf.String())
	}

	buf.Reset()
	ql.LogMode(gormlogger.Silent).Trace(ctx, time.Now().Add(-time.Second), query, errors.New("x"))
	if buf.Len() != 0 {
		t.Fatalf("silent mode should not log, got %s", buf.String())
	}
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := fmt.Errorf("create: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	if !IsUniqueViolation(pgErr, "") {
		t.Fatal("expected pgx unique violation to match")
	}
	if !IsUniqueViolation(pgErr, "users_email_key") {
		t.Fatal("expected constraint name to match")
	}
	if IsUniqueViolation(pgErr, "users_api_key_key") {
		t.Fatal("expected other constraint not to match")
	}
	if !IsUniqueViolation(&pq.Error{Code: "23505", Constraint: "users_email_key"}, "users_email_key") {
		t.Fatal("expected lib/pq unique violation to match")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: users.email"), "") {
		t.Fatal("expected sqlite unique violation to match")
	}
	if IsUniqueViolation(errors.New("boom"), "") || IsUniqueViolation(nil, "") {
		t.Fatal("unrelated errors must not match")
	}
}

func TestDialectorForRejectsUnknownDriver(t *testing.T) {
	if _, err := dialectorFor(config.DBConfig{Driver: "mysql", DSN: "x"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
	if _, err := dialectorFor(config.DBConfig{Driver: DriverSQLite, DSN: "file::memory:"}); err != nil {
		t.Fatalf("unexpected sqlite error: %v", err)
	}
}

func TestAutoMigrateSeedsRolesIdempotently(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:seed_roles?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx := context.Background()
	if err := AutoMigrate(ctx, conn); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	if err := SeedRoles(ctx, conn); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	var count int64
	if err := conn.Table("roles").Count(&count).Error; err != nil {
		t.Fatalf("count roles: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 roles, got %d", count)
	}
}
