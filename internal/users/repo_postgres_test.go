package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/servmarket/servmarket-backend/pkg/db"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newPostgresMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open gorm over sqlmock: %v", err)
	}
	return NewRepository(conn), mock
}

func TestRedeemTokenIssuesSingleConditionalUpdate(t *testing.T) {
	repo, mock := newPostgresMockRepo(t)

	mock.ExpectExec(`UPDATE "users" SET .+ WHERE password_reset_token = \$\d+ AND password_reset_expires_at IS NOT NULL AND password_reset_expires_at > \$\d+ AND "users"."deleted_at" IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.RedeemToken(context.Background(), PasswordResetColumns, "tok", time.Now(), map[string]any{"password_hash": "h"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected redemption to succeed when one row is updated")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRedeemTokenReportsLostRace(t *testing.T) {
	repo, mock := newPostgresMockRepo(t)

	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.RedeemToken(context.Background(), EmailConfirmationColumns, "tok", time.Now(), map[string]any{"email_confirmed": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected redemption to fail when no row matched")
	}
}

func TestCreateDuplicateEmailMapsToUniqueViolation(t *testing.T) {
	repo, mock := newPostgresMockRepo(t)

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: EmailUniqueConstraint})

	email := "dup@example.com"
	_, err := repo.Create(context.Background(), CreateUserDTO{FirstName: "A", LastName: "B", Email: &email})
	if err == nil {
		t.Fatal("expected insert error")
	}
	if !db.IsUniqueViolation(err, EmailUniqueConstraint) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		t.Fatalf("expected pg error to be preserved, got %T", err)
	}
}
