package models

import (
	"time"

	"github.com/servmarket/servmarket-backend/pkg/enums"
	"gorm.io/gorm"
)

// User is a principal: a human with a password or a machine with an API key.
// Soft-deleted rows stay visible to authentication so it can report
// deactivation instead of "unknown account".
type User struct {
	ID                         uint64         `gorm:"primaryKey;autoIncrement"`
	FirstName                  string         `gorm:"column:first_name;type:varchar(64);not null"`
	LastName                   string         `gorm:"column:last_name;type:varchar(64);not null"`
	Email                      *string        `gorm:"column:email;type:varchar(255);uniqueIndex:users_email_key"`
	PasswordHash               *string        `gorm:"column:password_hash"`
	Kind                       enums.UserKind `gorm:"column:kind;type:varchar(16);not null;default:INTERNAL"`
	APIKeyHash                 *string        `gorm:"column:api_key_hash;uniqueIndex:users_api_key_hash_key"`
	APIKeyPrefix               *string        `gorm:"column:api_key_prefix;type:varchar(16);index"`
	Role                       enums.Role     `gorm:"column:role;type:varchar(32);not null;default:CUSTOMER"`
	EmailConfirmed             bool           `gorm:"column:email_confirmed;not null;default:false"`
	EmailConfirmationToken     *string        `gorm:"column:email_confirmation_token;index"`
	EmailConfirmationExpiresAt *time.Time     `gorm:"column:email_confirmation_expires_at"`
	PasswordResetToken         *string        `gorm:"column:password_reset_token;index"`
	PasswordResetExpiresAt     *time.Time     `gorm:"column:password_reset_expires_at"`
	CreatedAt                  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt                  gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (User) TableName() string { return "users" }

// Status derives the account state from the soft-delete marker.
func (u User) Status() enums.AccountStatus {
	if u.DeletedAt.Valid {
		return enums.AccountStatusDeactivated
	}
	return enums.AccountStatusActive
}

// DeactivatedAt returns when the account was soft-deleted, or nil.
func (u User) DeactivatedAt() *time.Time {
	if !u.DeletedAt.Valid {
		return nil
	}
	at := u.DeletedAt.Time
	return &at
}

// Identifier is the value embedded in access tokens for this principal.
func (u User) Identifier() string {
	if u.Email != nil && *u.Email != "" {
		return *u.Email
	}
	return "api:" + u.FirstName + " " + u.LastName
}
