package users

import (
	"time"

	"github.com/servmarket/servmarket-backend/pkg/db/models"
	"github.com/servmarket/servmarket-backend/pkg/enums"
)

// UserDTO is the transport shape that omits every credential and token.
type UserDTO struct {
	ID             uint64              `json:"id"`
	FirstName      string              `json:"first_name"`
	LastName       string              `json:"last_name"`
	Email          *string             `json:"email,omitempty"`
	Kind           enums.UserKind      `json:"kind"`
	Role           enums.Role          `json:"role"`
	EmailConfirmed bool                `json:"email_confirmed"`
	Status         enums.AccountStatus `json:"status"`
	DeactivatedAt  *time.Time          `json:"deactivated_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Active reports whether the principal has not been deactivated.
func (u *UserDTO) Active() bool {
	return u != nil && u.Status == enums.AccountStatusActive
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	FirstName      string
	LastName       string
	Email          *string
	PasswordHash   *string
	Kind           enums.UserKind
	Role           enums.Role
	APIKeyHash     *string
	APIKeyPrefix   *string
	EmailConfirmed bool

	EmailConfirmationToken     *string
	EmailConfirmationExpiresAt *time.Time
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	var email *string
	if u.Email != nil {
		value := *u.Email
		email = &value
	}

	return &UserDTO{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          email,
		Kind:           u.Kind,
		Role:           u.Role,
		EmailConfirmed: u.EmailConfirmed,
		Status:         u.Status(),
		DeactivatedAt:  u.DeactivatedAt(),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	kind := c.Kind
	if kind == "" {
		kind = enums.UserKindInternal
	}
	role := c.Role
	if role == "" {
		role = enums.RoleCustomer
	}

	var expiresAt *time.Time
	if c.EmailConfirmationExpiresAt != nil {
		at := c.EmailConfirmationExpiresAt.UTC()
		expiresAt = &at
	}

	return &models.User{
		FirstName:                  c.FirstName,
		LastName:                   c.LastName,
		Email:                      c.Email,
		PasswordHash:               c.PasswordHash,
		Kind:                       kind,
		Role:                       role,
		APIKeyHash:                 c.APIKeyHash,
		APIKeyPrefix:               c.APIKeyPrefix,
		EmailConfirmed:             c.EmailConfirmed,
		EmailConfirmationToken:     c.EmailConfirmationToken,
		EmailConfirmationExpiresAt: expiresAt,
	}
}
