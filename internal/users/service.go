package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/servmarket/servmarket-backend/pkg/db"
	"github.com/servmarket/servmarket-backend/pkg/db/models"
	"github.com/servmarket/servmarket-backend/pkg/enums"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
	"github.com/servmarket/servmarket-backend/pkg/logger"
	"github.com/servmarket/servmarket-backend/pkg/pagination"
	"github.com/servmarket/servmarket-backend/pkg/security"
	"gorm.io/gorm"
)

// EmailUniqueConstraint is the database constraint guarding users.email.
const EmailUniqueConstraint = "users_email_key"

// Actor is the authenticated principal performing a management operation.
type Actor struct {
	ID   uint64
	Role enums.Role
}

func (a Actor) isAdmin() bool {
	return a.Role == enums.RoleAdministrator
}

// CreateUserInput provisions a confirmed account. INTERNAL accounts sign in
// with email and password; API accounts receive a generated key and carry no
// email. An INTERNAL account without a password gets a temporary one.
type CreateUserInput struct {
	FirstName string         `json:"first_name" validate:"required,max=64"`
	LastName  string         `json:"last_name" validate:"required,max=64"`
	Kind      enums.UserKind `json:"kind" validate:"required"`
	Role      enums.Role     `json:"role" validate:"required"`
	Email     *string        `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Password  *string        `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
}

// CreateUserResult carries the created account plus whichever generated
// secret applies: the raw API key or a temporary password. Neither is stored
// in clear and neither can be recovered later.
type CreateUserResult struct {
	User              *UserDTO `json:"user"`
	APIKey            string   `json:"api_key,omitempty"`
	TemporaryPassword string   `json:"temporary_password,omitempty"`
}

// UpdateUserInput lists the editable fields; nil means unchanged.
type UpdateUserInput struct {
	FirstName *string     `json:"first_name,omitempty" validate:"omitempty,min=1,max=64"`
	LastName  *string     `json:"last_name,omitempty" validate:"omitempty,min=1,max=64"`
	Email     *string     `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Password  *string     `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
	Role      *enums.Role `json:"role,omitempty"`
}

// Service manages accounts on behalf of administrators and account owners.
type Service interface {
	Create(ctx context.Context, input CreateUserInput) (*CreateUserResult, error)
	Get(ctx context.Context, id uint64) (*UserDTO, error)
	List(ctx context.Context, params pagination.Params) (*pagination.Page[UserDTO], error)
	Update(ctx context.Context, actor Actor, id uint64, input UpdateUserInput) (*UserDTO, error)
	ToggleState(ctx context.Context, actor Actor, id uint64) (*UserDTO, error)
}

type userRepository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id uint64) (*models.User, error)
	EmailExists(ctx context.Context, email string, excludeID uint64) (bool, error)
	Update(ctx context.Context, id uint64, changes map[string]any) error
	Deactivate(ctx context.Context, id uint64) error
	Reactivate(ctx context.Context, id uint64) error
	List(ctx context.Context, beforeID uint64, limit int) ([]models.User, error)
}

// TempPasswordLength is the size of generated passwords for admin-created
// internal accounts.
const TempPasswordLength = 16

type secretHasher interface {
	Hash(plaintext string) (string, error)
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Repo           userRepository
	PasswordHasher secretHasher
	APIKeyHasher   secretHasher
	GenerateToken  security.TokenGenerator

	// GeneratePassword defaults to security.GenerateTempPassword.
	GeneratePassword func(length int) (string, error)
	Logger           *logger.Logger
}

type service struct {
	repo           userRepository
	passwordHasher secretHasher
	apiKeyHasher   secretHasher
	generateToken  security.TokenGenerator
	generatePwd    func(length int) (string, error)
	logg           *logger.Logger
}

// NewService constructs the account management service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.PasswordHasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if params.APIKeyHasher == nil {
		return nil, fmt.Errorf("api key hasher is required")
	}
	generate := params.GenerateToken
	if generate == nil {
		generate = security.GenerateToken
	}
	generatePwd := params.GeneratePassword
	if generatePwd == nil {
		generatePwd = security.GenerateTempPassword
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:           params.Repo,
		passwordHasher: params.PasswordHasher,
		apiKeyHasher:   params.APIKeyHasher,
		generateToken:  generate,
		generatePwd:    generatePwd,
		logg:           logg,
	}, nil
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Create(ctx context.Context, input CreateUserInput) (*CreateUserResult, error) {
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user kind")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" || lastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}

	dto := CreateUserDTO{
		FirstName:      firstName,
		LastName:       lastName,
		Kind:           input.Kind,
		Role:           input.Role,
		EmailConfirmed: true,
	}

	hasEmail := input.Email != nil && strings.TrimSpace(*input.Email) != ""
	if input.Kind == enums.UserKindAPI && (hasEmail || input.Password != nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api accounts do not have an email or password")
	}
	if hasEmail {
		email := NormalizeEmail(*input.Email)
		exists, err := s.repo.EmailExists(ctx, email, 0)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}
		if exists {
			return nil, pkgerrors.New(pkgerrors.CodeEmailAlreadyExists, "email already exists")
		}
		dto.Email = &email
	}

	var rawKey, tempPassword string
	switch input.Kind {
	case enums.UserKindInternal:
		if dto.Email == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required for internal accounts")
		}
		password := ""
		if input.Password != nil {
			password = *input.Password
		}
		if password == "" {
			generated, err := s.generatePwd(TempPasswordLength)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temporary password")
			}
			password, tempPassword = generated, generated
		}
		hash, err := s.passwordHasher.Hash(password)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		dto.PasswordHash = &hash
	case enums.UserKindAPI:
		key, err := s.generateToken()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate api key")
		}
		hash, err := s.apiKeyHasher.Hash(key)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash api key")
		}
		prefix := security.APIKeyPrefix(key)
		dto.APIKeyHash = &hash
		dto.APIKeyPrefix = &prefix
		rawKey = key
	}

	user, err := s.repo.Create(ctx, dto)
	if err != nil {
		if db.IsUniqueViolation(err, EmailUniqueConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeEmailAlreadyExists, "email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"created_user_id": user.ID,
		"kind":            user.Kind,
		"role":            user.Role,
	})
	s.logg.Info(ctx, "users.created")

	return &CreateUserResult{User: FromModel(user), APIKey: rawKey, TemporaryPassword: tempPassword}, nil
}

func (s *service) Get(ctx context.Context, id uint64) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*pagination.Page[UserDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	var beforeID uint64
	if cursor != nil {
		beforeID = cursor.ID
	}

	rows, err := s.repo.List(ctx, beforeID, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}

	items := make([]UserDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	page := pagination.Trim(items, params.Limit, func(u UserDTO) uint64 { return u.ID })
	return &page, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uint64, input UpdateUserInput) (*UserDTO, error) {
	if actor.ID != id && !actor.isAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you can only update your own account")
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if input.FirstName != nil {
		value := strings.TrimSpace(*input.FirstName)
		if value == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name cannot be empty")
		}
		changes["first_name"] = value
	}
	if input.LastName != nil {
		value := strings.TrimSpace(*input.LastName)
		if value == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name cannot be empty")
		}
		changes["last_name"] = value
	}
	if input.Email != nil {
		if user.Kind != enums.UserKindInternal {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "api accounts do not have an email")
		}
		email := NormalizeEmail(*input.Email)
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
		}
		if user.Email == nil || *user.Email != email {
			exists, err := s.repo.EmailExists(ctx, email, id)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
			}
			if exists {
				return nil, pkgerrors.New(pkgerrors.CodeEmailAlreadyExists, "email already exists")
			}
			changes["email"] = email
		}
	}
	if input.Password != nil {
		if user.Kind != enums.UserKindInternal {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "api accounts do not use passwords")
		}
		hash, err := s.passwordHasher.Hash(*input.Password)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		changes["password_hash"] = hash
	}
	if input.Role != nil {
		if !actor.isAdmin() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only administrators can change roles")
		}
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		changes["role"] = *input.Role
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		if db.IsUniqueViolation(err, EmailUniqueConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeEmailAlreadyExists, "email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	return s.Get(ctx, id)
}

func (s *service) ToggleState(ctx context.Context, actor Actor, id uint64) (*UserDTO, error) {
	if actor.ID == id {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you cannot change the state of your own account")
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.DeletedAt.Valid {
		err = s.repo.Reactivate(ctx, id)
	} else {
		err = s.repo.Deactivate(ctx, id)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "toggle user state")
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"target_user_id": id,
		"status":         updated.Status,
	})
	s.logg.Info(ctx, "users.state_changed")
	return updated, nil
}

func (s *service) load(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}
