package users

import (
	"context"
	"time"

	"github.com/servmarket/servmarket-backend/pkg/db/models"
	"github.com/servmarket/servmarket-backend/pkg/enums"
	"gorm.io/gorm"
)

// TokenColumns names the column pair that stores one kind of action token.
type TokenColumns struct {
	Token     string
	ExpiresAt string
}

var (
	PasswordResetColumns = TokenColumns{
		Token:     "password_reset_token",
		ExpiresAt: "password_reset_expires_at",
	}
	EmailConfirmationColumns = TokenColumns{
		Token:     "email_confirmation_token",
		ExpiresAt: "email_confirmation_expires_at",
	}
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email, deactivated
// accounts included.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Unscoped().Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByEmail is FindByEmail restricted to accounts that are not deactivated.
func (r *Repository) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by id, deactivated accounts included.
func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Unscoped().First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether any account, deactivated or not, owns email.
// excludeID lets an update skip the row being edited.
func (r *Repository) EmailExists(ctx context.Context, email string, excludeID uint64) (bool, error) {
	query := r.db.WithContext(ctx).Unscoped().Model(&models.User{}).Where("email = ?", email)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListAPIKeyCandidates returns API accounts whose stored key prefix matches,
// plus accounts provisioned before prefixes were recorded.
func (r *Repository) ListAPIKeyCandidates(ctx context.Context, prefix string) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("kind = ?", enums.UserKindAPI).
		Where("api_key_hash IS NOT NULL").
		Where("(api_key_prefix = ? OR api_key_prefix IS NULL)", prefix).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// IssueToken stores a token and its expiry on an active account. It returns
// gorm.ErrRecordNotFound when no active row matched.
func (r *Repository) IssueToken(ctx context.Context, id uint64, cols TokenColumns, token string, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			cols.Token:     token,
			cols.ExpiresAt: expiresAt.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RedeemToken clears a live token and applies changes in one conditional
// update. It reports false when the token is unknown, expired, already spent
// or belongs to a deactivated account; of two concurrent redemptions of the
// same token at most one returns true.
func (r *Repository) RedeemToken(ctx context.Context, cols TokenColumns, token string, now time.Time, changes map[string]any) (bool, error) {
	if token == "" {
		return false, nil
	}

	updates := make(map[string]any, len(changes)+2)
	for column, value := range changes {
		updates[column] = value
	}
	updates[cols.Token] = nil
	updates[cols.ExpiresAt] = nil

	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where(cols.Token+" = ?", token).
		Where(cols.ExpiresAt+" IS NOT NULL").
		Where(cols.ExpiresAt+" > ?", now.UTC()).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ClearExpiredTokens nulls every token of the given kind whose expiry is at or
// before now, including on deactivated accounts. It returns the rows touched.
func (r *Repository) ClearExpiredTokens(ctx context.Context, cols TokenColumns, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.User{}).
		Where(cols.ExpiresAt+" IS NOT NULL").
		Where(cols.ExpiresAt+" <= ?", now.UTC()).
		Updates(map[string]any{
			cols.Token:     nil,
			cols.ExpiresAt: nil,
		})
	return res.RowsAffected, res.Error
}

// Update applies column changes to a user regardless of its state.
func (r *Repository) Update(ctx context.Context, id uint64, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Deactivate soft-deletes the account.
func (r *Repository) Deactivate(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Reactivate clears the soft-delete marker.
func (r *Repository) Reactivate(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.User{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns users newest first, deactivated accounts included. beforeID
// of zero starts from the top; limit should already carry the page buffer.
func (r *Repository) List(ctx context.Context, beforeID uint64, limit int) ([]models.User, error) {
	query := r.db.WithContext(ctx).Unscoped().Order("id DESC").Limit(limit)
	if beforeID != 0 {
		query = query.Where("id < ?", beforeID)
	}
	var rows []models.User
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
