package organizations

import (
	"context"

	"github.com/servmarket/servmarket-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository handles organization persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to organization operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new organization row.
func (r *Repository) Create(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

// FindByID loads an organization by id.
func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// Exists reports whether a live organization with the id exists.
func (r *Repository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Organization{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns organizations in descending id order, starting below beforeID
// when it is non-zero.
func (r *Repository) List(ctx context.Context, beforeID uint64, limit int) ([]models.Organization, error) {
	query := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if beforeID != 0 {
		query = query.Where("id < ?", beforeID)
	}
	var rows []models.Organization
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
