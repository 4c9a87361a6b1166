package automatedservices

import (
	"context"

	"github.com/servmarket/servmarket-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository handles automated service persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to automated service operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, m *models.AutomatedService) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.AutomatedService, error) {
	var m models.AutomatedService
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns rows in descending id order, optionally filtered by category.
func (r *Repository) List(ctx context.Context, category string, beforeID uint64, limit int) ([]models.AutomatedService, error) {
	query := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if beforeID != 0 {
		query = query.Where("id < ?", beforeID)
	}
	var rows []models.AutomatedService
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
