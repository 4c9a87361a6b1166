package services

import (
	"context"
	"fmt"

	"github.com/servmarket/servmarket-backend/pkg/db/models"
	"github.com/servmarket/servmarket-backend/pkg/enums"
	"gorm.io/gorm"
)

// ListFilter narrows a listing query. Zero values mean "any".
type ListFilter struct {
	UserID      uint64
	ServiceType enums.ServiceType
	BeforeID    uint64
	Limit       int
}

// Repository handles service listing persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to service listing operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new listing.
func (r *Repository) Create(ctx context.Context, svc *models.Service) error {
	return r.db.WithContext(ctx).Create(svc).Error
}

// FindByID loads a listing by id.
func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.Service, error) {
	var svc models.Service
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&svc).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

// Update saves the provided listing.
func (r *Repository) Update(ctx context.Context, svc *models.Service) error {
	if svc == nil {
		return fmt.Errorf("service is required")
	}
	return r.db.WithContext(ctx).Omit("Organization").Save(svc).Error
}

// List returns listings in descending id order.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Service, error) {
	query := r.db.WithContext(ctx).Order("id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ServiceType != "" {
		query = query.Where("service_type = ?", filter.ServiceType)
	}
	if filter.BeforeID != 0 {
		query = query.Where("id < ?", filter.BeforeID)
	}
	var rows []models.Service
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
