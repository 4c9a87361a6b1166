package models

import (
	"time"

	"github.com/servmarket/servmarket-backend/pkg/types"
)

// AutomatedService is a callable third-party automation described by JSON
// documents (provider, pricing, request configuration, usage, metadata).
type AutomatedService struct {
	ID            uint64         `gorm:"primaryKey;autoIncrement"`
	Name          string         `gorm:"column:name;type:varchar(255);not null"`
	Description   string         `gorm:"column:description;type:text;not null"`
	Category      string         `gorm:"column:category;type:varchar(100);not null;index"`
	Provider      types.Document `gorm:"column:provider;type:jsonb;not null"`
	Pricing       types.Document `gorm:"column:pricing;type:jsonb;not null"`
	Configuration types.Document `gorm:"column:configuration;type:jsonb;not null"`
	Usage         types.Document `gorm:"column:usage;type:jsonb;not null"`
	Metadata      types.Document `gorm:"column:metadata;type:jsonb;not null"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (AutomatedService) TableName() string { return "automated_services" }
