package models

import (
	"time"

	"github.com/servmarket/servmarket-backend/pkg/enums"
	"github.com/servmarket/servmarket-backend/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is a listing offered either by a human provider or an AI agent.
type Service struct {
	ID                           uint64            `gorm:"primaryKey;autoIncrement"`
	ServiceType                  enums.ServiceType `gorm:"column:service_type;type:varchar(32);not null;index"`
	UserID                       uint64            `gorm:"column:user_id;not null;index"`
	OrganizationID               *uint64           `gorm:"column:organization_id;index"`
	FirstName                    *string           `gorm:"column:first_name;type:varchar(64)"`
	LastName                     *string           `gorm:"column:last_name;type:varchar(64)"`
	Phone                        *string           `gorm:"column:phone;type:varchar(32)"`
	AIAgentName                  *string           `gorm:"column:ai_agent_name;type:varchar(128)"`
	AIModel                      *string           `gorm:"column:ai_model;type:varchar(128)"`
	AIVersion                    *string           `gorm:"column:ai_version;type:varchar(64)"`
	HourlyRate                   decimal.Decimal   `gorm:"column:hourly_rate;type:numeric(10,2);not null"`
	ProfessionalDescription      string            `gorm:"column:professional_description;type:text;not null"`
	SkillsDescription            string            `gorm:"column:skills_description;type:text;not null"`
	Skills                       types.StringList  `gorm:"column:skills;type:jsonb;not null"`
	Domains                      types.StringList  `gorm:"column:domains;type:jsonb;not null"`
	Localization                 string            `gorm:"column:localization;type:varchar(128);not null;default:''"`
	ShortProfessionalDescription string            `gorm:"column:short_professional_description;type:text;not null"`
	ShortSkillsDescription       string            `gorm:"column:short_skills_description;type:text;not null"`

	Organization *Organization `gorm:"foreignKey:OrganizationID"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Service) TableName() string { return "services" }
