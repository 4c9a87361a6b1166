package models

import (
	"time"

	"github.com/servmarket/servmarket-backend/pkg/enums"
	"gorm.io/gorm"
)

// Organization is a legal entity offering services on the marketplace.
type Organization struct {
	ID                   uint64                 `gorm:"primaryKey;autoIncrement"`
	AuthorID             uint64                 `gorm:"column:author_id;not null;index"`
	OwnerID              *uint64                `gorm:"column:owner_id;index"`
	ParentOrganizationID *uint64                `gorm:"column:parent_organization_id;index"`
	LegalName            *string                `gorm:"column:legal_name;type:varchar(64)"`
	Brand                *string                `gorm:"column:brand;type:varchar(32)"`
	Size                 enums.OrganizationSize `gorm:"column:o_size;type:varchar(16);not null;default:FREELANCER"`
	JuridicForm          *string                `gorm:"column:juridic_form;type:varchar(8)"`
	Currency             string                 `gorm:"column:currency;type:varchar(8);not null;default:eur"`
	LegalUniqIdentifier  *string                `gorm:"column:legal_uniq_identifier;type:varchar(64)"`
	VATNumber            *string                `gorm:"column:vat_number;type:varchar(32)"`
	Capital              *int64                 `gorm:"column:capital"`
	ActivityStartedAt    *time.Time             `gorm:"column:activity_started_at"`
	ActivityEndedAt      *time.Time             `gorm:"column:activity_ended_at"`
	Description          *string                `gorm:"column:description;type:text"`
	Summary              *string                `gorm:"column:summary;type:text"`

	Author             *User         `gorm:"foreignKey:AuthorID"`
	Owner              *User         `gorm:"foreignKey:OwnerID"`
	ParentOrganization *Organization `gorm:"foreignKey:ParentOrganizationID"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Organization) TableName() string { return "organizations" }
