package models

import "github.com/servmarket/servmarket-backend/pkg/enums"

// Role is the fixed lookup table users.role references. Rows are seeded by
// migration and never written at runtime.
type Role struct {
	Name        enums.Role `gorm:"column:name;type:varchar(32);primaryKey"`
	Description string     `gorm:"column:description;type:text;not null;default:''"`
}

func (Role) TableName() string { return "roles" }
