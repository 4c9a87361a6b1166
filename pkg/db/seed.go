package db

import (
	"context"

	"github.com/servmarket/servmarket-backend/pkg/db/models"
	"github.com/servmarket/servmarket-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var roleDescriptions = map[enums.Role]string{
	enums.RoleAdministrator: "Platform operator with full access",
	enums.RoleEntrepreneur:  "Publishes organizations and services",
	enums.RoleCustomer:      "Browses and purchases services",
}

// SeedRoles inserts the fixed role rows, leaving existing ones untouched. The
// goose migration does the same for Postgres; this covers AutoMigrate setups.
func SeedRoles(ctx context.Context, conn *gorm.DB) error {
	rows := make([]models.Role, 0, len(roleDescriptions))
	for _, role := range enums.Roles() {
		rows = append(rows, models.Role{Name: role, Description: roleDescriptions[role]})
	}
	return conn.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

// AutoMigrate creates every model table and seeds lookup rows.
func AutoMigrate(ctx context.Context, conn *gorm.DB) error {
	if err := conn.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return err
	}
	return SeedRoles(ctx, conn)
}
