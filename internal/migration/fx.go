package migration

import (
	"strings"

	"github.com/campuskit/campuskit/internal/config"
	contactdomain "github.com/campuskit/campuskit/internal/contact/domain"
	schooldomain "github.com/campuskit/campuskit/internal/school/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if strings.EqualFold(cfg.DBType, "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}
		return AutoMigrate(conn)
	}),
)

// AutoMigrate builds the schema from the model definitions for non-postgres
// dialects (sqlite for local development and tests), then applies the partial
// unique indexes the versioned SQL creates on postgres. Without them the
// single-default constraint would only be enforced in production.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&schooldomain.School{},
		&schooldomain.Campus{},
		&contactdomain.ContactNumber{},
		&contactdomain.EmailAddress{},
		&contactdomain.Address{},
	); err != nil {
		return err
	}

	for _, stmt := range []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_contact_numbers_owner_default ON contact_numbers (owner_id, owner_type) WHERE is_default`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_email_addresses_owner_default ON email_addresses (owner_id, owner_type) WHERE is_default`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_addresses_owner_default ON addresses (owner_id, owner_type) WHERE is_default`,
	} {
		if err := conn.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
