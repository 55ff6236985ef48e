package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

// Connect opens the configured relational store.
func Connect(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "", "sqlite":
		return ConnectSQLite(dsn)
	case "postgres":
		return ConnectPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate creates or updates every table the ledger persists.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Student{},
		&models.LessonLog{},
		&models.Review{},
		&models.ArchiveImage{},
		&models.AdminCredential{},
		&models.ActivityLog{},
	)
}
