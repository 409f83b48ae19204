package database

import (
	"fmt"
	"log"
	"time"

	"luxe/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenGORM connects to a relational database. driver is "postgres" or
// "sqlite".
func OpenGORM(driver, dsn string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         newGORMLogger(log.Default(), debug),
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// SQLite allows a single writer.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// newGORMLogger logs SQL through w. Lookups that find nothing are expected
// and surface as NotFound errors, so they are not logged.
func newGORMLogger(w logger.Writer, debug bool) logger.Interface {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// Migrate creates or updates every table the store uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Product{},
		&models.User{},
		&models.Address{},
		&models.Order{},
		&models.OrderItem{},
		&models.CheckoutIntent{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	log.Println("Database migrated")
	return nil
}
