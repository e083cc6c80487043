package database

import (
	"fmt"
	"log"

	"timetracker-service/internal/model"
	"timetracker-service/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance
var DB *gorm.DB

// InitDB initializes the database connection with configuration
func InitDB(cfg *config.Config) error {
	var err error

	// Connect with PreferSimpleProtocol to prevent "prepared statement already exists" errors
	pgConfig := postgres.Config{
		DSN:                  cfg.DB.GetDSN(),
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	DB, err = gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.DB.LogLevel),
	})
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		return err
	}

	// Configure connection pool
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("Failed to get database connection: %v", err)
		return err
	}

	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	return nil
}

// Migrate creates or updates the table structure for all models and installs
// the constraints AutoMigrate cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Company{},
		&model.User{},
		&model.Client{},
		&model.Project{},
		&model.TimeEntry{},
	); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Partial unique index enforcing "at most one running entry per user".
	// Concurrent starts race on this index instead of on a check-then-insert.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_time_entries_running_user
		 ON time_entries (user_id) WHERE is_running`,
	).Error; err != nil {
		return fmt.Errorf("failed to create running-entry unique index: %w", err)
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
