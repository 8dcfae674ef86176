package database

import (
	"errors"
	"fmt"
	"log"
	"time"

	migrateV4 "github.com/golang-migrate/migrate/v4"
	migratePostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB opens the PostgreSQL connection pool.
// Duplicate key errors are translated to gorm.ErrDuplicatedKey.
func NewPostgresDB(dsn string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Many teams poll at quiz start; the pool is sized for short bursts.
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// MigrateDB applies the SQL migrations found at sourceURL (e.g. "file://migrations")
func MigrateDB(db *gorm.DB, sourceURL string) error {
	log.Println("[Database] Applying database migrations...")

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get *sql.DB from *gorm.DB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database before migrating: %w", err)
	}

	driver, err := migratePostgres.WithInstance(sqlDB, &migratePostgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver for migrate: %w", err)
	}

	if sourceURL == "" {
		sourceURL = "file://migrations"
	}
	m, err := migrateV4.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrateV4.ErrNoChange):
		log.Println("[Database] No new migrations, schema is up to date")
	case err != nil:
		log.Printf("[Database] Migration failed: %v", err)
		return fmt.Errorf("failed to apply 'up' migrations: %w", err)
	default:
		log.Println("[Database] Migrations applied")
	}
	return nil
}
