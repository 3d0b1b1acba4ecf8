package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var sqlSchemas embed.FS

// applyMigrations brings the schema of db up to the latest version.
func applyMigrations(db *sql.DB) error {
	src, err := iofs.New(sqlSchemas, "migrations")
	if err != nil {
		return fmt.Errorf("unable to open migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("unable to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("unable to create migration: %w", err)
	}

	// Closing m would also close db, so only the source is released.
	defer src.Close()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	log.Debugf("Database schema at version %d (dirty=%v)", version, dirty)

	return nil
}
