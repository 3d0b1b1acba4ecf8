// Package db stores the journal of submitted transfers in sqlite.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lightningnetwork/lnd/clock"

	_ "modernc.org/sqlite" // SQLite driver
)

// Config holds configuration for database initialization.
type Config struct {
	// For standard apps: path to database file
	DBPath string

	// For tests: use in-memory database
	UseMemory bool

	// Clock stamps journal entries. Defaults to the system clock.
	Clock clock.Clock
}

// DefaultConfig returns a default database configuration.
func DefaultConfig(dbPath string) *Config {
	return &Config{
		DBPath: dbPath,
	}
}

// InitDatabase opens the journal database and applies migrations.
func InitDatabase(cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	dsn := cfg.DBPath
	if cfg.UseMemory {
		dsn = ":memory:"
	}
	if dsn == "" {
		return nil, fmt.Errorf("database path required")
	}

	if !cfg.UseMemory {
		err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0700)
		if err != nil {
			return nil, fmt.Errorf("unable to create database "+
				"directory: %w", err)
		}
		dsn = "file:" + cfg.DBPath + "?_pragma=busy_timeout(5000)" +
			"&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Every connection to :memory: is a separate database, and the CLI
	// is the only writer.
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewDefaultClock()
	}

	log.Debugf("Opened journal at %s", dsn)

	return &Store{db: db, clock: clk}, nil
}

// InitMemoryDatabase creates an in-memory database (useful for testing).
func InitMemoryDatabase() (*Store, error) {
	return InitDatabase(&Config{UseMemory: true})
}
