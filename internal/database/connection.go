// Package database stores the history of classification runs so rule
// authors can compare assignments between rule edits.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is the default maximum number of idle connections
	DefaultMaxIdleConns = 2
	// DefaultConnMaxLifetime is the default maximum connection lifetime
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultPingTimeout is the default timeout for ping operations
	DefaultPingTimeout = 5 * time.Second
)

// Open connects to the run-history database. driver is "sqlite3" or
// "postgres".
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS classification_runs (
		id            TEXT PRIMARY KEY,
		rules_name    TEXT NOT NULL,
		prayers       INTEGER NOT NULL,
		uncategorized INTEGER NOT NULL,
		started_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS prayer_assignments (
		run_id       TEXT NOT NULL REFERENCES classification_runs(id),
		prayer_index INTEGER NOT NULL,
		path         TEXT NOT NULL,
		author       TEXT NOT NULL,
		PRIMARY KEY (run_id, prayer_index)
	)`,
}

// Migrate creates the history tables when missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate history schema: %w", err)
		}
	}
	return nil
}
