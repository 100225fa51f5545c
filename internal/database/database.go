// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

// Package database provides SQLite-backed persistence for trackers,
// location histories, and user accounts.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/beaconhq/beacon/internal/config"
	"github.com/beaconhq/beacon/internal/logging"
)

// DB wraps the SQLite connection and owns schema migrations.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the SQLite database, applies pending migrations, and verifies
// the connection.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	if cfg.Path != ":memory:" {
		// Create the parent directory so a fresh deployment does not fail
		// with "no such file or directory". 0750 per gosec G301.
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	conn, err := sql.Open("sqlite", cfg.Path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer. Funnel everything through one
	// connection so concurrent writes queue instead of returning
	// SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}

	if err := db.applyMigrations(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("database connection established")
	return db, nil
}

// Conn exposes the underlying connection for stores in this package.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// scanTime converts a scanned timestamp value to UTC. SQLite hands back
// whatever it stored, so normalize here rather than in every store method.
func scanTime(t time.Time) time.Time {
	return t.UTC()
}

// isUniqueViolation reports whether err is a unique constraint violation
// on the given column (qualified as "table.column"). The modernc driver
// surfaces these as plain error strings.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
