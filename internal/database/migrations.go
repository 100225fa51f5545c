// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package database

import (
	"context"
	"fmt"

	"github.com/beaconhq/beacon/internal/logging"
)

// Migration is a versioned schema change. Migrations are append-only:
// never modify or remove an entry once a release has shipped it.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func migrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "initial_schema",
			SQL: `
CREATE TABLE users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE trackers (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	access_code TEXT NOT NULL UNIQUE,
	is_online INTEGER NOT NULL DEFAULT 0,
	last_lat REAL,
	last_lng REAL,
	last_seen TIMESTAMP NOT NULL
);

CREATE TABLE tracker_histories (
	id TEXT PRIMARY KEY,
	tracker_id TEXT NOT NULL REFERENCES trackers(id) ON DELETE CASCADE,
	lat REAL NOT NULL,
	lng REAL NOT NULL,
	timestamp TIMESTAMP NOT NULL
);

CREATE INDEX idx_tracker_histories_tracker ON tracker_histories(tracker_id, timestamp);
`,
		},
	}
}

// applyMigrations runs every migration not yet recorded in
// schema_migrations, each inside its own transaction.
func (db *DB) applyMigrations(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var current int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	for _, m := range migrations() {
		if m.Version <= current {
			continue
		}

		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		logging.Info().Int("version", m.Version).Str("name", m.Name).Msg("applied migration")
	}

	return nil
}
