// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package database

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/beaconhq/beacon/internal/config"
	"github.com/beaconhq/beacon/internal/logging"
)

func TestMain(m *testing.M) {
	logging.SetLogger(logging.NewTestLogger(io.Discard))
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := &config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "beacon.db")}
	db, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

func TestNewCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "beacon.db")
	db, err := New(&config.DatabaseConfig{Path: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	cfg := &config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "beacon.db")}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopening must not re-run applied migrations.
	db, err = New(cfg)
	if err != nil {
		t.Fatalf("New() on existing database error = %v", err)
	}
	defer func() { _ = db.Close() }()

	var version int
	err = db.Conn().QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version)
	if err != nil {
		t.Fatalf("query migration version: %v", err)
	}
	if want := migrations()[len(migrations())-1].Version; version != want {
		t.Errorf("migration version = %d, want %d", version, want)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insert := `INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`
	if _, err := db.Conn().ExecContext(ctx, insert, "u1", "Alice", "a@example.com", "h"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	_, err := db.Conn().ExecContext(ctx, insert, "u2", "Bob", "a@example.com", "h")
	if err == nil {
		t.Fatal("duplicate insert succeeded, want unique violation")
	}
	if !isUniqueViolation(err, "users.email") {
		t.Errorf("isUniqueViolation(err, users.email) = false for %v", err)
	}
	if isUniqueViolation(err, "users.id") {
		t.Errorf("isUniqueViolation(err, users.id) = true for %v", err)
	}
	if isUniqueViolation(nil, "users.email") {
		t.Error("isUniqueViolation(nil, ...) = true")
	}
}
