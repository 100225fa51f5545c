// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/beaconhq/beacon/internal/auth"
	"github.com/beaconhq/beacon/internal/models"
)

// UserStore is the SQLite implementation of auth.UserStore.
type UserStore struct {
	db *DB
}

// NewUserStore creates a UserStore on the given database.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUser inserts a user, mapping the email unique constraint to
// auth.ErrEmailTaken.
func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt.UTC())
	if isUniqueViolation(err, "users.email") {
		return auth.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByID returns the user, or auth.ErrUserNotFound.
func (s *UserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

// GetUserByEmail returns the user, or auth.ErrUserNotFound.
func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email)
}

func (s *UserStore) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		u         models.User
		createdAt time.Time
	)
	err := s.db.conn.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.CreatedAt = scanTime(createdAt)
	return &u, nil
}
