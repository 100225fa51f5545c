// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

// Package auth implements user accounts, password verification, and
// JWT-based session tokens.
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/beaconhq/beacon/internal/models"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when registering an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// MemUserStore is an in-memory UserStore for tests and standalone use.
type MemUserStore struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
}

// NewMemUserStore creates an empty in-memory user store.
func NewMemUserStore() *MemUserStore {
	return &MemUserStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

// CreateUser inserts a user, enforcing email uniqueness.
func (s *MemUserStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return ErrEmailTaken
	}
	clone := *user
	s.byID[user.ID] = &clone
	s.byEmail[user.Email] = user.ID
	return nil
}

// GetUserByID returns the user, or ErrUserNotFound.
func (s *MemUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

// GetUserByEmail returns the user, or ErrUserNotFound.
func (s *MemUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *s.byID[id]
	return &clone, nil
}
