// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/beaconhq/beacon/internal/config"
	"github.com/beaconhq/beacon/internal/logging"
	"github.com/beaconhq/beacon/internal/models"
)

// ErrInvalidCredentials is returned for a wrong email or password. Callers
// must not distinguish the two cases in responses.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service implements account registration and login.
type Service struct {
	users      UserStore
	jwt        *JWTManager
	bcryptCost int
	now        func() time.Time
}

// NewService creates an auth service on the given user store.
func NewService(users UserStore, jwt *JWTManager, cfg *config.SecurityConfig) *Service {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		jwt:        jwt,
		bcryptCost: cost,
		now:        time.Now,
	}
}

// Register creates an account and returns the user with a fresh token.
// Returns ErrEmailTaken when the email already has an account.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           newUserID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}

	logging.Info().Str("user_id", user.ID).Msg("user registered")
	return user, token, nil
}

// Login verifies the credentials and returns the user with a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}

	logging.Debug().Str("user_id", user.ID).Msg("user logged in")
	return user, token, nil
}

// Lookup returns the user for an authenticated subject id.
func (s *Service) Lookup(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetUserByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newUserID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
