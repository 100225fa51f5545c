// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package auth

import (
	"context"
	"errors"
	"testing"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := testSecurityConfig()
	jwt, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return NewService(NewMemUserStore(), jwt, cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	user, token, err := svc.Register(ctx, "Alice", "Alice@Example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Register() email = %q, want normalized %q", user.Email, "alice@example.com")
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct horse battery" {
		t.Error("Register() stored password unhashed or empty")
	}
	if token == "" {
		t.Error("Register() returned empty token")
	}

	// Login with a differently-cased email resolves the same account.
	logged, token2, err := svc.Login(ctx, "ALICE@example.COM", "correct horse battery")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("Login() user id = %q, want %q", logged.ID, user.ID)
	}
	if token2 == "" {
		t.Error("Login() returned empty token")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password-one"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, _, err := svc.Register(ctx, "Impostor", "alice@example.com", "password-two")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate Register() error = %v, want ErrEmailTaken", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, _, err := svc.Register(ctx, "Alice", "alice@example.com", "right-password"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "alice@example.com", "wrong-password"},
		{"unknown email", "nobody@example.com", "right-password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Login(ctx, tt.email, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	user, _, err := svc.Register(ctx, "Alice", "alice@example.com", "some-password")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := svc.Lookup(ctx, user.ID)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("Lookup() email = %q, want %q", got.Email, "alice@example.com")
	}

	if _, err := svc.Lookup(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Lookup() unknown id error = %v, want ErrUserNotFound", err)
	}
}
