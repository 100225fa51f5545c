// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/beaconhq/beacon/internal/config"
	"github.com/beaconhq/beacon/internal/models"
)

// Claims are the JWT claims carried by an access token. The subject
// registered claim holds the user id.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity converts the claims to the identity model used everywhere
// downstream of authentication.
func (c *Claims) Identity() *models.Identity {
	return &models.Identity{
		SubjectID: c.Subject,
		Name:      c.Name,
		Email:     c.Email,
	}
}

// JWTManager creates and validates HS256-signed access tokens.
type JWTManager struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewJWTManager creates a token manager with the configured secret and
// token lifetime. The secret length is enforced by config validation.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is required but was empty")
	}

	return &JWTManager{
		secret:   []byte(cfg.JWTSecret),
		lifetime: cfg.TokenLifetime,
		now:      time.Now,
	}, nil
}

// GenerateToken creates a signed token for the user.
func (m *JWTManager) GenerateToken(user *models.User) (string, error) {
	now := m.now()
	claims := &Claims{
		Name:  user.Name,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken verifies the signature and expiry of a token and returns
// its claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}

	return claims, nil
}
