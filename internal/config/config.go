// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

// Package config loads and validates the application configuration using
// Koanf v2 with layered sources: built-in defaults, an optional YAML file,
// and environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Security   SecurityConfig   `koanf:"security"`
	Realtime   RealtimeConfig   `koanf:"realtime"`
	Simulation SimulationConfig `koanf:"simulation"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	// Path is the SQLite database file. ":memory:" runs fully in memory.
	Path string `koanf:"path"`
}

// SecurityConfig holds authentication and rate limiting settings.
type SecurityConfig struct {
	// JWTSecret signs session tokens (HS256). Minimum 32 characters.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenLifetime is how long issued tokens stay valid.
	TokenLifetime time.Duration `koanf:"token_lifetime"`

	// BcryptCost is the work factor for password hashing.
	BcryptCost int `koanf:"bcrypt_cost"`

	// RateLimitRequests / RateLimitWindow bound general API traffic per IP.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// CORSOrigins lists allowed browser origins.
	CORSOrigins []string `koanf:"cors_origins"`
}

// RealtimeConfig holds WebSocket hub settings.
type RealtimeConfig struct {
	// SendBufferSize is the per-client outbound queue. Clients whose queue
	// fills are treated as slow consumers and disconnected.
	SendBufferSize int `koanf:"send_buffer_size"`

	// BroadcastBufferSize is the hub's inbound broadcast queue.
	BroadcastBufferSize int `koanf:"broadcast_buffer_size"`
}

// SimulationConfig drives the synthetic tracker generator.
type SimulationConfig struct {
	// Count is the number of synthetic trackers created on start.
	Count int `koanf:"count"`

	// BaseLat/BaseLng anchor the random coordinate cloud.
	BaseLat float64 `koanf:"base_lat"`
	BaseLng float64 `koanf:"base_lng"`

	// Variance is the +/- degree spread around the base coordinate.
	Variance float64 `koanf:"variance"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks configuration invariants before the server starts.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is required")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters, got %d", len(c.Security.JWTSecret))
	}
	if c.Security.TokenLifetime <= 0 {
		return fmt.Errorf("security.token_lifetime must be positive")
	}
	if c.Simulation.Count < 0 {
		return fmt.Errorf("simulation.count must not be negative")
	}
	if c.Simulation.Variance < 0 {
		return fmt.Errorf("simulation.variance must not be negative")
	}
	return nil
}
