// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a configuration that passes Validate.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = "0123456789abcdef0123456789abcdef"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Security.TokenLifetime != 2*time.Hour {
		t.Errorf("default token lifetime = %v, want 2h", cfg.Security.TokenLifetime)
	}
	if cfg.Simulation.Count != 10 {
		t.Errorf("default simulation count = %d, want 10", cfg.Simulation.Count)
	}
	if cfg.Realtime.SendBufferSize != 256 {
		t.Errorf("default send buffer = %d, want 256", cfg.Realtime.SendBufferSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"missing db path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"missing secret", func(c *Config) { c.Security.JWTSecret = "" }, "jwt_secret"},
		{"short secret", func(c *Config) { c.Security.JWTSecret = "short" }, "at least 32"},
		{"zero lifetime", func(c *Config) { c.Security.TokenLifetime = 0 }, "token_lifetime"},
		{"negative sim count", func(c *Config) { c.Simulation.Count = -1 }, "simulation.count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"SERVER_PORT", "server.port"},
		{"SERVER_HOST", "server.host"},
		{"DATABASE_PATH", "database.path"},
		{"SECURITY_JWT_SECRET", "security.jwt_secret"},
		{"SECURITY_TOKEN_LIFETIME", "security.token_lifetime"},
		{"SIMULATION_BASE_LAT", "simulation.base_lat"},
		{"LOGGING_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
		{"GOPATH", ""},
		{"XDG_CONFIG_HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SECURITY_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("SERVER_PORT", "9001")
	t.Setenv("DATABASE_PATH", ":memory:")
	t.Setenv("SECURITY_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("db path = %q, want :memory:", cfg.Database.Path)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[0] != "https://a.example" {
		t.Errorf("cors origins = %v, want two trimmed origins", cfg.Security.CORSOrigins)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("SECURITY_JWT_SECRET", "too-short")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected validation error for short secret")
	}
}
