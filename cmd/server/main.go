// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

// Package main is the entry point for the Beacon server.
//
// Beacon is a live location sharing service. Authenticated users position
// a personal tracker on a shared map; connected clients receive movement,
// presence, and removal events over WebSocket in real time. Each tracker
// carries a human-friendly access code so a location can be followed
// without subscribing to the full broadcast stream.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 with layered defaults, YAML file, and env vars
//  2. Database: SQLite (modernc.org/sqlite, CGO-free) with schema migrations
//  3. Tracker registry: distance-gated history over the persistent store
//  4. Broadcast hub: per-room WebSocket fan-out
//  5. Authentication: bcrypt credentials, HS256 session tokens
//  6. Simulation driver: optional synthetic tracker fleet
//  7. HTTP server: REST API plus the /socket WebSocket endpoint
//
// The hub and HTTP server run under a suture supervisor tree so a crash
// in one restarts without tearing down the other.
//
// # Configuration
//
// Settings are loaded with the highest priority winning:
//   - Environment variables (BEACON_ prefixed)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// Required in production:
//   - BEACON_SECURITY_JWT_SECRET: 32+ character token signing secret
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the listener stops
// accepting connections, in-flight requests get 10 seconds to finish,
// WebSocket clients are closed, and the database is flushed.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beaconhq/beacon/internal/api"
	"github.com/beaconhq/beacon/internal/auth"
	"github.com/beaconhq/beacon/internal/config"
	"github.com/beaconhq/beacon/internal/database"
	"github.com/beaconhq/beacon/internal/logging"
	"github.com/beaconhq/beacon/internal/realtime"
	"github.com/beaconhq/beacon/internal/simulation"
	"github.com/beaconhq/beacon/internal/supervisor"
	"github.com/beaconhq/beacon/internal/supervisor/services"
	"github.com/beaconhq/beacon/internal/tracker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("addr", cfg.Server.Addr()).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	jwtMgr, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize token manager")
	}
	authSvc := auth.NewService(database.NewUserStore(db), jwtMgr, &cfg.Security)

	registry := tracker.NewRegistry(database.NewTrackerStore(db))
	hub := realtime.NewHub(&cfg.Realtime)
	gateway := realtime.NewGateway(registry, hub)
	socket := realtime.NewHandler(hub, gateway, jwtMgr, cfg.Security.CORSOrigins)

	sim := simulation.NewDriver(cfg.Simulation, registry, gateway)

	handler := api.NewHandler(authSvc, registry, sim, db)
	router := api.NewRouter(handler, auth.NewMiddleware(jwtMgr), api.NewMiddleware(&cfg.Security), socket)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Routes(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Stop simulation agents that outlived the tree.
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := sim.Stop(stopCtx); err != nil {
		logging.Warn().Err(err).Msg("Failed to stop simulation")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Server stopped gracefully")
}
