// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

// Package api exposes the REST surface: authentication, tracker queries,
// simulation control, and health.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/beaconhq/beacon/internal/auth"
	"github.com/beaconhq/beacon/internal/database"
	"github.com/beaconhq/beacon/internal/logging"
	"github.com/beaconhq/beacon/internal/models"
	"github.com/beaconhq/beacon/internal/simulation"
	"github.com/beaconhq/beacon/internal/tracker"
	"github.com/beaconhq/beacon/internal/validation"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Handler implements the REST endpoints.
type Handler struct {
	auth     *auth.Service
	registry *tracker.Registry
	sim      *simulation.Driver
	db       *database.DB
	started  time.Time
}

// NewHandler wires the REST handlers. db may be nil when the service
// runs on the in-memory store; the health endpoint then skips the ping.
func NewHandler(authSvc *auth.Service, registry *tracker.Registry, sim *simulation.Driver, db *database.DB) *Handler {
	return &Handler{
		auth:     authSvc,
		registry: registry,
		sim:      sim,
		db:       db,
		started:  time.Now(),
	}
}

// Health reports liveness and database connectivity. It returns 200 even
// when the database ping fails so load balancers can distinguish
// degraded from dead via the body.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			logging.Warn().Err(err).Msg("health check database ping failed")
			dbOK = false
		}
	}

	status := "healthy"
	if !dbOK {
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:   status,
		Version:  Version,
		Database: dbOK,
		Uptime:   time.Since(h.started).Seconds(),
	})
}

// respondJSON writes v as the response body. Successful payloads are
// returned directly, without an envelope.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// respondError writes the uniform error envelope.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, models.NewErrorResponse(code, message))
}

// decodeBody parses and validates a JSON request body. On failure it
// writes the error response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		return false
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		respondJSON(w, http.StatusBadRequest, models.NewErrorResponseWithDetails(verr.ToAPIError()))
		return false
	}
	return true
}
