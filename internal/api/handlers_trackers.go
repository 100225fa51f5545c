// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/beaconhq/beacon/internal/logging"
	"github.com/beaconhq/beacon/internal/models"
	"github.com/beaconhq/beacon/internal/tracker"
)

// ListTrackers returns every tracker, online or not.
func (h *Handler) ListTrackers(w http.ResponseWriter, r *http.Request) {
	trackers, err := h.registry.ListAll(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("tracker listing failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list trackers")
		return
	}
	if trackers == nil {
		trackers = []*models.Tracker{}
	}
	respondJSON(w, http.StatusOK, trackers)
}

// TrackerHistories returns a tracker's retained history, newest first.
func (h *Handler) TrackerHistories(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entries, err := h.registry.History(r.Context(), id)
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "tracker not found")
			return
		}
		logging.Error().Err(err).Str("tracker_id", id).Msg("history lookup failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load history")
		return
	}
	if entries == nil {
		entries = []*models.HistoryEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// SimulationStart launches the synthetic tracker fleet.
func (h *Handler) SimulationStart(w http.ResponseWriter, r *http.Request) {
	if err := h.sim.Start(r.Context()); err != nil {
		logging.Error().Err(err).Msg("simulation start failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to start simulation")
		return
	}
	respondJSON(w, http.StatusOK, h.sim.Status())
}

// SimulationStop halts the fleet and removes its trackers.
func (h *Handler) SimulationStop(w http.ResponseWriter, r *http.Request) {
	if err := h.sim.Stop(r.Context()); err != nil {
		logging.Error().Err(err).Msg("simulation stop failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to stop simulation")
		return
	}
	respondJSON(w, http.StatusOK, h.sim.Status())
}

// SimulationStatus reports whether the fleet is running.
func (h *Handler) SimulationStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.sim.Status())
}
