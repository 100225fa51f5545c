// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package api

import (
	"errors"
	"net/http"

	"github.com/beaconhq/beacon/internal/auth"
	"github.com/beaconhq/beacon/internal/logging"
	"github.com/beaconhq/beacon/internal/models"
)

// AuthRegister creates a user account and returns a session token.
func (h *Handler) AuthRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			respondError(w, http.StatusConflict, "CONFLICT", "email is already registered")
			return
		}
		logging.Error().Err(err).Msg("registration failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "registration failed")
		return
	}

	respondJSON(w, http.StatusCreated, models.AuthResponse{
		Success: true,
		Message: "registration successful",
		User:    user,
		Token:   token,
	})
}

// AuthLogin verifies credentials and returns a session token.
func (h *Handler) AuthLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid email or password")
			return
		}
		logging.Error().Err(err).Msg("login failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "login failed")
		return
	}

	respondJSON(w, http.StatusOK, models.AuthResponse{
		Success: true,
		Message: "login successful",
		User:    user,
		Token:   token,
	})
}

// AuthProfile returns the account behind the bearer token.
func (h *Handler) AuthProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		return
	}

	user, err := h.auth.Lookup(r.Context(), identity.SubjectID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			// Token outlived the account.
			respondError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "account no longer exists")
			return
		}
		logging.Error().Err(err).Msg("profile lookup failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "profile lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
