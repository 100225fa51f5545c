// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package realtime

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/beaconhq/beacon/internal/auth"
	"github.com/beaconhq/beacon/internal/logging"
	"github.com/beaconhq/beacon/internal/metrics"
	"github.com/beaconhq/beacon/internal/models"
)

// Handler upgrades authenticated HTTP requests to realtime connections.
type Handler struct {
	hub      *Hub
	gateway  *Gateway
	jwt      *auth.JWTManager
	upgrader websocket.Upgrader
}

// NewHandler creates the connection handler. allowedOrigins follows the
// CORS configuration; an empty list or "*" accepts any origin.
func NewHandler(hub *Hub, gateway *Gateway, jwt *auth.JWTManager, allowedOrigins []string) *Handler {
	origins := make(map[string]bool, len(allowedOrigins))
	allowAll := len(allowedOrigins) == 0
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		origins[o] = true
	}

	return &Handler{
		hub:     hub,
		gateway: gateway,
		jwt:     jwt,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin header.
				return origin == "" || origins[origin]
			},
		},
	}
}

// ServeHTTP authenticates the handshake, upgrades the connection, and
// starts the client pumps. The token comes from the Authorization header
// or the "token" query parameter; authentication failures reject the
// request before any upgrade happens.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r)
	if token == "" {
		h.rejectUnauthenticated(w, "missing bearer token")
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		logging.Debug().Err(err).Msg("rejected websocket handshake")
		h.rejectUnauthenticated(w, "invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logging.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	// Attach before the pumps start so the first inbound frame can join
	// rooms; a subscribe sent right after the upgrade must not be lost.
	client := NewClient(h.hub, h.gateway, conn, claims.Identity())
	h.hub.Attach(client)
	client.Start()
}

func (h *Handler) rejectUnauthenticated(w http.ResponseWriter, message string) {
	metrics.WSAuthFailures.Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.NewErrorResponse("UNAUTHENTICATED", message))
}
