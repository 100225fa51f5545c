// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/beaconhq/beacon/internal/logging"
	"github.com/beaconhq/beacon/internal/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// IdentityFromContext returns the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(*models.Identity)
	return id, ok
}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// Middleware enforces bearer token authentication on HTTP routes.
type Middleware struct {
	jwt *JWTManager
}

// NewMiddleware creates authentication middleware on the token manager.
func NewMiddleware(jwt *JWTManager) *Middleware {
	return &Middleware{jwt: jwt}
}

// Authenticate rejects requests without a valid bearer token and stores
// the resolved identity in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			unauthorized(w, "missing bearer token")
			return
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			logging.Debug().Err(err).Msg("rejected invalid token")
			unauthorized(w, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Identity())))
	})
}

// BearerToken extracts the token from the Authorization header, or falls
// back to the "token" query parameter for clients that cannot set headers
// during a WebSocket handshake.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.NewErrorResponse("UNAUTHENTICATED", message))
}
