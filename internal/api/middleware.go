// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/beaconhq/beacon/internal/config"
)

// loginRateLimit bounds credential guessing independently of the general
// API limit.
const (
	loginRateLimitRequests = 10
	loginRateLimitWindow   = time.Minute
)

// Middleware builds the router's CORS and rate limiting middleware from
// the security configuration.
type Middleware struct {
	cfg  *config.SecurityConfig
	cors func(http.Handler) http.Handler
}

// NewMiddleware creates the middleware factory. An empty origin list
// falls back to allowing any origin, which suits local development.
func NewMiddleware(cfg *config.SecurityConfig) *Middleware {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	return &Middleware{cfg: cfg, cors: corsHandler}
}

// CORS must be installed globally so OPTIONS preflight requests are
// answered before routing.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit limits general API traffic per client IP.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return passthrough
	}
	return httprate.Limit(
		m.cfg.RateLimitRequests,
		m.cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// RateLimitLogin applies the stricter per-IP limit shared by the login
// and register endpoints.
func (m *Middleware) RateLimitLogin() func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return passthrough
	}
	return httprate.LimitByIP(loginRateLimitRequests, loginRateLimitWindow)
}

func passthrough(next http.Handler) http.Handler {
	return next
}

// SecurityHeaders sets the response headers appropriate for a JSON API.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}
