// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/beaconhq/beacon/internal/auth"
	"github.com/beaconhq/beacon/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handler *Handler
	authMW  *auth.Middleware
	mw      *Middleware
	socket  http.Handler
}

// NewRouter creates the router. socket serves the WebSocket endpoint and
// performs its own token check before the upgrade.
func NewRouter(handler *Handler, authMW *auth.Middleware, mw *Middleware, socket http.Handler) *Router {
	return &Router{
		handler: handler,
		authMW:  authMW,
		mw:      mw,
		socket:  socket,
	}
}

// Routes builds the chi route tree.
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	// CORS is global so OPTIONS preflight is answered before routing.
	r.Use(rt.mw.CORS())

	r.Get("/api/health", rt.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(SecurityHeaders)
		r.Use(middleware.PrometheusMetrics)

		r.Group(func(r chi.Router) {
			r.Use(rt.mw.RateLimitLogin())
			r.Post("/register", rt.handler.AuthRegister)
			r.Post("/login", rt.handler.AuthLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.mw.RateLimit())
			r.Use(rt.authMW.Authenticate)
			r.Get("/profile", rt.handler.AuthProfile)
		})
	})

	r.Route("/api/trackers", func(r chi.Router) {
		r.Use(SecurityHeaders)
		r.Use(middleware.PrometheusMetrics)
		r.Use(rt.mw.RateLimit())
		r.Use(rt.authMW.Authenticate)

		r.Get("/", rt.handler.ListTrackers)
		r.Get("/{id}/histories", rt.handler.TrackerHistories)

		r.Post("/simulation/start", rt.handler.SimulationStart)
		r.Post("/simulation/stop", rt.handler.SimulationStop)
		r.Get("/simulation/status", rt.handler.SimulationStatus)
	})

	// Token validation happens inside the socket handler, before the
	// protocol upgrade.
	r.Get("/socket", rt.socket.ServeHTTP)

	return r
}
