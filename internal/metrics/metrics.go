// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

// Package metrics exposes Prometheus instrumentation for the HTTP API,
// the realtime hub, and tracker operations.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	// Realtime hub metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_rooms",
			Help: "Current number of rooms with at least one member",
		},
	)

	WSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_messages_received_total",
			Help: "Total number of inbound protocol messages",
		},
		[]string{"event"},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_messages_sent_total",
			Help: "Total number of outbound protocol messages",
		},
	)

	WSBroadcastDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_broadcast_drops_total",
			Help: "Total number of clients dropped for full send queues",
		},
	)

	WSAuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_auth_failures_total",
			Help: "Total number of rejected WebSocket handshakes",
		},
	)

	// Tracker operation metrics
	TrackerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_operations_total",
			Help: "Total number of tracker registry operations",
		},
		[]string{"operation", "outcome"},
	)

	TrackersOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trackers_online",
			Help: "Current number of online trackers",
		},
	)

	HistoryEntriesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_history_entries_total",
			Help: "Total number of history entries written",
		},
	)

	SimulationActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simulation_active",
			Help: "Whether the tracker simulation is running (1) or not (0)",
		},
	)
)

// RecordAPIRequest records one handled HTTP request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTrackerOperation records one registry operation outcome.
func RecordTrackerOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	TrackerOperations.WithLabelValues(operation, outcome).Inc()
}
