// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

// Package models defines the shared data types exchanged between the
// registry, the realtime gateway, the REST API, and the persistence layer.
package models

import "time"

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Tracker is a location-sharing identity bound to exactly one owner.
//
// LastLat/LastLng are nil if and only if the tracker is stopped
// (IsOnline == false). A location update always sets IsOnline back to true.
type Tracker struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	Name       string    `json:"name"`
	AccessCode string    `json:"accessCode"`
	IsOnline   bool      `json:"isOnline"`
	LastLat    *float64  `json:"lastLat"`
	LastLng    *float64  `json:"lastLng"`
	LastSeen   time.Time `json:"lastSeen"`
}

// Coordinate returns the tracker's last known position, or nil when the
// tracker is stopped.
func (t *Tracker) Coordinate() *Coordinate {
	if t.LastLat == nil || t.LastLng == nil {
		return nil
	}
	return &Coordinate{Lat: *t.LastLat, Lng: *t.LastLng}
}

// SetCoordinate records a position on the tracker.
func (t *Tracker) SetCoordinate(c Coordinate) {
	lat, lng := c.Lat, c.Lng
	t.LastLat = &lat
	t.LastLng = &lng
}

// ClearCoordinate removes the tracker's position. Used by stop.
func (t *Tracker) ClearCoordinate() {
	t.LastLat = nil
	t.LastLng = nil
}

// HistoryEntry is an immutable snapshot of a past significant location.
// Entries are created only when a tracker moves more than the configured
// distance threshold, and at most HistoryCap entries are retained per
// tracker, newest first.
type HistoryEntry struct {
	ID        string    `json:"id"`
	TrackerID string    `json:"trackerId"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}
