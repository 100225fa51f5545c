// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

// Package geo provides great-circle distance calculation between
// WGS84 coordinates.
package geo

import (
	"math"

	"github.com/beaconhq/beacon/internal/models"
)

// earthRadiusMeters is the mean radius of the Earth used by the
// haversine formula.
const earthRadiusMeters = 6371e3

// Distance returns the great-circle distance in meters between two
// coordinates using the haversine formula. The function is pure and
// symmetric; identical points yield zero.
func Distance(a, b models.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}
