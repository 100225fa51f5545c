// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package models

import "time"

// User is an authenticated account that may own at most one tracker.
// The password hash never crosses a serialization boundary.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the verified principal attached to a connection or request
// after token validation.
type Identity struct {
	SubjectID string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}
