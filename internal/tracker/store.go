// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

// Package tracker implements the tracker registry: tracker lifecycle,
// access-code generation, and the distance-gated location history.
//
// All tracker and history state is owned by the Registry and reached only
// through its operations. Persistence is pluggable behind the Store
// interface: an in-memory map store for tests and a SQLite store for
// production (internal/database).
package tracker

import (
	"context"
	"errors"

	"github.com/beaconhq/beacon/internal/models"
)

// Sentinel errors returned by Store implementations and the Registry.
var (
	// ErrNotFound indicates the referenced tracker does not exist.
	ErrNotFound = errors.New("tracker not found")

	// ErrAccessCodeTaken indicates an access-code uniqueness violation on
	// insert. The Registry regenerates and retries.
	ErrAccessCodeTaken = errors.New("access code already taken")

	// ErrOwnerTaken indicates the owner already has a tracker. Surfaced by
	// stores enforcing the one-tracker-per-owner constraint; the Registry
	// resolves it by returning the existing tracker.
	ErrOwnerTaken = errors.New("owner already has a tracker")
)

// Store is the persistence capability consumed by the Registry.
//
// Implementations must enforce two uniqueness constraints on create:
// one tracker per owner (ErrOwnerTaken) and unique access codes
// (ErrAccessCodeTaken). Access codes are stored and queried in normalized
// form (uppercase, no whitespace).
type Store interface {
	CreateTracker(ctx context.Context, t *models.Tracker) error
	GetTracker(ctx context.Context, id string) (*models.Tracker, error)
	GetTrackerByOwner(ctx context.Context, ownerID string) (*models.Tracker, error)
	GetTrackerByAccessCode(ctx context.Context, code string) (*models.Tracker, error)
	ListTrackers(ctx context.Context) ([]*models.Tracker, error)
	UpdateTracker(ctx context.Context, t *models.Tracker) error
	DeleteTracker(ctx context.Context, id string) error

	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
	ListHistory(ctx context.Context, trackerID string) ([]*models.HistoryEntry, error)
	CountHistory(ctx context.Context, trackerID string) (int, error)
	DeleteOldestHistory(ctx context.Context, trackerID string) error
}
