// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package tracker

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beaconhq/beacon/internal/geo"
	"github.com/beaconhq/beacon/internal/logging"
	"github.com/beaconhq/beacon/internal/metrics"
	"github.com/beaconhq/beacon/internal/models"
)

const (
	// DistanceThresholdMeters gates history creation: only moves larger
	// than this append a history entry.
	DistanceThresholdMeters = 2000.0

	// HistoryCap is the maximum retained history entries per tracker.
	HistoryCap = 20

	// accessCodeMaxAttempts bounds the regenerate-on-collision loop.
	// With a 32^16 code space, collisions in practice mean a broken
	// random source, not bad luck.
	accessCodeMaxAttempts = 10
)

// lockStripes is the size of the keyed mutex table. Power of two.
const lockStripes = 64

// keyedMutex serializes operations per key using a fixed stripe table.
type keyedMutex struct {
	stripes [lockStripes]sync.Mutex
}

func (k *keyedMutex) lock(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &k.stripes[h.Sum32()&(lockStripes-1)]
	m.Lock()
	return m
}

// Registry owns tracker records and their lifecycle. Every mutation of a
// given tracker is serialized through a keyed mutex so concurrent updates
// never compute the distance gate against a stale coordinate.
type Registry struct {
	store Store
	locks keyedMutex
	now   func() time.Time
}

// NewRegistry creates a Registry backed by the given store.
func NewRegistry(store Store) *Registry {
	return &Registry{
		store: store,
		now:   time.Now,
	}
}

// FindByOwner returns the owner's tracker, or ErrNotFound.
func (r *Registry) FindByOwner(ctx context.Context, ownerID string) (*models.Tracker, error) {
	return r.store.GetTrackerByOwner(ctx, ownerID)
}

// FindByAccessCode returns the tracker matching the code, or ErrNotFound.
// The code is normalized (uppercased, whitespace stripped) before lookup.
func (r *Registry) FindByAccessCode(ctx context.Context, code string) (*models.Tracker, error) {
	return r.store.GetTrackerByAccessCode(ctx, NormalizeAccessCode(code))
}

// Register creates a tracker for the owner, or returns the existing one
// unchanged if the owner already has a tracker. Repeated registration is an
// intentional no-op: any new name or coordinate in the duplicate call is
// discarded and callers must tolerate that.
func (r *Registry) Register(ctx context.Context, ownerID, name string, coord models.Coordinate) (*models.Tracker, error) {
	defer r.locks.lock("owner:" + ownerID).Unlock()

	existing, err := r.store.GetTrackerByOwner(ctx, ownerID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to look up tracker for owner: %w", err)
	}

	t := &models.Tracker{
		ID:       newTrackerID(),
		OwnerID:  ownerID,
		Name:     name,
		IsOnline: true,
		LastSeen: r.now().UTC(),
	}
	t.SetCoordinate(coord)

	for attempt := 0; attempt < accessCodeMaxAttempts; attempt++ {
		code, err := GenerateAccessCode()
		if err != nil {
			return nil, err
		}
		t.AccessCode = code

		err = r.store.CreateTracker(ctx, t)
		switch {
		case err == nil:
			metrics.TrackersOnline.Inc()
			logging.Info().
				Str("tracker_id", t.ID).
				Str("access_code", t.AccessCode).
				Msg("tracker registered")
			return t, nil
		case errors.Is(err, ErrAccessCodeTaken):
			logging.Warn().Int("attempt", attempt+1).Msg("access code collision, regenerating")
			continue
		case errors.Is(err, ErrOwnerTaken):
			// Lost a create race outside our lock (e.g. another process
			// against the same store). The existing tracker wins.
			return r.store.GetTrackerByOwner(ctx, ownerID)
		default:
			return nil, fmt.Errorf("failed to create tracker: %w", err)
		}
	}

	return nil, fmt.Errorf("failed to generate a unique access code after %d attempts", accessCodeMaxAttempts)
}

// UpdateLocation records a new position for the tracker. When a previous
// coordinate exists and the move exceeds DistanceThresholdMeters, a history
// entry with the new coordinate is appended, evicting the oldest entry once
// HistoryCap is reached. Sub-threshold moves update the position only.
func (r *Registry) UpdateLocation(ctx context.Context, trackerID string, coord models.Coordinate) (*models.Tracker, error) {
	defer r.locks.lock("tracker:" + trackerID).Unlock()

	t, err := r.store.GetTracker(ctx, trackerID)
	if err != nil {
		return nil, err
	}

	if prev := t.Coordinate(); prev != nil {
		if distance := geo.Distance(*prev, coord); distance > DistanceThresholdMeters {
			if err := r.appendHistory(ctx, trackerID, coord); err != nil {
				return nil, err
			}
			logging.Debug().
				Str("tracker_id", trackerID).
				Float64("distance_m", distance).
				Msg("significant move recorded in history")
		}
	}

	wasOffline := !t.IsOnline
	t.IsOnline = true
	t.SetCoordinate(coord)
	t.LastSeen = r.now().UTC()

	if err := r.store.UpdateTracker(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update tracker: %w", err)
	}
	if wasOffline {
		metrics.TrackersOnline.Inc()
	}
	return t, nil
}

// Stop marks the tracker offline and clears its coordinate.
func (r *Registry) Stop(ctx context.Context, trackerID string) (*models.Tracker, error) {
	defer r.locks.lock("tracker:" + trackerID).Unlock()

	t, err := r.store.GetTracker(ctx, trackerID)
	if err != nil {
		return nil, err
	}

	wasOnline := t.IsOnline
	t.IsOnline = false
	t.ClearCoordinate()
	t.LastSeen = r.now().UTC()

	if err := r.store.UpdateTracker(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to stop tracker: %w", err)
	}
	if wasOnline {
		metrics.TrackersOnline.Dec()
	}
	return t, nil
}

// Remove permanently deletes the tracker and its history.
func (r *Registry) Remove(ctx context.Context, trackerID string) error {
	defer r.locks.lock("tracker:" + trackerID).Unlock()

	t, err := r.store.GetTracker(ctx, trackerID)
	if err != nil {
		return err
	}
	if err := r.store.DeleteTracker(ctx, trackerID); err != nil {
		return err
	}
	if t.IsOnline {
		metrics.TrackersOnline.Dec()
	}
	logging.Info().Str("tracker_id", trackerID).Msg("tracker removed")
	return nil
}

// ListAll returns every tracker.
func (r *Registry) ListAll(ctx context.Context) ([]*models.Tracker, error) {
	return r.store.ListTrackers(ctx)
}

// History returns the tracker's history entries, newest first, bounded by
// HistoryCap.
func (r *Registry) History(ctx context.Context, trackerID string) ([]*models.HistoryEntry, error) {
	return r.store.ListHistory(ctx, trackerID)
}

// appendHistory inserts an entry for the new coordinate, evicting the
// single oldest entry when the cap would be exceeded. Called with the
// tracker's keyed lock held.
func (r *Registry) appendHistory(ctx context.Context, trackerID string, coord models.Coordinate) error {
	count, err := r.store.CountHistory(ctx, trackerID)
	if err != nil {
		return fmt.Errorf("failed to count history: %w", err)
	}
	if count >= HistoryCap {
		if err := r.store.DeleteOldestHistory(ctx, trackerID); err != nil {
			return fmt.Errorf("failed to evict oldest history entry: %w", err)
		}
	}

	entry := &models.HistoryEntry{
		ID:        newTrackerID(),
		TrackerID: trackerID,
		Lat:       coord.Lat,
		Lng:       coord.Lng,
		Timestamp: r.now().UTC(),
	}
	if err := r.store.AppendHistory(ctx, entry); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	metrics.HistoryEntriesWritten.Inc()
	return nil
}

// newTrackerID returns a time-ordered unique id. UUIDv7 keeps ids sortable
// by creation time, which the history eviction order relies on as a
// tie-breaker for identical timestamps.
func newTrackerID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4
		// rather than propagate an error through every caller.
		return uuid.New().String()
	}
	return id.String()
}
