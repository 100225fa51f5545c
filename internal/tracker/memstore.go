// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package tracker

import (
	"context"
	"sort"
	"sync"

	"github.com/beaconhq/beacon/internal/models"
)

// MemStore is an in-memory Store implementation. It backs tests and
// standalone deployments that do not need durable state.
type MemStore struct {
	mu       sync.RWMutex
	trackers map[string]*models.Tracker       // id -> tracker
	byOwner  map[string]string                // owner id -> tracker id
	byCode   map[string]string                // normalized access code -> tracker id
	history  map[string][]*models.HistoryEntry // tracker id -> entries, newest first
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		trackers: make(map[string]*models.Tracker),
		byOwner:  make(map[string]string),
		byCode:   make(map[string]string),
		history:  make(map[string][]*models.HistoryEntry),
	}
}

// CreateTracker inserts a tracker, enforcing owner and access-code
// uniqueness.
func (s *MemStore) CreateTracker(_ context.Context, t *models.Tracker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byOwner[t.OwnerID]; exists {
		return ErrOwnerTaken
	}
	code := NormalizeAccessCode(t.AccessCode)
	if _, exists := s.byCode[code]; exists {
		return ErrAccessCodeTaken
	}

	s.trackers[t.ID] = cloneTracker(t)
	s.byOwner[t.OwnerID] = t.ID
	s.byCode[code] = t.ID
	return nil
}

// GetTracker returns the tracker by id, or ErrNotFound.
func (s *MemStore) GetTracker(_ context.Context, id string) (*models.Tracker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trackers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTracker(t), nil
}

// GetTrackerByOwner returns the owner's tracker, or ErrNotFound.
func (s *MemStore) GetTrackerByOwner(_ context.Context, ownerID string) (*models.Tracker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byOwner[ownerID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTracker(s.trackers[id]), nil
}

// GetTrackerByAccessCode returns the tracker for a normalized access code,
// or ErrNotFound.
func (s *MemStore) GetTrackerByAccessCode(_ context.Context, code string) (*models.Tracker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTracker(s.trackers[id]), nil
}

// ListTrackers returns all trackers ordered by id for deterministic output.
func (s *MemStore) ListTrackers(_ context.Context) ([]*models.Tracker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Tracker, 0, len(s.trackers))
	for _, t := range s.trackers {
		out = append(out, cloneTracker(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateTracker replaces the stored tracker, or returns ErrNotFound.
func (s *MemStore) UpdateTracker(_ context.Context, t *models.Tracker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trackers[t.ID]; !ok {
		return ErrNotFound
	}
	s.trackers[t.ID] = cloneTracker(t)
	return nil
}

// DeleteTracker removes the tracker and its history, or returns ErrNotFound.
func (s *MemStore) DeleteTracker(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trackers[id]
	if !ok {
		return ErrNotFound
	}

	delete(s.trackers, id)
	delete(s.byOwner, t.OwnerID)
	delete(s.byCode, NormalizeAccessCode(t.AccessCode))
	delete(s.history, id)
	return nil
}

// AppendHistory prepends an entry, keeping entries newest first.
func (s *MemStore) AppendHistory(_ context.Context, entry *models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := *entry
	s.history[entry.TrackerID] = append([]*models.HistoryEntry{&e}, s.history[entry.TrackerID]...)
	return nil
}

// ListHistory returns the tracker's entries, newest first.
func (s *MemStore) ListHistory(_ context.Context, trackerID string) ([]*models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.history[trackerID]
	out := make([]*models.HistoryEntry, len(entries))
	for i, e := range entries {
		clone := *e
		out[i] = &clone
	}
	return out, nil
}

// CountHistory returns the number of entries for the tracker.
func (s *MemStore) CountHistory(_ context.Context, trackerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history[trackerID]), nil
}

// DeleteOldestHistory removes the single oldest entry for the tracker.
func (s *MemStore) DeleteOldestHistory(_ context.Context, trackerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.history[trackerID]
	if len(entries) == 0 {
		return nil
	}
	s.history[trackerID] = entries[:len(entries)-1]
	return nil
}

// cloneTracker copies a tracker including its coordinate pointers so
// callers never alias stored state.
func cloneTracker(t *models.Tracker) *models.Tracker {
	clone := *t
	if t.LastLat != nil {
		lat := *t.LastLat
		clone.LastLat = &lat
	}
	if t.LastLng != nil {
		lng := *t.LastLng
		clone.LastLng = &lng
	}
	return &clone
}
