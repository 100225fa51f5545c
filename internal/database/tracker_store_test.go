// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/beaconhq/beacon/internal/models"
	"github.com/beaconhq/beacon/internal/tracker"
)

func seedTracker(id, ownerID, code string) *models.Tracker {
	t := &models.Tracker{
		ID:         id,
		OwnerID:    ownerID,
		Name:       "Tracker " + id,
		AccessCode: code,
		IsOnline:   true,
		LastSeen:   time.Now().UTC().Truncate(time.Millisecond),
	}
	t.SetCoordinate(models.Coordinate{Lat: -6.2, Lng: 106.8})
	return t
}

func TestTrackerStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewTrackerStore(newTestDB(t))

	in := seedTracker("t1", "owner-1", "AAAA-BBBB-CCCC-DDDD")
	if err := s.CreateTracker(ctx, in); err != nil {
		t.Fatalf("CreateTracker() error = %v", err)
	}

	got, err := s.GetTracker(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTracker() error = %v", err)
	}
	if got.OwnerID != in.OwnerID || got.Name != in.Name || got.AccessCode != in.AccessCode {
		t.Errorf("GetTracker() = %+v, want fields of %+v", got, in)
	}
	if !got.IsOnline {
		t.Error("GetTracker().IsOnline = false, want true")
	}
	if got.LastLat == nil || *got.LastLat != -6.2 || got.LastLng == nil || *got.LastLng != 106.8 {
		t.Errorf("GetTracker() coordinate = %v/%v, want -6.2/106.8", got.LastLat, got.LastLng)
	}
	if !got.LastSeen.Equal(in.LastSeen) {
		t.Errorf("GetTracker().LastSeen = %v, want %v", got.LastSeen, in.LastSeen)
	}

	byOwner, err := s.GetTrackerByOwner(ctx, "owner-1")
	if err != nil || byOwner.ID != "t1" {
		t.Errorf("GetTrackerByOwner() = %v, %v; want t1", byOwner, err)
	}
	byCode, err := s.GetTrackerByAccessCode(ctx, "AAAA-BBBB-CCCC-DDDD")
	if err != nil || byCode.ID != "t1" {
		t.Errorf("GetTrackerByAccessCode() = %v, %v; want t1", byCode, err)
	}
}

func TestTrackerStoreConstraints(t *testing.T) {
	ctx := context.Background()
	s := NewTrackerStore(newTestDB(t))

	if err := s.CreateTracker(ctx, seedTracker("t1", "owner-1", "AAAA-BBBB-CCCC-DDDD")); err != nil {
		t.Fatalf("CreateTracker() error = %v", err)
	}

	err := s.CreateTracker(ctx, seedTracker("t2", "owner-1", "EEEE-FFFF-GGGG-HHHH"))
	if !errors.Is(err, tracker.ErrOwnerTaken) {
		t.Errorf("CreateTracker() duplicate owner error = %v, want ErrOwnerTaken", err)
	}

	err = s.CreateTracker(ctx, seedTracker("t3", "owner-2", "AAAA-BBBB-CCCC-DDDD"))
	if !errors.Is(err, tracker.ErrAccessCodeTaken) {
		t.Errorf("CreateTracker() duplicate code error = %v, want ErrAccessCodeTaken", err)
	}
}

func TestTrackerStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewTrackerStore(newTestDB(t))

	if _, err := s.GetTracker(ctx, "missing"); !errors.Is(err, tracker.ErrNotFound) {
		t.Errorf("GetTracker() error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetTrackerByOwner(ctx, "missing"); !errors.Is(err, tracker.ErrNotFound) {
		t.Errorf("GetTrackerByOwner() error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetTrackerByAccessCode(ctx, "ZZZZ-ZZZZ-ZZZZ-ZZZZ"); !errors.Is(err, tracker.ErrNotFound) {
		t.Errorf("GetTrackerByAccessCode() error = %v, want ErrNotFound", err)
	}
	if err := s.UpdateTracker(ctx, seedTracker("missing", "o", "c")); !errors.Is(err, tracker.ErrNotFound) {
		t.Errorf("UpdateTracker() error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTracker(ctx, "missing"); !errors.Is(err, tracker.ErrNotFound) {
		t.Errorf("DeleteTracker() error = %v, want ErrNotFound", err)
	}
}

func TestTrackerStoreUpdateClearsCoordinate(t *testing.T) {
	ctx := context.Background()
	s := NewTrackerStore(newTestDB(t))

	in := seedTracker("t1", "owner-1", "AAAA-BBBB-CCCC-DDDD")
	if err := s.CreateTracker(ctx, in); err != nil {
		t.Fatalf("CreateTracker() error = %v", err)
	}

	in.IsOnline = false
	in.ClearCoordinate()
	if err := s.UpdateTracker(ctx, in); err != nil {
		t.Fatalf("UpdateTracker() error = %v", err)
	}

	got, err := s.GetTracker(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTracker() error = %v", err)
	}
	if got.IsOnline {
		t.Error("IsOnline = true after update, want false")
	}
	if got.LastLat != nil || got.LastLng != nil {
		t.Errorf("coordinate = %v/%v after clear, want nil/nil", got.LastLat, got.LastLng)
	}
}

func TestTrackerStoreDeleteCascadesHistory(t *testing.T) {
	ctx := context.Background()
	s := NewTrackerStore(newTestDB(t))

	if err := s.CreateTracker(ctx, seedTracker("t1", "owner-1", "AAAA-BBBB-CCCC-DDDD")); err != nil {
		t.Fatalf("CreateTracker() error = %v", err)
	}
	if err := s.AppendHistory(ctx, &models.HistoryEntry{
		ID: "h1", TrackerID: "t1", Lat: -6.3, Lng: 106.9, Timestamp: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("AppendHistory() error = %v", err)
	}

	if err := s.DeleteTracker(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTracker() error = %v", err)
	}

	count, err := s.CountHistory(ctx, "t1")
	if err != nil {
		t.Fatalf("CountHistory() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountHistory() after delete = %d, want 0 (cascade)", count)
	}

	// Owner and access code become reusable.
	if err := s.CreateTracker(ctx, seedTracker("t2", "owner-1", "AAAA-BBBB-CCCC-DDDD")); err != nil {
		t.Errorf("CreateTracker() after delete error = %v", err)
	}
}

func TestTrackerStoreHistoryOrderingAndEviction(t *testing.T) {
	ctx := context.Background()
	s := NewTrackerStore(newTestDB(t))

	if err := s.CreateTracker(ctx, seedTracker("t1", "owner-1", "AAAA-BBBB-CCCC-DDDD")); err != nil {
		t.Fatalf("CreateTracker() error = %v", err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := &models.HistoryEntry{
			// Zero-padded ids keep lexical order aligned with insertion
			// order, like the UUIDv7 ids used in production.
			ID:        fmt.Sprintf("h%03d", i),
			TrackerID: "t1",
			Lat:       float64(i),
			Lng:       float64(i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.AppendHistory(ctx, entry); err != nil {
			t.Fatalf("AppendHistory() [%d] error = %v", i, err)
		}
	}

	entries, err := s.ListHistory(ctx, "t1")
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("ListHistory() returned %d entries, want 5", len(entries))
	}
	if entries[0].ID != "h004" || entries[4].ID != "h000" {
		t.Errorf("ListHistory() order = %q..%q, want h004..h000", entries[0].ID, entries[4].ID)
	}

	if err := s.DeleteOldestHistory(ctx, "t1"); err != nil {
		t.Fatalf("DeleteOldestHistory() error = %v", err)
	}
	entries, _ = s.ListHistory(ctx, "t1")
	if len(entries) != 4 || entries[len(entries)-1].ID != "h001" {
		t.Errorf("after eviction oldest = %q (len %d), want h001 (len 4)",
			entries[len(entries)-1].ID, len(entries))
	}

	// Identical timestamps fall back to id order.
	sameTime := base.Add(time.Hour)
	for _, id := range []string{"s001", "s002"} {
		if err := s.AppendHistory(ctx, &models.HistoryEntry{
			ID: id, TrackerID: "t1", Timestamp: sameTime,
		}); err != nil {
			t.Fatalf("AppendHistory() error = %v", err)
		}
	}
	entries, _ = s.ListHistory(ctx, "t1")
	if entries[0].ID != "s002" || entries[1].ID != "s001" {
		t.Errorf("tie-break order = %q, %q; want s002, s001", entries[0].ID, entries[1].ID)
	}

	// Evicting with no rows is a no-op.
	if err := s.DeleteOldestHistory(ctx, "empty"); err != nil {
		t.Errorf("DeleteOldestHistory() on empty history error = %v", err)
	}
}

func TestTrackerStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewTrackerStore(newTestDB(t))

	all, err := s.ListTrackers(ctx)
	if err != nil {
		t.Fatalf("ListTrackers() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("ListTrackers() on empty store returned %d, want 0", len(all))
	}

	if err := s.CreateTracker(ctx, seedTracker("t1", "owner-1", "AAAA-BBBB-CCCC-DDDD")); err != nil {
		t.Fatalf("CreateTracker() error = %v", err)
	}
	if err := s.CreateTracker(ctx, seedTracker("t2", "owner-2", "EEEE-FFFF-GGGG-HHHH")); err != nil {
		t.Fatalf("CreateTracker() error = %v", err)
	}

	all, err = s.ListTrackers(ctx)
	if err != nil {
		t.Fatalf("ListTrackers() error = %v", err)
	}
	if len(all) != 2 || all[0].ID != "t1" || all[1].ID != "t2" {
		t.Errorf("ListTrackers() = %v, want [t1 t2]", all)
	}
}

// TestRegistryOnSQLite runs the registry's core flow against the real
// store to catch impedance mismatches the in-memory store cannot.
func TestRegistryOnSQLite(t *testing.T) {
	ctx := context.Background()
	reg := tracker.NewRegistry(NewTrackerStore(newTestDB(t)))

	tr, err := reg.Register(ctx, "owner-1", "Alice", models.Coordinate{Lat: -6.2, Lng: 106.8})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	again, err := reg.Register(ctx, "owner-1", "Other", models.Coordinate{Lat: 0, Lng: 0})
	if err != nil {
		t.Fatalf("duplicate Register() error = %v", err)
	}
	if again.ID != tr.ID || again.Name != "Alice" {
		t.Errorf("duplicate Register() = %q/%q, want existing %q/Alice", again.ID, again.Name, tr.ID)
	}

	if _, err := reg.UpdateLocation(ctx, tr.ID, models.Coordinate{Lat: -6.3, Lng: 106.9}); err != nil {
		t.Fatalf("UpdateLocation() error = %v", err)
	}
	history, err := reg.History(ctx, tr.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("History() returned %d entries, want 1", len(history))
	}

	if _, err := reg.Stop(ctx, tr.ID); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	stopped, err := reg.FindByOwner(ctx, "owner-1")
	if err != nil {
		t.Fatalf("FindByOwner() error = %v", err)
	}
	if stopped.IsOnline || stopped.Coordinate() != nil {
		t.Errorf("stopped tracker = online=%v coord=%v, want offline/nil", stopped.IsOnline, stopped.Coordinate())
	}

	if err := reg.Remove(ctx, tr.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := reg.FindByOwner(ctx, "owner-1"); !errors.Is(err, tracker.ErrNotFound) {
		t.Errorf("FindByOwner() after remove error = %v, want ErrNotFound", err)
	}
}
