// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package simulation

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/beaconhq/beacon/internal/config"
	"github.com/beaconhq/beacon/internal/logging"
	"github.com/beaconhq/beacon/internal/models"
	"github.com/beaconhq/beacon/internal/realtime"
	"github.com/beaconhq/beacon/internal/tracker"
)

func TestMain(m *testing.M) {
	logging.SetLogger(logging.NewTestLogger(io.Discard))
	os.Exit(m.Run())
}

type recordedEvent struct {
	event   string
	tracker *models.Tracker
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) BroadcastTracker(event string, t *models.Tracker) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{event: event, tracker: t})
}

func (b *recordingBroadcaster) byEvent(event string) []*models.Tracker {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*models.Tracker
	for _, e := range b.events {
		if e.event == event {
			out = append(out, e.tracker)
		}
	}
	return out
}

func testSimConfig() config.SimulationConfig {
	return config.SimulationConfig{
		Count:    3,
		BaseLat:  -6.2,
		BaseLng:  106.8,
		Variance: 0.05,
	}
}

func newTestDriver(t *testing.T) (*Driver, *tracker.Registry, *recordingBroadcaster) {
	t.Helper()
	reg := tracker.NewRegistry(tracker.NewMemStore())
	bc := &recordingBroadcaster{}
	return NewDriver(testSimConfig(), reg, bc), reg, bc
}

func TestStartRegistersSyntheticTrackers(t *testing.T) {
	d, reg, bc := newTestDriver(t)
	ctx := t.Context()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop(ctx)

	all, err := reg.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d trackers, want 3", len(all))
	}

	for i := 1; i <= 3; i++ {
		tr, err := reg.FindByOwner(ctx, fmt.Sprintf("sim-agent-%d", i))
		if err != nil {
			t.Fatalf("FindByOwner sim-agent-%d: %v", i, err)
		}
		if want := fmt.Sprintf("Secret Agent %d", i); tr.Name != want {
			t.Errorf("tracker name = %q, want %q", tr.Name, want)
		}
		if !tr.IsOnline {
			t.Errorf("tracker %d not online after start", i)
		}
		if tr.LastLat == nil || tr.LastLng == nil {
			t.Fatalf("tracker %d has no coordinate", i)
		}
		if math.Abs(*tr.LastLat - -6.2) > 0.05 {
			t.Errorf("lat %v outside variance of base", *tr.LastLat)
		}
		if math.Abs(*tr.LastLng-106.8) > 0.05 {
			t.Errorf("lng %v outside variance of base", *tr.LastLng)
		}
	}

	if got := len(bc.byEvent(realtime.EventRegistered)); got != 3 {
		t.Errorf("broadcast %d registered events, want 3", got)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	d, reg, bc := newTestDriver(t)
	ctx := t.Context()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer d.Stop(ctx)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	all, err := reg.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d trackers after double start, want 3", len(all))
	}
	if got := len(bc.byEvent(realtime.EventRegistered)); got != 3 {
		t.Errorf("broadcast %d registered events after double start, want 3", got)
	}
}

func TestStopRemovesSyntheticTrackers(t *testing.T) {
	d, reg, bc := newTestDriver(t)
	ctx := t.Context()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	all, err := reg.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("got %d trackers after stop, want 0", len(all))
	}

	removed := bc.byEvent(realtime.EventRemoved)
	if len(removed) != 3 {
		t.Fatalf("broadcast %d removed events, want 3", len(removed))
	}
	for _, tr := range removed {
		if tr.ID == "" {
			t.Error("removed event carries empty tracker id")
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	d, _, _ := newTestDriver(t)
	ctx := t.Context()

	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop before Start: %v", err)
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestStopReturnsPromptly(t *testing.T) {
	d, _, _ := newTestDriver(t)
	ctx := t.Context()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- d.Stop(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return; agent goroutines likely stuck")
	}
}

func TestActiveAndStatus(t *testing.T) {
	d, _, _ := newTestDriver(t)
	ctx := t.Context()

	if d.Active() {
		t.Error("driver active before start")
	}
	if d.Status().IsActive {
		t.Error("status active before start")
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Active() {
		t.Error("driver not active after start")
	}
	if !d.Status().IsActive {
		t.Error("status not active after start")
	}

	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if d.Active() {
		t.Error("driver still active after stop")
	}
}

func TestRandomIntervalBounds(t *testing.T) {
	for range 100 {
		got := randomInterval(minUpdateInterval, maxUpdateInterval)
		if got < minUpdateInterval || got >= maxUpdateInterval {
			t.Fatalf("interval %v outside [%v, %v)", got, minUpdateInterval, maxUpdateInterval)
		}
	}
}
