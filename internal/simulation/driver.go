// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

// Package simulation generates synthetic trackers for demos and load
// checks. The driver only ever calls the registry's public operations and
// broadcasts through the gateway, exactly like a real connection.
package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/beaconhq/beacon/internal/config"
	"github.com/beaconhq/beacon/internal/logging"
	"github.com/beaconhq/beacon/internal/metrics"
	"github.com/beaconhq/beacon/internal/models"
	"github.com/beaconhq/beacon/internal/realtime"
	"github.com/beaconhq/beacon/internal/tracker"
)

// ownerPrefix namespaces synthetic owner ids so they can never collide
// with real user ids (which are UUIDs).
const ownerPrefix = "sim-agent-"

const (
	minUpdateInterval = 2 * time.Second
	maxUpdateInterval = 7 * time.Second
	minToggleInterval = 15 * time.Second
	maxToggleInterval = 45 * time.Second
)

// Broadcaster publishes tracker events to their delivery scope.
type Broadcaster interface {
	BroadcastTracker(event string, t *models.Tracker)
}

// Driver owns the lifecycle of the synthetic tracker fleet.
type Driver struct {
	cfg         config.SimulationConfig
	registry    *tracker.Registry
	broadcaster Broadcaster

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDriver creates a driver on the registry and broadcaster.
func NewDriver(cfg config.SimulationConfig, registry *tracker.Registry, broadcaster Broadcaster) *Driver {
	return &Driver{
		cfg:         cfg,
		registry:    registry,
		broadcaster: broadcaster,
	}
}

// Start registers the synthetic trackers and begins their update loops.
// Starting an already-running simulation is a no-op.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	for i := 1; i <= d.cfg.Count; i++ {
		ownerID := fmt.Sprintf("%s%d", ownerPrefix, i)
		name := fmt.Sprintf("Secret Agent %d", i)

		t, err := d.registry.Register(ctx, ownerID, name, d.randomCoordinate())
		if err != nil {
			cancel()
			d.wg.Wait()
			return fmt.Errorf("failed to register synthetic tracker %d: %w", i, err)
		}
		d.broadcaster.BroadcastTracker(realtime.EventRegistered, t)

		d.wg.Add(1)
		go d.runAgent(runCtx, t.ID)
	}

	d.cancel = cancel
	metrics.SimulationActive.Set(1)
	logging.Info().Int("count", d.cfg.Count).Msg("simulation started")
	return nil
}

// Stop halts the update loops and removes the synthetic trackers,
// broadcasting their removal. Stopping an idle simulation is a no-op.
func (d *Driver) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel == nil {
		return nil
	}
	d.cancel()
	d.wg.Wait()
	d.cancel = nil

	for i := 1; i <= d.cfg.Count; i++ {
		ownerID := fmt.Sprintf("%s%d", ownerPrefix, i)
		t, err := d.registry.FindByOwner(ctx, ownerID)
		if err != nil {
			continue
		}
		if err := d.registry.Remove(ctx, t.ID); err != nil {
			logging.Warn().Err(err).Str("tracker_id", t.ID).Msg("failed to remove synthetic tracker")
			continue
		}
		d.broadcaster.BroadcastTracker(realtime.EventRemoved, t)
	}

	metrics.SimulationActive.Set(0)
	logging.Info().Msg("simulation stopped")
	return nil
}

// Active reports whether the simulation is running.
func (d *Driver) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancel != nil
}

// Status returns the status payload for the REST endpoint.
func (d *Driver) Status() models.SimulationStatus {
	return models.SimulationStatus{IsActive: d.Active()}
}

// runAgent moves one synthetic tracker: frequent position updates plus a
// slower random online/offline toggle.
func (d *Driver) runAgent(ctx context.Context, trackerID string) {
	defer d.wg.Done()

	move := time.NewTimer(randomInterval(minUpdateInterval, maxUpdateInterval))
	toggle := time.NewTimer(randomInterval(minToggleInterval, maxToggleInterval))
	defer move.Stop()
	defer toggle.Stop()

	online := true
	for {
		select {
		case <-ctx.Done():
			return

		case <-move.C:
			if online {
				t, err := d.registry.UpdateLocation(ctx, trackerID, d.randomCoordinate())
				if err != nil {
					logging.Warn().Err(err).Str("tracker_id", trackerID).Msg("simulation update failed")
					return
				}
				d.broadcaster.BroadcastTracker(realtime.EventUpdated, t)
			}
			move.Reset(randomInterval(minUpdateInterval, maxUpdateInterval))

		case <-toggle.C:
			if online {
				t, err := d.registry.Stop(ctx, trackerID)
				if err != nil {
					logging.Warn().Err(err).Str("tracker_id", trackerID).Msg("simulation stop failed")
					return
				}
				d.broadcaster.BroadcastTracker(realtime.EventStopped, t)
			} else {
				// Coming back online: the next position update after a
				// stop starts from a cleared coordinate, so no history
				// entry is created for the jump.
				t, err := d.registry.UpdateLocation(ctx, trackerID, d.randomCoordinate())
				if err != nil {
					logging.Warn().Err(err).Str("tracker_id", trackerID).Msg("simulation resume failed")
					return
				}
				d.broadcaster.BroadcastTracker(realtime.EventUpdated, t)
			}
			online = !online
			toggle.Reset(randomInterval(minToggleInterval, maxToggleInterval))
		}
	}
}

// randomCoordinate draws a point around the configured base, spread by
// +/- variance degrees on each axis.
func (d *Driver) randomCoordinate() models.Coordinate {
	return models.Coordinate{
		Lat: d.cfg.BaseLat + (rand.Float64()*2-1)*d.cfg.Variance,
		Lng: d.cfg.BaseLng + (rand.Float64()*2-1)*d.cfg.Variance,
	}
}

func randomInterval(min, max time.Duration) time.Duration {
	return min + rand.N(max-min)
}
