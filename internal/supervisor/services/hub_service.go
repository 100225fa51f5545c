// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package services

import (
	"context"
)

// ContextHub matches *realtime.Hub's RunWithContext method. Declared
// here so this package does not import realtime.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService wraps the broadcast hub as a supervised service. The hub's
// RunWithContext already follows the suture.Service pattern, so this
// only delegates and names the service.
type HubService struct {
	hub ContextHub
}

// NewHubService wraps a hub as a supervised service.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{hub: hub}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String identifies the service in supervision logs.
func (s *HubService) String() string {
	return "broadcast-hub"
}
