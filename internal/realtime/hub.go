// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

// Package realtime implements the presence broadcast protocol: a
// room-based hub over WebSocket connections, the wire protocol, and the
// gateway that binds authenticated connections to tracker operations.
package realtime

import (
	"context"
	"sort"
	"sync"

	"github.com/beaconhq/beacon/internal/config"
	"github.com/beaconhq/beacon/internal/logging"
	"github.com/beaconhq/beacon/internal/metrics"
	"github.com/beaconhq/beacon/internal/tracker"
)

// RoomKey identifies a delivery scope inside the hub.
type RoomKey string

// RoomBroadcast is the shared room joined via the plain subscribe event.
// Members receive events for every tracker.
const RoomBroadcast RoomKey = "subscribed"

// RoomForAccessCode returns the per-tracker room keyed by normalized
// access code.
func RoomForAccessCode(code string) RoomKey {
	return RoomKey("code:" + tracker.NormalizeAccessCode(code))
}

type broadcastRequest struct {
	rooms []RoomKey
	msg   Message
}

// Hub maintains connected clients and their room memberships, and fans
// broadcasts out to room members. Attach and Detach are synchronous so a
// client is joinable the moment its first frame can arrive; only
// broadcast delivery goes through the hub loop.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]bool
	rooms       map[RoomKey]map[*Client]bool
	memberships map[*Client]map[RoomKey]bool

	broadcast chan broadcastRequest

	sendBufferSize int
}

// NewHub creates a hub with the configured queue sizes.
func NewHub(cfg *config.RealtimeConfig) *Hub {
	broadcastBuffer := cfg.BroadcastBufferSize
	if broadcastBuffer <= 0 {
		broadcastBuffer = 256
	}
	sendBuffer := cfg.SendBufferSize
	if sendBuffer <= 0 {
		sendBuffer = 64
	}

	return &Hub{
		clients:        make(map[*Client]bool),
		rooms:          make(map[RoomKey]map[*Client]bool),
		memberships:    make(map[*Client]map[RoomKey]bool),
		broadcast:      make(chan broadcastRequest, broadcastBuffer),
		sendBufferSize: sendBuffer,
	}
}

// RunWithContext drains the broadcast queue until the context is
// canceled. Designed for suture supervision: on cancellation all clients
// are closed and ctx.Err() is returned.
//
// Shutdown is checked before each delivery so cancellation wins over a
// backlogged queue.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case req := <-h.broadcast:
			h.deliver(req)
		}
	}
}

// Join adds the client to a room.
func (h *Hub) Join(c *Client, room RoomKey) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
	if h.memberships[c] == nil {
		h.memberships[c] = make(map[RoomKey]bool)
	}
	h.memberships[c][room] = true
	metrics.WSRooms.Set(float64(len(h.rooms)))
}

// Leave removes the client from a room.
func (h *Hub) Leave(c *Client, room RoomKey) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
	metrics.WSRooms.Set(float64(len(h.rooms)))
}

func (h *Hub) leaveLocked(c *Client, room RoomKey) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.memberships[c]; ok {
		delete(rooms, room)
	}
}

// Broadcast queues a message for every member of the given rooms. Delivery
// is fire-and-forget relative to the caller; if the hub's queue is full the
// message is dropped and logged rather than blocking the sender.
func (h *Hub) Broadcast(msg Message, rooms ...RoomKey) {
	select {
	case h.broadcast <- broadcastRequest{rooms: rooms, msg: msg}:
	default:
		metrics.WSBroadcastDrops.Inc()
		logging.Warn().Str("event", msg.Event).Msg("broadcast queue full, message dropped")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of rooms with at least one member.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// Attach adds the client to the hub. Once Attach returns the client can
// join rooms and receive broadcasts, so it must be called before the
// client's pumps start reading frames.
func (h *Hub) Attach(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("realtime client connected")
}

// Detach removes the client from the hub and every room and closes its
// send queue. Detaching an unknown client is a no-op.
func (h *Hub) Detach(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		h.dropClientLocked(c)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("realtime client disconnected")
}

// dropClientLocked removes the client from every room and closes its send
// queue. Caller holds h.mu and has verified membership in h.clients.
func (h *Hub) dropClientLocked(c *Client) {
	for room := range h.memberships[c] {
		h.leaveLocked(c, room)
	}
	delete(h.memberships, c)
	delete(h.clients, c)
	c.closeSend()
	metrics.WSRooms.Set(float64(len(h.rooms)))
}

// deliver sends the message to the union of the rooms' members, at most
// once per client. Iteration is sorted by client id so delivery order is
// deterministic. Clients with full send queues are dropped as slow
// consumers.
func (h *Hub) deliver(req broadcastRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[*Client]bool)
	var targets []*Client
	for _, room := range req.rooms {
		for c := range h.rooms[room] {
			if !seen[c] {
				seen[c] = true
				targets = append(targets, c)
			}
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })

	for _, c := range targets {
		select {
		case c.send <- req.msg:
			metrics.WSMessagesSent.Inc()
		default:
			metrics.WSBroadcastDrops.Inc()
			logging.Warn().Uint64("client_id", c.id).Msg("send queue full, dropping slow consumer")
			h.dropClientLocked(c)
		}
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	count := len(h.clients)
	for c := range h.clients {
		h.dropClientLocked(c)
	}
	h.mu.Unlock()

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	metrics.WSConnections.Set(0)
	logging.Info().
		Str("component", "realtime-hub").
		Str("reason", reason).
		Int("clients_closed", count).
		Msg("realtime hub stopped")
}
