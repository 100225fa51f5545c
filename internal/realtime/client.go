// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/beaconhq/beacon/internal/logging"
	"github.com/beaconhq/beacon/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// clientIDCounter assigns unique ids used for deterministic broadcast
// ordering.
var clientIDCounter atomic.Uint64

// Client binds one WebSocket connection to its authenticated identity and
// pumps messages between the connection and the hub.
type Client struct {
	id       uint64
	hub      *Hub
	gateway  *Gateway
	conn     *websocket.Conn
	identity *models.Identity

	// sendMu guards send against close. The read pump keeps calling Send
	// for acks after the hub may have dropped this client, so closing the
	// queue and sending on it must never race.
	sendMu sync.Mutex
	closed bool
	send   chan Message
}

// NewClient creates a client for an authenticated connection. The caller
// must attach it to the hub before calling Start.
func NewClient(hub *Hub, gateway *Gateway, conn *websocket.Conn, identity *models.Identity) *Client {
	return &Client{
		id:       clientIDCounter.Add(1),
		hub:      hub,
		gateway:  gateway,
		conn:     conn,
		send:     make(chan Message, hub.sendBufferSize),
		identity: identity,
	}
}

// Identity returns the identity pinned at handshake time.
func (c *Client) Identity() *models.Identity {
	return c.identity
}

// Send queues a message for this client only. Returns false if the queue
// is full or already closed.
func (c *Client) Send(msg Message) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend closes the send queue exactly once. Subsequent Send calls
// return false instead of panicking.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Start begins the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump reads inbound frames and dispatches them to the gateway. Each
// message is processed to completion before the next one is read, giving
// run-to-completion semantics per connection.
func (c *Client) readPump() {
	defer func() {
		c.gateway.HandleDisconnect(c)
		c.hub.Detach(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("websocket read error")
			}
			return
		}
		c.gateway.Dispatch(c, env)
	}
}

// writePump writes queued messages and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub closed the queue.
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("websocket write error")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
