// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package realtime

import (
	"context"
	"errors"

	"github.com/goccy/go-json"

	"github.com/beaconhq/beacon/internal/logging"
	"github.com/beaconhq/beacon/internal/metrics"
	"github.com/beaconhq/beacon/internal/models"
	"github.com/beaconhq/beacon/internal/tracker"
	"github.com/beaconhq/beacon/internal/validation"
)

// Gateway dispatches inbound protocol events against the tracker registry
// and broadcasts the resulting tracker events. Every mutation resolves the
// tracker through the connection's bound identity, never through a
// client-supplied id.
type Gateway struct {
	registry *tracker.Registry
	hub      *Hub
}

// NewGateway creates a gateway on the registry and hub.
func NewGateway(registry *tracker.Registry, hub *Hub) *Gateway {
	return &Gateway{registry: registry, hub: hub}
}

// Dispatch handles one inbound envelope from the client.
func (g *Gateway) Dispatch(c *Client, env Envelope) {
	metrics.WSMessagesReceived.WithLabelValues(env.Event).Inc()
	ctx := context.Background()

	switch env.Event {
	case EventSubscribe:
		g.handleSubscribe(c)
	case EventUnsubscribe:
		g.handleUnsubscribe(c)
	case EventSubscribeAccessCode:
		g.handleSubscribeAccessCode(ctx, c, env)
	case EventUnsubscribeAccessCode:
		g.handleUnsubscribeAccessCode(ctx, c, env)
	case EventRegister:
		g.handleRegister(ctx, c, env)
	case EventUpdate:
		g.handleUpdate(ctx, c, env)
	case EventStop:
		g.handleStop(ctx, c)
	case EventRemove:
		g.handleRemove(ctx, c)
	default:
		c.Send(exceptionMessage(CodeBadRequest, "unknown event: "+env.Event))
	}
}

// HandleDisconnect stops the tracker bound to a departing connection, if
// any, and broadcasts the stop. A vanished connection must not leave a
// tracker reported online forever.
func (g *Gateway) HandleDisconnect(c *Client) {
	ctx := context.Background()

	t, err := g.registry.FindByOwner(ctx, c.identity.SubjectID)
	if err != nil || !t.IsOnline {
		return
	}

	stopped, err := g.registry.Stop(ctx, t.ID)
	if err != nil {
		if !errors.Is(err, tracker.ErrNotFound) {
			logging.Error().Err(err).Str("tracker_id", t.ID).Msg("failed to stop tracker on disconnect")
		}
		return
	}

	logging.Debug().Str("tracker_id", t.ID).Msg("tracker auto-stopped on disconnect")
	g.BroadcastTracker(EventStopped, stopped)
}

func (g *Gateway) handleSubscribe(c *Client) {
	g.hub.Join(c, RoomBroadcast)
	c.Send(ackMessage(EventSubscribe, StatusSuccess))
}

func (g *Gateway) handleUnsubscribe(c *Client) {
	g.hub.Leave(c, RoomBroadcast)
	c.Send(ackMessage(EventUnsubscribe, StatusSuccess))
}

// handleSubscribeAccessCode joins the tracker's room. An unknown code is a
// soft failure ack rather than an exception so viewers can retry typos.
func (g *Gateway) handleSubscribeAccessCode(ctx context.Context, c *Client, env Envelope) {
	payload, ok := decodePayload[AccessCodePayload](c, env)
	if !ok {
		return
	}

	t, err := g.registry.FindByAccessCode(ctx, payload.AccessCode)
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			c.Send(ackMessage(EventSubscribeAccessCode, StatusFailed))
			return
		}
		g.sendInternal(c, err, "failed to look up access code")
		return
	}

	g.hub.Join(c, RoomForAccessCode(t.AccessCode))
	c.Send(Message{Event: EventAck, Data: Ack{
		Event:       EventSubscribeAccessCode,
		Status:      StatusSuccess,
		TrackerName: t.Name,
	}})
}

// handleUnsubscribeAccessCode leaves the tracker's room. Unlike subscribe,
// an unknown code here is a NotFound exception.
func (g *Gateway) handleUnsubscribeAccessCode(ctx context.Context, c *Client, env Envelope) {
	payload, ok := decodePayload[AccessCodePayload](c, env)
	if !ok {
		return
	}

	t, err := g.registry.FindByAccessCode(ctx, payload.AccessCode)
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			c.Send(exceptionMessage(CodeNotFound, "no tracker for that access code"))
			return
		}
		g.sendInternal(c, err, "failed to look up access code")
		return
	}

	g.hub.Leave(c, RoomForAccessCode(t.AccessCode))
	c.Send(Message{Event: EventAck, Data: Ack{
		Event:       EventUnsubscribeAccessCode,
		Status:      StatusSuccess,
		TrackerName: t.Name,
	}})
}

func (g *Gateway) handleRegister(ctx context.Context, c *Client, env Envelope) {
	payload, ok := decodePayload[CoordinatePayload](c, env)
	if !ok {
		return
	}

	t, err := g.registry.Register(ctx, c.identity.SubjectID, c.identity.Name, payload.Coordinate())
	metrics.RecordTrackerOperation("register", err)
	if err != nil {
		g.sendInternal(c, err, "failed to register tracker")
		return
	}

	g.BroadcastTracker(EventRegistered, t)
}

func (g *Gateway) handleUpdate(ctx context.Context, c *Client, env Envelope) {
	payload, ok := decodePayload[CoordinatePayload](c, env)
	if !ok {
		return
	}

	bound, err := g.registry.FindByOwner(ctx, c.identity.SubjectID)
	if err != nil {
		g.sendLookupError(c, err)
		return
	}

	t, err := g.registry.UpdateLocation(ctx, bound.ID, payload.Coordinate())
	metrics.RecordTrackerOperation("update", err)
	if err != nil {
		g.sendLookupError(c, err)
		return
	}

	g.BroadcastTracker(EventUpdated, t)
}

func (g *Gateway) handleStop(ctx context.Context, c *Client) {
	bound, err := g.registry.FindByOwner(ctx, c.identity.SubjectID)
	if err != nil {
		g.sendLookupError(c, err)
		return
	}

	t, err := g.registry.Stop(ctx, bound.ID)
	metrics.RecordTrackerOperation("stop", err)
	if err != nil {
		g.sendLookupError(c, err)
		return
	}

	g.BroadcastTracker(EventStopped, t)
}

func (g *Gateway) handleRemove(ctx context.Context, c *Client) {
	// Snapshot before deletion so the removed event carries the tracker
	// as it last existed.
	bound, err := g.registry.FindByOwner(ctx, c.identity.SubjectID)
	if err != nil {
		g.sendLookupError(c, err)
		return
	}

	err = g.registry.Remove(ctx, bound.ID)
	metrics.RecordTrackerOperation("remove", err)
	if err != nil {
		g.sendLookupError(c, err)
		return
	}

	g.BroadcastTracker(EventRemoved, bound)
}

// BroadcastTracker delivers a tracker event to the union of the shared
// broadcast room and the tracker's own access-code room. Exported for the
// simulation driver, which emits events like any connection would.
func (g *Gateway) BroadcastTracker(event string, t *models.Tracker) {
	g.hub.Broadcast(Message{Event: event, Data: t},
		RoomBroadcast, RoomForAccessCode(t.AccessCode))
}

func (g *Gateway) sendLookupError(c *Client, err error) {
	if errors.Is(err, tracker.ErrNotFound) {
		c.Send(exceptionMessage(CodeNotFound, "no tracker registered for this identity"))
		return
	}
	g.sendInternal(c, err, "tracker operation failed")
}

func (g *Gateway) sendInternal(c *Client, err error, msg string) {
	logging.Error().Err(err).Msg(msg)
	c.Send(exceptionMessage(CodeInternal, msg))
}

// decodePayload unmarshals and validates the event payload, rejecting the
// message before any registry mutation on failure.
func decodePayload[T any](c *Client, env Envelope) (T, bool) {
	var payload T
	if len(env.Data) == 0 {
		c.Send(exceptionMessage(CodeValidation, "missing payload for "+env.Event))
		return payload, false
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		c.Send(exceptionMessage(CodeValidation, "malformed payload for "+env.Event))
		return payload, false
	}
	if verr := validation.ValidateStruct(payload); verr != nil {
		apiErr := verr.ToAPIError()
		c.Send(Message{Event: EventException, Data: Exception{
			Status:  StatusError,
			Code:    CodeValidation,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}})
		return payload, false
	}
	return payload, true
}
