// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package realtime

import (
	"github.com/goccy/go-json"

	"github.com/beaconhq/beacon/internal/models"
)

// Inbound event names.
const (
	EventSubscribe             = "tracker:subscribe"
	EventUnsubscribe           = "tracker:unsubscribe"
	EventSubscribeAccessCode   = "tracker:subscribe:access_code"
	EventUnsubscribeAccessCode = "tracker:unsubscribe:access_code"
	EventRegister              = "tracker:register"
	EventUpdate                = "tracker:update"
	EventStop                  = "tracker:stop"
	EventRemove                = "tracker:remove"
)

// Outbound event names.
const (
	EventRegistered = "tracker:registered"
	EventUpdated    = "tracker:updated"
	EventStopped    = "tracker:stopped"
	EventRemoved    = "tracker:removed"
	EventAck        = "ack"
	EventException  = "exception"
)

// Ack statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusError   = "error"
)

// Protocol error codes carried in exception frames.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeBadRequest = "BAD_REQUEST"
	CodeInternal   = "INTERNAL_ERROR"
)

// Envelope is the wire frame for inbound messages. Data stays raw until
// the event-specific payload shape is known.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Message is an outbound frame.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// CoordinatePayload is the body of register and update events. The
// fields are pointers so an absent coordinate is distinguishable from a
// literal zero; both must be present to pass validation.
type CoordinatePayload struct {
	Lat *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng *float64 `json:"lng" validate:"required,min=-180,max=180"`
}

// NewCoordinatePayload builds a payload from a concrete position.
func NewCoordinatePayload(lat, lng float64) CoordinatePayload {
	return CoordinatePayload{Lat: &lat, Lng: &lng}
}

// Coordinate converts the payload to the model type. Only valid once
// validation has confirmed both fields are set.
func (p CoordinatePayload) Coordinate() models.Coordinate {
	return models.Coordinate{Lat: *p.Lat, Lng: *p.Lng}
}

// AccessCodePayload is the body of the access-code room events.
type AccessCodePayload struct {
	AccessCode string `json:"accessCode" validate:"required"`
}

// Ack acknowledges an inbound event to its sender only.
type Ack struct {
	Event       string `json:"event"`
	Status      string `json:"status"`
	TrackerName string `json:"trackerName,omitempty"`
}

// Exception is a protocol error frame, delivered to the sender only and
// never broadcast.
type Exception struct {
	Status  string                 `json:"status"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func ackMessage(event, status string) Message {
	return Message{Event: EventAck, Data: Ack{Event: event, Status: status}}
}

func exceptionMessage(code, message string) Message {
	return Message{Event: EventException, Data: Exception{
		Status:  StatusError,
		Code:    code,
		Message: message,
	}}
}
