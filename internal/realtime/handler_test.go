// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/beaconhq/beacon/internal/auth"
	"github.com/beaconhq/beacon/internal/config"
	"github.com/beaconhq/beacon/internal/models"
	"github.com/beaconhq/beacon/internal/tracker"
)

type handlerFixture struct {
	server *httptest.Server
	jwt    *auth.JWTManager
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	jwt, err := auth.NewJWTManager(&config.SecurityConfig{
		JWTSecret:     "test-secret-test-secret-test-secret!",
		TokenLifetime: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	hub, _ := newTestHub(t)
	gateway := NewGateway(tracker.NewRegistry(tracker.NewMemStore()), hub)
	handler := NewHandler(hub, gateway, jwt, nil)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &handlerFixture{server: server, jwt: jwt}
}

func (f *handlerFixture) wsURL() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http")
}

func (f *handlerFixture) token(t *testing.T, subject, name string) string {
	t.Helper()
	token, err := f.jwt.GenerateToken(&models.User{ID: subject, Name: name, Email: subject + "@example.com"})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return token
}

func readFrame(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() error = %v", err)
	}
	var frame struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return frame.Event, frame.Data
}

func TestHandlerRejectsUnauthenticatedHandshake(t *testing.T) {
	f := newHandlerFixture(t)

	tests := []struct {
		name   string
		url    string
		header http.Header
	}{
		{"no token", f.wsURL(), nil},
		{"invalid query token", f.wsURL() + "?token=garbage", nil},
		{"invalid bearer header", f.wsURL(), http.Header{"Authorization": []string{"Bearer garbage"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(tt.url, tt.header)
			if err == nil {
				_ = conn.Close()
				t.Fatal("Dial() succeeded, want handshake rejection")
			}
			if resp == nil || resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("handshake status = %v, want 401", resp)
			}
		})
	}
}

func TestHandlerEndToEnd(t *testing.T) {
	f := newHandlerFixture(t)

	// Viewer authenticates via query token, like a browser client that
	// cannot set headers on the WebSocket constructor.
	viewer, _, err := websocket.DefaultDialer.Dial(f.wsURL()+"?token="+f.token(t, "viewer-1", "Bob"), nil)
	if err != nil {
		t.Fatalf("viewer Dial() error = %v", err)
	}
	defer func() { _ = viewer.Close() }()

	// Owner authenticates via Authorization header.
	header := http.Header{"Authorization": []string{"Bearer " + f.token(t, "owner-1", "Alice")}}
	owner, _, err := websocket.DefaultDialer.Dial(f.wsURL(), header)
	if err != nil {
		t.Fatalf("owner Dial() error = %v", err)
	}
	defer func() { _ = owner.Close() }()

	if err := viewer.WriteJSON(Envelope{Event: EventSubscribe}); err != nil {
		t.Fatalf("WriteJSON(subscribe) error = %v", err)
	}
	event, data := readFrame(t, viewer)
	if event != EventAck {
		t.Fatalf("frame event = %q, want ack", event)
	}
	var ack Ack
	if err := json.Unmarshal(data, &ack); err != nil || ack.Status != StatusSuccess {
		t.Fatalf("ack = %s (err %v), want success", data, err)
	}

	coord, _ := json.Marshal(NewCoordinatePayload(-6.2, 106.8))
	if err := owner.WriteJSON(Envelope{Event: EventRegister, Data: coord}); err != nil {
		t.Fatalf("WriteJSON(register) error = %v", err)
	}

	event, data = readFrame(t, viewer)
	if event != EventRegistered {
		t.Fatalf("frame event = %q, want %q", event, EventRegistered)
	}
	var tr models.Tracker
	if err := json.Unmarshal(data, &tr); err != nil {
		t.Fatalf("unmarshal tracker: %v", err)
	}
	if tr.OwnerID != "owner-1" || !tr.IsOnline {
		t.Errorf("registered tracker = %+v, want online tracker for owner-1", tr)
	}

	// Owner dropping the connection auto-stops the tracker.
	_ = owner.Close()

	event, data = readFrame(t, viewer)
	if event != EventStopped {
		t.Fatalf("frame event = %q, want %q", event, EventStopped)
	}
	if err := json.Unmarshal(data, &tr); err != nil {
		t.Fatalf("unmarshal tracker: %v", err)
	}
	if tr.IsOnline {
		t.Error("tracker still online after owner disconnect")
	}
}
