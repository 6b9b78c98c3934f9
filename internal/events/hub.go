package events

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/olahol/melody"

	"budgetly/internal/logger"
)

const resourceKey = "resource"

// Hub broadcasts events to connected websocket clients. A client may connect
// with ?resource=expense or ?resource=budget to receive only that resource's
// events; without it every event is delivered.
type Hub struct {
	m *melody.Melody
}

// NewHub creates a Hub with keep-alive settings suited to proxied hosting.
func NewHub() *Hub {
	m := melody.New()
	m.Config.MaxMessageSize = 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		resource, _ := s.Get(resourceKey)
		logger.Get().Debugw("websocket client connected", "remote_addr", s.Request.RemoteAddr, "resource", resource)
	})
	m.HandleDisconnect(func(s *melody.Session) {
		logger.Get().Debugw("websocket client disconnected", "remote_addr", s.Request.RemoteAddr)
	})
	m.HandleError(func(s *melody.Session, err error) {
		logger.Get().Warnw("websocket error", "remote_addr", s.Request.RemoteAddr, "error", err)
	})

	return &Hub{m: m}
}

// HandleRequest upgrades the request to a websocket session. The resource
// filter is attached before the session registers, so no event slips past it.
func (h *Hub) HandleRequest(w http.ResponseWriter, r *http.Request) error {
	var keys map[string]any
	if resource := r.URL.Query().Get("resource"); resource != "" {
		keys = map[string]any{resourceKey: resource}
	}
	return h.m.HandleRequestWithKeys(w, r, keys)
}

// Sessions returns the number of connected clients.
func (h *Hub) Sessions() int {
	return h.m.Len()
}

// Publish implements Publisher.
func (h *Hub) Publish(_ context.Context, e Event) error {
	if h.m.IsClosed() {
		return nil
	}
	data, err := e.Encode()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	resource := e.Type.Resource()
	return h.m.BroadcastFilter(data, func(s *melody.Session) bool {
		want, ok := s.Get(resourceKey)
		return !ok || want == resource
	})
}

// Close disconnects every client.
func (h *Hub) Close() error {
	if h.m.IsClosed() {
		return nil
	}
	return h.m.Close()
}
