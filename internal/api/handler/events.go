package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/greenlight/internal/services/session"
	"github.com/mcoot/greenlight/internal/web/sse"
	"github.com/mcoot/greenlight/internal/web/ws"
)

// EventsHandler serves the push channels of a session
type EventsHandler struct {
	sessions    *session.Controller
	broadcaster *sse.Broadcaster
	wsManager   *ws.Manager
	logger      *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(sessions *session.Controller, broadcaster *sse.Broadcaster, wsManager *ws.Manager, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		sessions:    sessions,
		broadcaster: broadcaster,
		wsManager:   wsManager,
		logger:      logger,
	}
}

// Stream handles GET /api/v1/sessions/{id}/events as server-sent events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if err := h.broadcaster.Serve(w, r, id, h.sessions.State); err != nil {
		WriteError(w, err)
	}
}

// WebSocket handles GET /api/v1/sessions/{id}/ws
func (h *EventsHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	state, err := h.sessions.State(id)
	if err != nil {
		WriteError(w, err)
		return
	}

	// Upgrade writes its own error response
	if err := h.wsManager.Upgrade(w, r, id, state); err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.String("session", string(id)),
			slog.Any("error", err))
	}
}
