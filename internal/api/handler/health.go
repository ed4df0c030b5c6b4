package handler

import (
	"net/http"

	"github.com/mcoot/greenlight/internal/api/response"
	"github.com/mcoot/greenlight/internal/services/session"
)

// HealthHandler reports liveness
type HealthHandler struct {
	sessions *session.Controller
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(sessions *session.Controller) *HealthHandler {
	return &HealthHandler{sessions: sessions}
}

// Check handles GET /api/v1/health
func (h *HealthHandler) Check(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status:         "ok",
		ActiveSessions: h.sessions.ActiveSessions(),
	})
}
