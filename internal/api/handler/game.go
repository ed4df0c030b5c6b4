package handler

import (
	"net/http"

	"github.com/mcoot/greenlight/internal/api/response"
	"github.com/mcoot/greenlight/internal/services/session"
)

// GameHandler handles the game of a session
type GameHandler struct {
	sessions *session.Controller
}

// NewGameHandler creates a new game handler
func NewGameHandler(sessions *session.Controller) *GameHandler {
	return &GameHandler{sessions: sessions}
}

// Start handles POST /api/v1/sessions/{id}/game
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.StartGame(r.Context(), sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GameFromModel(state))
}

// Get handles GET /api/v1/sessions/{id}/game
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.State(sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(state))
}

// Click handles POST /api/v1/sessions/{id}/click and waits for the engine to apply it.
// A click while idle is not an error: the response reports it was not applied.
func (h *GameHandler) Click(w http.ResponseWriter, r *http.Request) {
	t, err := h.sessions.ClickWait(r.Context(), sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ClickFromTransition(t))
}
