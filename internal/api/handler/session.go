package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/greenlight/internal/api/request"
	"github.com/mcoot/greenlight/internal/api/response"
	"github.com/mcoot/greenlight/internal/model"
	"github.com/mcoot/greenlight/internal/services/session"
)

// SessionHandler handles session-related endpoints
type SessionHandler struct {
	sessions *session.Controller
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Controller) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func sessionID(r *http.Request) model.SessionID {
	return model.SessionID(mux.Vars(r)["id"])
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.CreateSession(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	state, err := h.sessions.State(sess.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SessionFromModel(sess, &state))
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)

	sess, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	var state *model.GameState
	if st, err := h.sessions.State(id); err == nil {
		state = &st
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(sess, state))
}

// Close handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.CloseSession(r.Context(), sessionID(r)); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Register handles POST /api/v1/sessions/{id}/registration.
// Rejected input is reported per field with 422 and clears any earlier registration.
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegistrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.sessions.SubmitRegistration(r.Context(), sessionID(r), session.RegistrationInput{
		Name:       req.Name,
		Email:      req.Email,
		Mobile:     req.Mobile,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	if !result.OK {
		WriteError(w, model.NewValidationError(model.StartRejectedMessage, result.FieldErrors))
		return
	}

	response.JSON(w, http.StatusOK, response.RegistrationResult{OK: true})
}
