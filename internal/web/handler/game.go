package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/greenlight/internal/model"
	"github.com/mcoot/greenlight/internal/services/leaderboard"
	"github.com/mcoot/greenlight/internal/services/session"
	"github.com/mcoot/greenlight/internal/web/middleware"
	"github.com/mcoot/greenlight/internal/web/sse"
	"github.com/mcoot/greenlight/internal/web/templates/components"
	"github.com/mcoot/greenlight/internal/web/templates/layout"
	"github.com/mcoot/greenlight/internal/web/templates/pages"
)

// GameHandler handles the game page and its actions
type GameHandler struct {
	sessions    *session.Controller
	leaderboard *leaderboard.Service
	broadcaster *sse.Broadcaster
	logger      *slog.Logger
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(sessions *session.Controller, leaderboard *leaderboard.Service, broadcaster *sse.Broadcaster, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		sessions:    sessions,
		leaderboard: leaderboard,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Play registers the player from the form and starts a round.
// A new session is created for browsers that do not have one yet.
func (h *GameHandler) Play(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, middleware.FlashError, "Invalid form data")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	form := components.FormData{
		Name:         r.FormValue(model.FieldName),
		Email:        r.FormValue(model.FieldEmail),
		Mobile:       r.FormValue(model.FieldMobile),
		Difficulty:   r.FormValue(model.FieldDifficulty),
		Difficulties: model.Difficulties(),
	}

	sess := middleware.GetSession(r.Context())
	if sess == nil {
		created, err := h.sessions.CreateSession(r.Context())
		if err != nil {
			h.logger.Error("failed to create session", slog.Any("error", err))
			middleware.SetFlash(w, middleware.FlashError, "Could not create a game session")
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		sess = created
		middleware.SetSessionCookie(w, sess.ID)
	}

	result, err := h.sessions.SubmitRegistration(r.Context(), sess.ID, session.RegistrationInput{
		Name:       form.Name,
		Email:      form.Email,
		Mobile:     form.Mobile,
		Difficulty: form.Difficulty,
	})
	if err != nil {
		h.logger.Error("failed to submit registration", slog.String("session", string(sess.ID)), slog.Any("error", err))
		middleware.SetFlash(w, middleware.FlashError, "Could not save registration")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if !result.OK {
		form.Errors = result.FieldErrors
		flash := &layout.FlashMessage{Type: middleware.FlashError, Message: model.StartRejectedMessage}
		renderHome(w, r, h.leaderboard, h.logger, http.StatusUnprocessableEntity, flash, form)
		return
	}

	if _, err := h.sessions.StartGame(r.Context(), sess.ID); err != nil {
		switch {
		case errors.Is(err, model.ErrGameInProgress):
			middleware.SetFlash(w, middleware.FlashInfo, "A game is already in progress")
		default:
			h.logger.Error("failed to start game", slog.String("session", string(sess.ID)), slog.Any("error", err))
			middleware.SetFlash(w, middleware.FlashError, "Could not start the game")
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	http.Redirect(w, r, "/play", http.StatusSeeOther)
}

// View renders the game page for the browser's session
func (h *GameHandler) View(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if sess == nil {
		middleware.SetFlash(w, middleware.FlashInfo, "Register to start a game")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	state, err := h.sessions.State(sess.ID)
	if err != nil {
		middleware.SetFlash(w, middleware.FlashError, "Game session has ended")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	entries, err := h.leaderboard.Entries(r.Context())
	if err != nil {
		h.logger.Error("failed to load leaderboard", slog.Any("error", err))
	}

	data := pages.PlayData{
		PageData: layout.PageData{
			Title: "Play",
			Flash: middleware.GetFlash(r.Context()),
		},
		SessionID:   sess.ID,
		State:       state,
		Leaderboard: entries,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.Play(data).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render play page", slog.Any("error", err))
	}
}

// Click forwards a click on the game box. The result arrives over the event stream.
func (h *GameHandler) Click(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if sess == nil {
		w.Header().Set("HX-Redirect", "/")
		http.Error(w, "No game session", http.StatusUnauthorized)
		return
	}

	if err := h.sessions.Click(sess.ID); err != nil {
		w.Header().Set("HX-Redirect", "/")
		http.Error(w, "Game session has ended", http.StatusGone)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Events streams the session's game updates to the page
func (h *GameHandler) Events(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if sess == nil {
		http.Error(w, "No game session", http.StatusUnauthorized)
		return
	}

	err := h.broadcaster.Serve(w, r, sess.ID, h.sessions.State)
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		http.Error(w, "Game session has ended", http.StatusGone)
	case err != nil:
		h.logger.Error("failed to open event stream",
			slog.String("session", string(sess.ID)),
			slog.Any("error", err))
		http.Error(w, "Event stream unavailable", http.StatusInternalServerError)
	}
}
