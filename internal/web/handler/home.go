package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/greenlight/internal/model"
	"github.com/mcoot/greenlight/internal/services/leaderboard"
	"github.com/mcoot/greenlight/internal/web/middleware"
	"github.com/mcoot/greenlight/internal/web/templates/components"
	"github.com/mcoot/greenlight/internal/web/templates/layout"
	"github.com/mcoot/greenlight/internal/web/templates/pages"
)

// HomeHandler handles the registration page
type HomeHandler struct {
	leaderboard *leaderboard.Service
	logger      *slog.Logger
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(leaderboard *leaderboard.Service, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{
		leaderboard: leaderboard,
		logger:      logger,
	}
}

// Home renders the registration form, prefilled from the session's last registration
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	form := components.FormData{
		Difficulty:   string(model.DifficultyEasy),
		Difficulties: model.Difficulties(),
	}
	if session := middleware.GetSession(r.Context()); session != nil && session.Registered() {
		reg := session.Registration
		form.Name = reg.Player.Name
		form.Email = reg.Player.Email
		form.Mobile = reg.Player.Mobile
		form.Difficulty = string(reg.Difficulty)
	}

	renderHome(w, r, h.leaderboard, h.logger, http.StatusOK, middleware.GetFlash(r.Context()), form)
}

// renderHome writes the home page with the given status, used both for GET / and rejected registrations
func renderHome(w http.ResponseWriter, r *http.Request, lb *leaderboard.Service, logger *slog.Logger, status int, flash *layout.FlashMessage, form components.FormData) {
	entries, err := lb.Entries(r.Context())
	if err != nil {
		logger.Error("failed to load leaderboard", slog.Any("error", err))
	}

	data := pages.HomeData{
		PageData: layout.PageData{
			Title: "Register",
			Flash: flash,
		},
		Form:        form,
		Leaderboard: entries,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.Home(data).Render(r.Context(), w); err != nil {
		logger.Error("failed to render home page", slog.Any("error", err))
	}
}
