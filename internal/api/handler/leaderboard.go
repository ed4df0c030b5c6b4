package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/greenlight/internal/api/response"
	"github.com/mcoot/greenlight/internal/services/leaderboard"
)

// LeaderboardHandler serves the leaderboard and difficulty table
type LeaderboardHandler struct {
	leaderboard *leaderboard.Service
	logger      *slog.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(leaderboard *leaderboard.Service, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboard: leaderboard,
		logger:      logger,
	}
}

// List handles GET /api/v1/leaderboard
func (h *LeaderboardHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboard.Entries(r.Context())
	if err != nil {
		h.logger.Error("failed to list leaderboard", slog.Any("error", err))
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(entries))
}

// Difficulties handles GET /api/v1/difficulties
func (h *LeaderboardHandler) Difficulties(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.DifficultiesFromModel())
}
