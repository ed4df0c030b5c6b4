package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/greenlight/internal/api/handler"
	"github.com/mcoot/greenlight/internal/api/middleware"
	"github.com/mcoot/greenlight/internal/services/leaderboard"
	"github.com/mcoot/greenlight/internal/services/session"
	"github.com/mcoot/greenlight/internal/web/sse"
	"github.com/mcoot/greenlight/internal/web/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Sessions       *session.Controller
	Leaderboard    *leaderboard.Service
	Broadcaster    *sse.Broadcaster
	WSManager      *ws.Manager
	AllowedOrigins []string // CORS origins, empty allows all
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	sessionHandler := handler.NewSessionHandler(cfg.Sessions)
	gameHandler := handler.NewGameHandler(cfg.Sessions)
	leaderboardHandler := handler.NewLeaderboardHandler(cfg.Leaderboard, cfg.Logger)
	eventsHandler := handler.NewEventsHandler(cfg.Sessions, cfg.Broadcaster, cfg.WSManager, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.Sessions)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Recovery(cfg.Logger))

	// Session routes
	api.HandleFunc("/sessions", sessionHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", sessionHandler.Close).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/registration", sessionHandler.Register).Methods(http.MethodPost)

	// Game routes
	api.HandleFunc("/sessions/{id}/game", gameHandler.Start).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/game", gameHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/click", gameHandler.Click).Methods(http.MethodPost)

	// Push channels
	api.HandleFunc("/sessions/{id}/events", eventsHandler.Stream).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/ws", eventsHandler.WebSocket).Methods(http.MethodGet)

	// Read-only tables
	api.HandleFunc("/leaderboard", leaderboardHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/difficulties", leaderboardHandler.Difficulties).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler.Check).Methods(http.MethodGet)

	// CORS wraps the router so preflight requests are answered before route matching
	return middleware.CORS(cfg.AllowedOrigins)(r)
}
