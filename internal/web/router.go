package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/greenlight/internal/middleware"
	"github.com/mcoot/greenlight/internal/services/leaderboard"
	"github.com/mcoot/greenlight/internal/services/session"
	"github.com/mcoot/greenlight/internal/web/handler"
	webmw "github.com/mcoot/greenlight/internal/web/middleware"
	"github.com/mcoot/greenlight/internal/web/sse"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger      *slog.Logger
	Sessions    *session.Controller
	Leaderboard *leaderboard.Service
	HubManager  *sse.HubManager
	Broadcaster *sse.Broadcaster
	StaticDir   string // Path to static files directory
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Apply global middleware to all routes; logging runs outermost so
	// recovered panics carry the request id
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(webmw.Recovery(cfg.Logger))

	hubManager := cfg.HubManager
	if hubManager == nil {
		hubManager = sse.NewHubManager(cfg.Logger, cfg.Sessions.Has)
	}
	broadcaster := cfg.Broadcaster
	if broadcaster == nil {
		broadcaster = sse.NewBroadcaster(hubManager, cfg.Leaderboard, cfg.Logger)
	}

	homeHandler := handler.NewHomeHandler(cfg.Leaderboard, cfg.Logger)
	gameHandler := handler.NewGameHandler(cfg.Sessions, cfg.Leaderboard, broadcaster, cfg.Logger)

	// Static files
	if cfg.StaticDir != "" {
		staticHandler := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.PathPrefix("/static/").Handler(staticHandler)
	}

	pages := r.NewRoute().Subrouter()
	pages.Use(webmw.Flash())
	pages.Use(webmw.Session(cfg.Sessions))

	pages.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	pages.HandleFunc("/play", gameHandler.Play).Methods(http.MethodPost)
	pages.HandleFunc("/play", gameHandler.View).Methods(http.MethodGet)
	pages.HandleFunc("/play/click", gameHandler.Click).Methods(http.MethodPost)
	pages.HandleFunc("/play/events", gameHandler.Events).Methods(http.MethodGet)

	return r
}
