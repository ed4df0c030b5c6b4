package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mcoot/greenlight/internal/dependencies/clock"
	"github.com/mcoot/greenlight/internal/dependencies/random"
	"github.com/mcoot/greenlight/internal/messaging"
	"github.com/mcoot/greenlight/internal/services/game"
	"github.com/mcoot/greenlight/internal/services/leaderboard"
	"github.com/mcoot/greenlight/internal/services/session"
	"github.com/mcoot/greenlight/internal/storage"
	"github.com/mcoot/greenlight/internal/storage/memory"
	redisstorage "github.com/mcoot/greenlight/internal/storage/redis"
	"github.com/mcoot/greenlight/internal/web/sse"
	"github.com/mcoot/greenlight/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Leaderboard *leaderboard.Service
	Sessions    *session.Controller

	// Push channels. Publisher is nil unless NATS is configured.
	HubManager  *sse.HubManager
	Broadcaster *sse.Broadcaster
	WSManager   *ws.Manager
	Publisher   *messaging.Publisher

	logger      *slog.Logger
	stopWorkers context.CancelFunc
	workersDone chan struct{}
	closeOnce   sync.Once
	closeErr    error
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// GameConfig tunes the engines (optional)
	// If nil, defaults to game.DefaultConfig()
	GameConfig *game.Config
	// WSConfig tunes websocket connections (optional)
	WSConfig ws.Config
	// NATSConfig enables publishing finished rounds when its URL is set
	NATSConfig *messaging.Config
	// SessionConfig tunes idle session reaping (optional)
	// If nil, defaults to session.DefaultConfig()
	SessionConfig *session.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	var publisher *messaging.Publisher
	if cfg.NATSConfig != nil && cfg.NATSConfig.URL != "" {
		p, err := messaging.Connect(*cfg.NATSConfig, logger)
		if err != nil {
			closeStorage(store)
			return nil, fmt.Errorf("failed to connect to nats: %w", err)
		}
		publisher = p
	}

	gameCfg := game.DefaultConfig()
	if cfg.GameConfig != nil {
		gameCfg = *cfg.GameConfig
	}

	sessionCfg := session.DefaultConfig()
	if cfg.SessionConfig != nil {
		sessionCfg = *cfg.SessionConfig
	}

	return newWithDependencies(store, clock.New(), random.New(), gameCfg, cfg.WSConfig, &sessionCfg, publisher, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing).
// A nil sessionCfg leaves idle sessions in place.
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	gameCfg game.Config,
	wsCfg ws.Config,
	sessionCfg *session.Config,
	publisher *messaging.Publisher,
	logger *slog.Logger,
) *App {
	lb := leaderboard.New(store, logger)
	sessions := session.NewController(store, lb, clk, rnd, gameCfg, logger)

	hubManager := sse.NewHubManager(logger, sessions.Has)
	broadcaster := sse.NewBroadcaster(hubManager, lb, logger)
	wsManager := ws.NewManager(wsCfg, sessions, logger)

	sessions.AddListener(broadcaster)
	sessions.AddListener(wsManager)
	if publisher != nil {
		sessions.AddListener(publisher)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		wsManager.Start(ctx)
	}()
	if sessionCfg != nil {
		workers.Add(1)
		go func() {
			defer workers.Done()
			sessions.RunReaper(ctx, *sessionCfg)
		}()
	}
	workersDone := make(chan struct{})
	go func() {
		workers.Wait()
		close(workersDone)
	}()

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Leaderboard: lb,
		Sessions:    sessions,
		HubManager:  hubManager,
		Broadcaster: broadcaster,
		WSManager:   wsManager,
		Publisher:   publisher,
		logger:      logger,
		stopWorkers: cancel,
		workersDone: workersDone,
	}
}

// Close stops every engine, disconnects push clients and releases the backends.
// Calling Close more than once returns the first result.
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		var errs []error
		if err := a.Sessions.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop sessions: %w", err))
		}

		a.stopWorkers()
		select {
		case <-a.workersDone:
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
		a.HubManager.CloseAll()
		a.Broadcaster.Wait()

		if a.Publisher != nil {
			a.Publisher.Close()
		}
		if err := closeStorage(a.Storage); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

func closeStorage(store storage.Storage) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
