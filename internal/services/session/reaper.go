package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/greenlight/internal/model"
)

// Config controls how abandoned sessions are reclaimed
type Config struct {
	// IdleTimeout is how long a session may go untouched between rounds
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	// ReapInterval is how often idle sessions are looked for
	ReapInterval time.Duration `yaml:"reap_interval"`
}

// DefaultConfig returns the default session settings
func DefaultConfig() Config {
	return Config{
		IdleTimeout:  30 * time.Minute,
		ReapInterval: time.Minute,
	}
}

// RunReaper closes idle sessions every ReapInterval until ctx is cancelled
// or the controller shuts down
func (c *Controller) RunReaper(ctx context.Context, cfg Config) {
	def := DefaultConfig()
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = def.ReapInterval
	}

	ticker := c.clock.NewTicker(cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.rootCtx.Done():
			return
		case <-ticker.Chan():
			c.ReapIdle(ctx, cfg.IdleTimeout)
		}
	}
}

// ReapIdle closes sessions idle for at least idleTimeout and drops engines
// whose session has expired from storage. A round in progress is never reaped.
// It returns the number of sessions removed.
func (c *Controller) ReapIdle(ctx context.Context, idleTimeout time.Duration) int {
	now := c.clock.Now()

	type candidate struct {
		id   model.SessionID
		idle bool
	}
	var candidates []candidate
	c.mu.RLock()
	for id, se := range c.engines {
		candidates = append(candidates, candidate{id: id, idle: now.Sub(se.lastActive) >= idleTimeout})
	}
	c.mu.RUnlock()

	reaped := 0
	for _, cand := range candidates {
		if ctx.Err() != nil {
			break
		}
		if cand.idle {
			if state, err := c.peek(cand.id); err != nil || state.Running() {
				continue
			}
			if err := c.CloseSession(ctx, cand.id); err != nil {
				c.logger.Warn("failed to close idle session",
					slog.String("session", string(cand.id)),
					slog.Any("error", err))
				continue
			}
			reaped++
			continue
		}

		exists, err := c.storage.SessionExists(ctx, cand.id)
		if err != nil {
			c.logger.Warn("failed to check session",
				slog.String("session", string(cand.id)),
				slog.Any("error", err))
			continue
		}
		if !exists && c.remove(cand.id) {
			c.logger.Info("expired session dropped", slog.String("session", string(cand.id)))
			reaped++
		}
	}

	if reaped > 0 {
		c.logger.Info("sessions reaped", slog.Int("reaped", reaped), slog.Int("active", c.ActiveSessions()))
	}
	return reaped
}

// peek snapshots a session's game without counting as activity
func (c *Controller) peek(id model.SessionID) (model.GameState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	se, ok := c.engines[id]
	if !ok {
		return model.GameState{}, model.ErrSessionNotFound
	}
	return se.engine.Snapshot(), nil
}
