package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/greenlight/internal/dependencies/clock"
)

// TickKind identifies which of the two game timers fired
type TickKind string

const (
	TickSignal    TickKind = "signal"
	TickCountdown TickKind = "countdown"
)

// Tick is a single timer firing, stamped with the generation of the Start that produced it
type Tick struct {
	Kind       TickKind
	Generation uint64
	At         time.Time
}

// ClockConfig holds the timer periods
type ClockConfig struct {
	SignalInterval    time.Duration `yaml:"signal_interval"`
	CountdownInterval time.Duration `yaml:"countdown_interval"`
}

// DefaultClockConfig returns the standard game timings
func DefaultClockConfig() ClockConfig {
	return ClockConfig{
		SignalInterval:    2 * time.Second,
		CountdownInterval: time.Second,
	}
}

// GameClock drives the signal and countdown timers of one game.
// Ticks are delivered on the channel passed to NewGameClock.
type GameClock struct {
	clock  clock.Clock
	cfg    ClockConfig
	out    chan<- Tick
	logger *slog.Logger

	mu         sync.Mutex
	cancel     context.CancelFunc
	generation uint64
	wg         sync.WaitGroup
}

// NewGameClock creates a stopped GameClock
func NewGameClock(clk clock.Clock, cfg ClockConfig, out chan<- Tick, logger *slog.Logger) *GameClock {
	return &GameClock{
		clock:  clk,
		cfg:    cfg,
		out:    out,
		logger: logger,
	}
}

// Start begins both timers and returns the generation carried by their ticks.
// Starting a running clock restarts it under a new generation.
// The countdown timer stops by itself after initialTimeLeft ticks.
func (c *GameClock) Start(initialTimeLeft int) uint64 {
	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	gen := c.generation
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	signal := c.clock.NewTicker(c.cfg.SignalInterval)
	countdown := c.clock.NewTicker(c.cfg.CountdownInterval)

	c.wg.Add(2)
	go c.run(ctx, TickSignal, signal, 0, gen)
	go c.run(ctx, TickCountdown, countdown, initialTimeLeft, gen)

	c.logger.Debug("game clock started",
		slog.Uint64("generation", gen),
		slog.Int("time_left", initialTimeLeft))

	return gen
}

// Stop cancels both timers and waits for them to exit.
// No tick of the stopped generation is sent after Stop returns.
// Stopping a stopped clock is a no-op.
func (c *GameClock) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	gen := c.generation
	c.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	c.wg.Wait()

	c.logger.Debug("game clock stopped", slog.Uint64("generation", gen))
}

// Running reports whether the timers are active
func (c *GameClock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// run forwards ticks until cancelled. limit <= 0 means unbounded.
func (c *GameClock) run(ctx context.Context, kind TickKind, ticker clockwork.Ticker, limit int, gen uint64) {
	defer c.wg.Done()
	defer ticker.Stop()

	for fired := 0; limit <= 0 || fired < limit; fired++ {
		select {
		case <-ctx.Done():
			return
		case at := <-ticker.Chan():
			select {
			case c.out <- Tick{Kind: kind, Generation: gen, At: at}:
			case <-ctx.Done():
				return
			}
		}
	}
}
