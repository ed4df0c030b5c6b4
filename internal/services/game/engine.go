package game

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/greenlight/internal/dependencies/clock"
	"github.com/mcoot/greenlight/internal/model"
	"github.com/mcoot/greenlight/internal/services/validation"
)

// Recorder persists winning rounds
type Recorder interface {
	Record(ctx context.Context, result model.RoundResult) error
}

// Listener observes an engine. Callbacks run on the engine goroutine and must not block.
type Listener interface {
	StateChanged(id model.SessionID, state model.GameState)
	RoundEnded(id model.SessionID, notification model.Notification)
}

// Config holds engine settings
type Config struct {
	Clock     ClockConfig `yaml:"clock"`
	QueueSize int         `yaml:"queue_size"`
}

// DefaultConfig returns the default engine settings
func DefaultConfig() Config {
	return Config{
		Clock:     DefaultClockConfig(),
		QueueSize: 64,
	}
}

type command struct {
	input        Input
	registration model.Registration
	reply        chan Transition // nil for fire-and-forget
}

// Engine owns one session's game. All inputs are serialized through Run.
type Engine struct {
	id        model.SessionID
	clock     clock.Clock
	gameClock *GameClock
	recorder  Recorder
	listener  Listener
	logger    *slog.Logger

	commands chan command
	ticks    chan Tick
	done     chan struct{}

	// owned by the Run goroutine
	round      round
	generation uint64

	mu       sync.RWMutex
	snapshot model.GameState
}

// NewEngine creates an idle engine. Call Run to start processing inputs.
func NewEngine(
	id model.SessionID,
	clk clock.Clock,
	recorder Recorder,
	listener Listener,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if listener == nil {
		listener = NopListener{}
	}

	logger = logger.With(slog.String("session", string(id)))
	ticks := make(chan Tick, 2)
	initial := newRound(model.DifficultyEasy)

	return &Engine{
		id:        id,
		clock:     clk,
		gameClock: NewGameClock(clk, cfg.Clock, ticks, logger),
		recorder:  recorder,
		listener:  listener,
		logger:    logger,
		commands:  make(chan command, cfg.QueueSize),
		ticks:     ticks,
		done:      make(chan struct{}),
		round:     initial,
		snapshot:  initial.snapshot(),
	}
}

// ID returns the session the engine belongs to
func (e *Engine) ID() model.SessionID {
	return e.id
}

// Run processes commands and ticks until ctx is cancelled
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	defer e.gameClock.Stop()

	e.logger.Info("game engine started")
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("game engine stopped")
			return nil

		case cmd := <-e.commands:
			t := e.handleCommand(ctx, cmd)
			if cmd.reply != nil {
				cmd.reply <- t
			}

		case tick := <-e.ticks:
			e.handleTick(ctx, tick)
		}
	}
}

// Done is closed once Run has returned
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Start validates the registration and starts a round
func (e *Engine) Start(ctx context.Context, reg model.Registration) (model.GameState, error) {
	fields := validation.ValidateRegistration(reg.Player)
	if fields == nil && !validation.ValidateName(reg.Player.Name) {
		fields = model.FieldErrors{model.FieldName: validation.NameMessage}
	}
	if fields != nil {
		return e.Snapshot(), model.NewValidationError(model.StartRejectedMessage, fields)
	}
	if !reg.Difficulty.Valid() {
		return e.Snapshot(), model.ErrUnknownDifficulty
	}

	t, err := e.submit(ctx, command{input: InputStart, registration: reg})
	if err != nil {
		return e.Snapshot(), err
	}
	if !t.Applied {
		return t.State, model.ErrGameInProgress
	}
	return t.State, nil
}

// Click enqueues a click without waiting for it to be applied.
// The click is dropped if the engine is stopped or its queue is full.
func (e *Engine) Click() {
	select {
	case <-e.done:
		return
	default:
	}

	select {
	case e.commands <- command{input: InputClick}:
	default:
		e.logger.Warn("click dropped - engine queue full")
	}
}

// ClickWait enqueues a click and waits for the resulting transition
func (e *Engine) ClickWait(ctx context.Context) (Transition, error) {
	return e.submit(ctx, command{input: InputClick})
}

// Snapshot returns the state published after the last applied transition
func (e *Engine) Snapshot() model.GameState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot.Clone()
}

func (e *Engine) submit(ctx context.Context, cmd command) (Transition, error) {
	cmd.reply = make(chan Transition, 1)

	select {
	case e.commands <- cmd:
	case <-e.done:
		return Transition{}, model.ErrEngineStopped
	case <-ctx.Done():
		return Transition{}, ctx.Err()
	}

	select {
	case t := <-cmd.reply:
		return t, nil
	case <-e.done:
		return Transition{}, model.ErrEngineStopped
	case <-ctx.Done():
		return Transition{}, ctx.Err()
	}
}

func (e *Engine) handleCommand(ctx context.Context, cmd command) Transition {
	var t Transition
	switch cmd.input {
	case InputStart:
		t = e.round.start(cmd.registration)
		if t.Applied {
			e.generation = e.gameClock.Start(e.round.timeLeft)
			e.logger.Info("round started",
				slog.String("player", cmd.registration.Player.Name),
				slog.String("difficulty", string(cmd.registration.Difficulty)),
				slog.Int("round", e.round.number))
		}
	case InputClick:
		t = e.round.click(e.clock.Now())
		if !t.Applied {
			e.logger.Debug("click ignored - no round running")
		}
	default:
		e.logger.Error("unknown command", slog.String("input", string(cmd.input)))
		return e.round.ignored(cmd.input)
	}

	e.apply(ctx, t)
	return t
}

func (e *Engine) handleTick(ctx context.Context, tick Tick) {
	if tick.Generation != e.generation || !e.round.running() {
		e.logger.Debug("discarding stale tick",
			slog.String("kind", string(tick.Kind)),
			slog.Uint64("generation", tick.Generation))
		return
	}

	var t Transition
	switch tick.Kind {
	case TickSignal:
		t = e.round.signalTick()
	case TickCountdown:
		t = e.round.countdownTick(tick.At)
	}
	e.apply(ctx, t)
}

// apply runs the side effects of a transition
func (e *Engine) apply(ctx context.Context, t Transition) {
	if !t.Applied {
		return
	}

	if t.Ended {
		e.gameClock.Stop()
		e.generation = 0
		e.finish(ctx, *t.Result)
	}

	e.mu.Lock()
	e.snapshot = t.State.Clone()
	e.mu.Unlock()

	e.listener.StateChanged(e.id, t.State.Clone())

	if t.Ended {
		e.listener.RoundEnded(e.id, model.NotificationFor(*t.Result))
	}
}

func (e *Engine) finish(ctx context.Context, result model.RoundResult) {
	e.logger.Info("round ended",
		slog.String("outcome", string(result.Outcome)),
		slog.String("reason", string(result.Reason)),
		slog.Int("score", result.Score),
		slog.Int("time_left", result.TimeLeftSeconds))

	if !result.Won() || e.recorder == nil {
		return
	}
	if err := e.recorder.Record(ctx, result); err != nil {
		e.logger.Error("failed to record winning round",
			slog.String("round_id", result.ID.String()),
			slog.Any("error", err))
	}
}

// NopListener ignores all engine events
type NopListener struct{}

func (NopListener) StateChanged(model.SessionID, model.GameState)  {}
func (NopListener) RoundEnded(model.SessionID, model.Notification) {}

// Listeners fans events out to several listeners in order
type Listeners []Listener

func (ls Listeners) StateChanged(id model.SessionID, state model.GameState) {
	for _, l := range ls {
		l.StateChanged(id, state.Clone())
	}
}

func (ls Listeners) RoundEnded(id model.SessionID, notification model.Notification) {
	for _, l := range ls {
		l.RoundEnded(id, notification)
	}
}
