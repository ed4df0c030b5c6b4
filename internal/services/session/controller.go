package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/greenlight/internal/dependencies/clock"
	"github.com/mcoot/greenlight/internal/dependencies/random"
	"github.com/mcoot/greenlight/internal/model"
	"github.com/mcoot/greenlight/internal/services/game"
	"github.com/mcoot/greenlight/internal/services/validation"
	"github.com/mcoot/greenlight/internal/storage"
)

const (
	// CodeLength is the length of generated session codes
	CodeLength = 6
	// CodeAlphabet is the characters used in session codes (avoid confusing chars)
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// UnknownDifficultyMessage is the field error for a difficulty outside the table
const UnknownDifficultyMessage = "Choose easy, medium or hard."

// RegistrationInput is raw registration form input
type RegistrationInput struct {
	Name       string
	Email      string
	Mobile     string
	Difficulty string // empty selects easy
}

// RegistrationResult reports whether a registration was accepted
type RegistrationResult struct {
	OK          bool
	FieldErrors model.FieldErrors
}

type sessionEngine struct {
	engine     *game.Engine
	cancel     context.CancelFunc
	lastActive time.Time
}

// Controller manages sessions, each owning one game engine
type Controller struct {
	storage  storage.Storage
	recorder game.Recorder
	clock    clock.Clock
	random   random.Random
	cfg      game.Config
	logger   *slog.Logger

	rootCtx context.Context
	stop    context.CancelFunc

	mu        sync.RWMutex
	engines   map[model.SessionID]*sessionEngine
	listeners []game.Listener
}

// Ensure Controller can be handed to engines as their listener
var _ game.Listener = (*Controller)(nil)

// NewController creates a new session Controller
func NewController(
	storage storage.Storage,
	recorder game.Recorder,
	clock clock.Clock,
	random random.Random,
	cfg game.Config,
	logger *slog.Logger,
) *Controller {
	rootCtx, stop := context.WithCancel(context.Background())
	return &Controller{
		storage:  storage,
		recorder: recorder,
		clock:    clock,
		random:   random,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "session-controller")),
		rootCtx:  rootCtx,
		stop:     stop,
		engines:  make(map[model.SessionID]*sessionEngine),
	}
}

// AddListener registers a listener for the events of every session
func (c *Controller) AddListener(l game.Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// CreateSession creates a session and starts its engine
func (c *Controller) CreateSession(ctx context.Context) (*model.Session, error) {
	if c.rootCtx.Err() != nil {
		return nil, model.ErrEngineStopped
	}

	now := c.clock.Now()

	// Generate unique session code
	var id model.SessionID
	for {
		id = model.SessionID(c.random.String(CodeLength, CodeAlphabet))
		exists, err := c.storage.SessionExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
	}

	session := &model.Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	engineCtx, cancel := context.WithCancel(c.rootCtx)
	engine := game.NewEngine(id, c.clock, c.recorder, c, c.cfg, c.logger)

	c.mu.Lock()
	c.engines[id] = &sessionEngine{engine: engine, cancel: cancel, lastActive: now}
	c.mu.Unlock()

	go func() {
		if err := engine.Run(engineCtx); err != nil {
			c.logger.Error("game engine failed",
				slog.String("session", string(id)),
				slog.Any("error", err))
		}
	}()

	c.logger.Info("session created", slog.String("session", string(id)))
	return session, nil
}

// GetSession retrieves a session by id. A session that has expired from
// storage loses its engine.
func (c *Controller) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	session, err := c.storage.GetSession(ctx, id)
	if errors.Is(err, model.ErrSessionNotFound) {
		c.remove(id)
	}
	return session, err
}

// SubmitRegistration validates the input and stashes it for the next StartGame.
// Rejected input clears any earlier registration. The game is not started.
func (c *Controller) SubmitRegistration(ctx context.Context, id model.SessionID, in RegistrationInput) (RegistrationResult, error) {
	if _, err := c.engine(id); err != nil {
		return RegistrationResult{}, err
	}
	session, err := c.GetSession(ctx, id)
	if err != nil {
		return RegistrationResult{}, err
	}

	player := model.Player{
		Name:   in.Name,
		Email:  in.Email,
		Mobile: in.Mobile,
	}

	fields := validation.ValidateRegistration(player)

	difficulty := model.DifficultyEasy
	if strings.TrimSpace(in.Difficulty) != "" {
		difficulty, err = model.ParseDifficulty(in.Difficulty)
		if err != nil {
			if fields == nil {
				fields = model.FieldErrors{}
			}
			fields[model.FieldDifficulty] = UnknownDifficultyMessage
		}
	}

	if fields != nil {
		session.Registration = nil
	} else {
		session.Registration = &model.Registration{Player: player, Difficulty: difficulty}
	}
	session.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return RegistrationResult{}, err
	}

	return RegistrationResult{OK: fields == nil, FieldErrors: fields}, nil
}

// StartGame starts a round with the session's stashed registration
func (c *Controller) StartGame(ctx context.Context, id model.SessionID) (model.GameState, error) {
	engine, err := c.engine(id)
	if err != nil {
		return model.GameState{}, err
	}

	session, err := c.GetSession(ctx, id)
	if err != nil {
		return model.GameState{}, err
	}
	if !session.Registered() {
		return engine.Snapshot(), model.ErrNotRegistered
	}

	return engine.Start(ctx, *session.Registration)
}

// Click sends a click to the session's engine without waiting
func (c *Controller) Click(id model.SessionID) error {
	engine, err := c.engine(id)
	if err != nil {
		return err
	}
	engine.Click()
	return nil
}

// ClickWait sends a click and waits for the resulting transition
func (c *Controller) ClickWait(ctx context.Context, id model.SessionID) (game.Transition, error) {
	engine, err := c.engine(id)
	if err != nil {
		return game.Transition{}, err
	}
	return engine.ClickWait(ctx)
}

// State returns a snapshot of the session's game
func (c *Controller) State(id model.SessionID) (model.GameState, error) {
	engine, err := c.engine(id)
	if err != nil {
		return model.GameState{}, err
	}
	return engine.Snapshot(), nil
}

// Closer is implemented by listeners holding per-session resources.
// SessionClosed runs once the session's engine has stopped.
type Closer interface {
	SessionClosed(id model.SessionID)
}

// CloseSession stops the session's engine and deletes the session
func (c *Controller) CloseSession(ctx context.Context, id model.SessionID) error {
	if !c.remove(id) {
		return model.ErrSessionNotFound
	}
	if err := c.storage.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	c.logger.Info("session closed", slog.String("session", string(id)))
	return nil
}

// remove stops the session's engine and tells Closer listeners. It reports
// whether the session had an engine.
func (c *Controller) remove(id model.SessionID) bool {
	c.mu.Lock()
	se, ok := c.engines[id]
	delete(c.engines, id)
	listeners := append([]game.Listener(nil), c.listeners...)
	c.mu.Unlock()

	if !ok {
		return false
	}

	se.cancel()
	<-se.engine.Done()

	for _, l := range listeners {
		if closer, ok := l.(Closer); ok {
			closer.SessionClosed(id)
		}
	}
	return true
}

// Has reports whether the session has a running engine. It does not count as activity.
func (c *Controller) Has(id model.SessionID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.engines[id]
	return ok
}

// ActiveSessions returns the number of running engines
func (c *Controller) ActiveSessions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.engines)
}

// Shutdown stops every engine and waits for them to exit
func (c *Controller) Shutdown(ctx context.Context) error {
	c.stop()

	c.mu.Lock()
	engines := c.engines
	c.engines = make(map[model.SessionID]*sessionEngine)
	c.mu.Unlock()

	for _, se := range engines {
		select {
		case <-se.engine.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.logger.Info("all sessions stopped", slog.Int("sessions", len(engines)))
	return nil
}

// StateChanged forwards engine state to the registered listeners
func (c *Controller) StateChanged(id model.SessionID, state model.GameState) {
	c.listenerSet().StateChanged(id, state)
}

// RoundEnded forwards round notifications to the registered listeners
func (c *Controller) RoundEnded(id model.SessionID, notification model.Notification) {
	c.listenerSet().RoundEnded(id, notification)
}

func (c *Controller) listenerSet() game.Listeners {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return game.Listeners(c.listeners)
}

// engine looks up the session's engine and marks the session active
func (c *Controller) engine(id model.SessionID) (*game.Engine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	se, ok := c.engines[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	se.lastActive = c.clock.Now()
	return se.engine, nil
}
