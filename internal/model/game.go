package model

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus represents the current phase of a session's game
type GameStatus string

const (
	GameStatusIdle    GameStatus = "idle"
	GameStatusRunning GameStatus = "running"
	GameStatusEnded   GameStatus = "ended" // transient, folds back to idle
)

// SignalColor is the visual state of the click target
type SignalColor string

const (
	SignalStop SignalColor = "stop" // clicking ends the round
	SignalGo   SignalColor = "go"   // clicking scores
)

// Toggle returns the opposite signal
func (c SignalColor) Toggle() SignalColor {
	if c == SignalGo {
		return SignalStop
	}
	return SignalGo
}

// GameState is a read-only snapshot of a session's game.
// Score and TimeLeftSeconds only carry meaning while Status is running.
type GameState struct {
	Status          GameStatus  `json:"status"`
	Player          *Player     `json:"player,omitempty"`
	Difficulty      Difficulty  `json:"difficulty"`
	Score           int         `json:"score"`
	TimeLeftSeconds int         `json:"time_left_seconds"`
	Signal          SignalColor `json:"signal"`
	Round           int         `json:"round"` // number of rounds started in the session
}

// IdleState returns the state of a game that has not started
func IdleState(difficulty Difficulty) GameState {
	return GameState{
		Status:     GameStatusIdle,
		Difficulty: difficulty,
		Signal:     SignalStop,
	}
}

// Running reports whether a round is in progress
func (s GameState) Running() bool {
	return s.Status == GameStatusRunning
}

// Clone returns a copy that shares no memory with s
func (s GameState) Clone() GameState {
	if s.Player != nil {
		p := *s.Player
		s.Player = &p
	}
	return s
}

// Outcome is how a round ended
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// LossReason explains a loss
type LossReason string

const (
	LossNone     LossReason = ""
	LossTimeout  LossReason = "timeout"
	LossMisclick LossReason = "misclick"
)

// RoundResult is the record of a terminated round.
// Only winning results are appended to the leaderboard.
type RoundResult struct {
	ID              uuid.UUID  `json:"id"`
	PlayerName      string     `json:"player_name"`
	Score           int        `json:"score"`
	Difficulty      Difficulty `json:"difficulty"`
	TimeLeftSeconds int        `json:"time_left_seconds"`
	Outcome         Outcome    `json:"outcome"`
	Reason          LossReason `json:"reason,omitempty"`
	CompletedAt     time.Time  `json:"completed_at"`
}

// Won reports whether the round was a win
func (r RoundResult) Won() bool {
	return r.Outcome == OutcomeWin
}
