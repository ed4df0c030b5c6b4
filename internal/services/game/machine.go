package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/greenlight/internal/model"
)

// Input identifies what drove a transition
type Input string

const (
	InputStart         Input = "start"
	InputClick         Input = "click"
	InputSignalTick    Input = "signal_tick"
	InputCountdownTick Input = "countdown_tick"
)

// Transition describes the effect of one input on a session's game
type Transition struct {
	Input   Input
	Applied bool // false when the input was ignored
	Ended   bool
	Result  *model.RoundResult // set exactly when Ended
	State   model.GameState    // state after the transition; idle once a round has ended
}

// round is the mutable game state. Only the engine goroutine touches it.
type round struct {
	status     model.GameStatus
	player     *model.Player
	difficulty model.Difficulty
	score      int
	timeLeft   int
	signal     model.SignalColor
	number     int
}

func newRound(difficulty model.Difficulty) round {
	return round{
		status:     model.GameStatusIdle,
		difficulty: difficulty,
		signal:     model.SignalStop,
	}
}

func (r *round) running() bool {
	return r.status == model.GameStatusRunning
}

func (r *round) snapshot() model.GameState {
	state := model.GameState{
		Status:          r.status,
		Difficulty:      r.difficulty,
		Score:           r.score,
		TimeLeftSeconds: r.timeLeft,
		Signal:          r.signal,
		Round:           r.number,
	}
	if r.player != nil {
		p := *r.player
		state.Player = &p
	}
	return state
}

func (r *round) ignored(input Input) Transition {
	return Transition{Input: input, State: r.snapshot()}
}

// start moves an idle game to running. The registration must already be validated.
func (r *round) start(reg model.Registration) Transition {
	if r.running() {
		return r.ignored(InputStart)
	}

	player := reg.Player
	r.status = model.GameStatusRunning
	r.player = &player
	r.difficulty = reg.Difficulty
	r.score = 0
	r.timeLeft = reg.Difficulty.Level().TimeBudgetSeconds
	r.signal = model.SignalStop
	r.number++

	return Transition{Input: InputStart, Applied: true, State: r.snapshot()}
}

// click scores on go and loses on stop. Clicks never change the signal.
func (r *round) click(now time.Time) Transition {
	if !r.running() {
		return r.ignored(InputClick)
	}

	if r.signal != model.SignalGo {
		return r.end(InputClick, model.OutcomeLoss, model.LossMisclick, now)
	}

	r.score++
	if r.score == r.difficulty.WinningScore() {
		return r.end(InputClick, model.OutcomeWin, model.LossNone, now)
	}

	return Transition{Input: InputClick, Applied: true, State: r.snapshot()}
}

func (r *round) signalTick() Transition {
	if !r.running() {
		return r.ignored(InputSignalTick)
	}
	r.signal = r.signal.Toggle()
	return Transition{Input: InputSignalTick, Applied: true, State: r.snapshot()}
}

func (r *round) countdownTick(now time.Time) Transition {
	if !r.running() || r.timeLeft <= 0 {
		return r.ignored(InputCountdownTick)
	}

	r.timeLeft--
	if r.timeLeft == 0 {
		return r.end(InputCountdownTick, model.OutcomeLoss, model.LossTimeout, now)
	}

	return Transition{Input: InputCountdownTick, Applied: true, State: r.snapshot()}
}

// end records the result of the running round and folds the game back to idle.
func (r *round) end(input Input, outcome model.Outcome, reason model.LossReason, now time.Time) Transition {
	result := &model.RoundResult{
		ID:              uuid.New(),
		Score:           r.score,
		Difficulty:      r.difficulty,
		TimeLeftSeconds: r.timeLeft,
		Outcome:         outcome,
		Reason:          reason,
		CompletedAt:     now,
	}
	if r.player != nil {
		result.PlayerName = r.player.Name
	}

	r.status = model.GameStatusIdle
	r.player = nil
	r.score = 0
	r.timeLeft = 0
	r.signal = model.SignalStop

	return Transition{
		Input:   input,
		Applied: true,
		Ended:   true,
		Result:  result,
		State:   r.snapshot(),
	}
}
