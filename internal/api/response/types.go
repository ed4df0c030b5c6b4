package response

import (
	"time"

	"github.com/mcoot/greenlight/internal/model"
	"github.com/mcoot/greenlight/internal/services/game"
)

// Player represents registered contact details in API responses
type Player struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p model.Player) Player {
	return Player{
		Name:   p.Name,
		Email:  p.Email,
		Mobile: p.Mobile,
	}
}

// Registration is a stashed registration waiting for the game to start
type Registration struct {
	Player     Player `json:"player"`
	Difficulty string `json:"difficulty"`
}

// Session represents a session in API responses
type Session struct {
	ID           string        `json:"id"`
	Registration *Registration `json:"registration,omitempty"`
	Game         *Game         `json:"game,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// SessionFromModel converts a model.Session, attaching the game state when known
func SessionFromModel(s *model.Session, state *model.GameState) Session {
	resp := Session{
		ID:        string(s.ID),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Registration != nil {
		resp.Registration = &Registration{
			Player:     PlayerFromModel(s.Registration.Player),
			Difficulty: string(s.Registration.Difficulty),
		}
	}
	if state != nil {
		g := GameFromModel(*state)
		resp.Game = &g
	}
	return resp
}

// RegistrationResult is the response to a valid registration
type RegistrationResult struct {
	OK          bool              `json:"ok"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// Game represents a game snapshot
type Game struct {
	Status          string  `json:"status"`
	Player          *Player `json:"player,omitempty"`
	Difficulty      string  `json:"difficulty"`
	Score           int     `json:"score"`
	TimeLeftSeconds int     `json:"time_left_seconds"`
	Signal          string  `json:"signal"`
	Round           int     `json:"round"`
}

// GameFromModel converts a model.GameState
func GameFromModel(s model.GameState) Game {
	g := Game{
		Status:          string(s.Status),
		Difficulty:      string(s.Difficulty),
		Score:           s.Score,
		TimeLeftSeconds: s.TimeLeftSeconds,
		Signal:          string(s.Signal),
		Round:           s.Round,
	}
	if s.Player != nil {
		p := PlayerFromModel(*s.Player)
		g.Player = &p
	}
	return g
}

// RoundResult represents a finished round
type RoundResult struct {
	ID              string    `json:"id"`
	PlayerName      string    `json:"player_name"`
	Score           int       `json:"score"`
	Difficulty      string    `json:"difficulty"`
	TimeLeftSeconds int       `json:"time_left_seconds"`
	Outcome         string    `json:"outcome"`
	Reason          string    `json:"reason,omitempty"`
	CompletedAt     time.Time `json:"completed_at"`
}

// RoundResultFromModel converts a model.RoundResult
func RoundResultFromModel(r model.RoundResult) RoundResult {
	return RoundResult{
		ID:              r.ID.String(),
		PlayerName:      r.PlayerName,
		Score:           r.Score,
		Difficulty:      string(r.Difficulty),
		TimeLeftSeconds: r.TimeLeftSeconds,
		Outcome:         string(r.Outcome),
		Reason:          string(r.Reason),
		CompletedAt:     r.CompletedAt,
	}
}

// Click is the response to a click, after the engine has applied it
type Click struct {
	Applied bool         `json:"applied"`
	Ended   bool         `json:"ended"`
	Message string       `json:"message,omitempty"`
	Game    Game         `json:"game"`
	Result  *RoundResult `json:"result,omitempty"`
}

// ClickFromTransition converts the engine's transition for a click
func ClickFromTransition(t game.Transition) Click {
	c := Click{
		Applied: t.Applied,
		Ended:   t.Ended,
		Game:    GameFromModel(t.State),
	}
	if t.Result != nil {
		r := RoundResultFromModel(*t.Result)
		c.Result = &r
		c.Message = model.NotificationFor(*t.Result).Message
	}
	return c
}

// Leaderboard lists winning rounds in completion order
type Leaderboard struct {
	Entries []RoundResult `json:"entries"`
}

// LeaderboardFromModel converts leaderboard entries
func LeaderboardFromModel(entries []model.RoundResult) Leaderboard {
	resp := Leaderboard{Entries: make([]RoundResult, len(entries))}
	for i, e := range entries {
		resp.Entries[i] = RoundResultFromModel(e)
	}
	return resp
}

// Difficulty describes one difficulty level
type Difficulty struct {
	Name              string `json:"name"`
	Title             string `json:"title"`
	TargetScore       int    `json:"target_score"`
	WinningScore      int    `json:"winning_score"`
	TimeBudgetSeconds int    `json:"time_budget_seconds"`
}

// DifficultiesFromModel lists every difficulty, easiest first
func DifficultiesFromModel() []Difficulty {
	all := model.Difficulties()
	resp := make([]Difficulty, len(all))
	for i, d := range all {
		level := d.Level()
		resp[i] = Difficulty{
			Name:              string(d),
			Title:             d.Title(),
			TargetScore:       level.TargetScore,
			WinningScore:      d.WinningScore(),
			TimeBudgetSeconds: level.TimeBudgetSeconds,
		}
	}
	return resp
}

// Health is the response of the health check
type Health struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}
