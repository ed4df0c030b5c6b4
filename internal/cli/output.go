package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Session:
		o.printSession(v)
	case Game:
		o.printGame(v)
	case ClickResult:
		o.printClick(v)
	case Leaderboard:
		o.printLeaderboard(v)
	case []Difficulty:
		o.printDifficulties(v)
	case HealthResult:
		_, _ = fmt.Fprintf(o.w, "Status: %s\nActive sessions: %d\n", v.Status, v.ActiveSessions)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

// Registration response type
type Registration struct {
	Player     Player `json:"player"`
	Difficulty string `json:"difficulty"`
}

// Session response type
type Session struct {
	ID           string        `json:"id"`
	Registration *Registration `json:"registration,omitempty"`
	Game         *Game         `json:"game,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Game response type
type Game struct {
	Status          string  `json:"status"`
	Player          *Player `json:"player,omitempty"`
	Difficulty      string  `json:"difficulty"`
	Score           int     `json:"score"`
	TimeLeftSeconds int     `json:"time_left_seconds"`
	Signal          string  `json:"signal"`
	Round           int     `json:"round"`
}

// Running reports whether a round is in progress
func (g Game) Running() bool {
	return g.Status == "running"
}

// RoundResult response type
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

// Won reports whether the round was a win
func (r RoundResult) Won() bool {
	return r.Outcome == "win"
}

// ClickResult response type
type ClickResult struct {
	Applied bool         `json:"applied"`
	Ended   bool         `json:"ended"`
	Message string       `json:"message,omitempty"`
	Game    Game         `json:"game"`
	Result  *RoundResult `json:"result,omitempty"`
}

// Leaderboard response type
type Leaderboard struct {
	Entries []RoundResult `json:"entries"`
}

// Difficulty response type
type Difficulty struct {
	Name              string `json:"name"`
	Title             string `json:"title"`
	TargetScore       int    `json:"target_score"`
	WinningScore      int    `json:"winning_score"`
	TimeBudgetSeconds int    `json:"time_budget_seconds"`
}

// HealthResult response type
type HealthResult struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}

func (o *Output) printSession(s Session) {
	_, _ = fmt.Fprintf(o.w, "Session: %s\n", s.ID)
	if s.Registration != nil {
		p := s.Registration.Player
		_, _ = fmt.Fprintf(o.w, "Registered: %s <%s> %s (%s)\n", p.Name, p.Email, p.Mobile, s.Registration.Difficulty)
	} else {
		_, _ = fmt.Fprintln(o.w, "Registered: no")
	}
	if s.Game != nil {
		o.printGame(*s.Game)
	}
}

func (o *Output) printGame(g Game) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", g.Status)
	if g.Player != nil {
		_, _ = fmt.Fprintf(o.w, "Player: %s\n", g.Player.Name)
	}
	_, _ = fmt.Fprintf(o.w, "Difficulty: %s\n", g.Difficulty)
	if g.Running() {
		_, _ = fmt.Fprintf(o.w, "Score: %d\n", g.Score)
		_, _ = fmt.Fprintf(o.w, "Time left: %ds\n", g.TimeLeftSeconds)
		_, _ = fmt.Fprintf(o.w, "Signal: %s\n", strings.ToUpper(g.Signal))
	}
	_, _ = fmt.Fprintf(o.w, "Rounds played: %d\n", g.Round)
}

func (o *Output) printClick(c ClickResult) {
	switch {
	case !c.Applied:
		_, _ = fmt.Fprintln(o.w, "Click ignored: no game running")
	case c.Ended && c.Result != nil:
		_, _ = fmt.Fprintln(o.w, c.Message)
		o.printResult(*c.Result)
	default:
		_, _ = fmt.Fprintf(o.w, "Score: %d  Time left: %ds  Signal: %s\n",
			c.Game.Score, c.Game.TimeLeftSeconds, strings.ToUpper(c.Game.Signal))
	}
}

func (o *Output) printResult(r RoundResult) {
	_, _ = fmt.Fprintf(o.w, "Outcome: %s", r.Outcome)
	if r.Reason != "" {
		_, _ = fmt.Fprintf(o.w, " (%s)", r.Reason)
	}
	_, _ = fmt.Fprintf(o.w, "\nScore: %d\nTime left: %ds\n", r.Score, r.TimeLeftSeconds)
}

func (o *Output) printLeaderboard(l Leaderboard) {
	if len(l.Entries) == 0 {
		_, _ = fmt.Fprintln(o.w, "No winners yet")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tNAME\tSCORE\tDIFFICULTY\tTIME LEFT")
	for i, e := range l.Entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%ds\n", i+1, e.PlayerName, e.Score, e.Difficulty, e.TimeLeftSeconds)
	}
	_ = tw.Flush()
}

func (o *Output) printDifficulties(ds []Difficulty) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tTITLE\tTO WIN\tTIME")
	for _, d := range ds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%ds\n", d.Name, d.Title, d.WinningScore, d.TimeBudgetSeconds)
	}
	_ = tw.Flush()
}
