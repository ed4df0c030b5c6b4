package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// wsMessage matches the frames on the session websocket
type wsMessage struct {
	Type         string        `json:"type"`
	State        *Game         `json:"state,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	Error        string        `json:"error,omitempty"`
}

func newPlayCmd() *cobra.Command {
	var (
		req  registrationRequest
		mute bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a round in the terminal",
		Long: `Play interactively over the session websocket.

A session is created if none is known. With --name, --email and --mobile the
player is registered first; otherwise the session's existing registration is
used. Press space or enter to click while the signal is GO, r to play again
after a round ends, q or Esc to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			id, err := ensureSession()
			if err != nil {
				return err
			}

			if req.Name != "" || req.Email != "" || req.Mobile != "" {
				if err := register(id, req); err != nil {
					return err
				}
			}

			restart := func() error { return startRound(id) }
			if err := restart(); err != nil {
				return err
			}

			wsURL, err := client.WebSocketURL(sessionPath(id, "ws"))
			if err != nil {
				return err
			}
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
			if err != nil {
				return fmt.Errorf("websocket connection failed: %w", err)
			}
			defer func() { _ = conn.Close() }()

			screen, err := tcell.NewScreen()
			if err != nil {
				return err
			}
			if err := screen.Init(); err != nil {
				return err
			}
			defer screen.Fini()

			sounds := newSounds(mute)
			defer sounds.Close()

			return runPlay(ctx, screen, conn, sounds, restart)
		},
	}

	addRegistrationFlags(cmd, &req)
	cmd.Flags().BoolVar(&mute, "mute", false, "Disable win and loss tones")

	return cmd
}

func ensureSession() (string, error) {
	if cfg.SessionID != "" {
		return cfg.SessionID, nil
	}

	var s Session
	if err := client.Post("/api/v1/sessions", nil, &s); err != nil {
		return "", err
	}
	return s.ID, cfg.SaveSession(s.ID)
}

// startRound starts a game, joining one that is already running
func startRound(id string) error {
	err := client.Post(sessionPath(id, "game"), nil, nil)
	if IsAPIError(err, "GAME_IN_PROGRESS") {
		return nil
	}
	return err
}

// runPlay drives the terminal until the player quits or the socket closes
func runPlay(ctx context.Context, screen tcell.Screen, conn *websocket.Conn, sounds Sounder, restart func() error) error {
	msgCh := make(chan wsMessage, 16)
	readErr := make(chan error, 1)
	go func() {
		for {
			var m wsMessage
			if err := conn.ReadJSON(&m); err != nil {
				readErr <- err
				return
			}
			select {
			case msgCh <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	evCh := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case evCh <- ev:
			case <-quit:
				return
			}
		}
	}()

	var m playModel
	m.draw(screen)

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)

		case msg := <-msgCh:
			if n := m.apply(msg); n != nil {
				if n.Kind == "win" {
					sounds.Win()
				} else {
					sounds.Loss()
				}
			}

		case ev := <-evCh:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q'):
					return nil
				case ev.Key() == tcell.KeyEnter || (ev.Key() == tcell.KeyRune && ev.Rune() == ' '):
					if err := conn.WriteJSON(wsMessage{Type: "click"}); err != nil {
						return fmt.Errorf("connection lost: %w", err)
					}
				case ev.Key() == tcell.KeyRune && ev.Rune() == 'r' && !m.game.Running():
					m.err = ""
					if err := restart(); err != nil {
						m.err = err.Error()
					}
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		}

		m.draw(screen)
	}
}

// playModel is what the terminal shows
type playModel struct {
	game   Game
	notice *Notification
	err    string
}

// apply folds a websocket frame into the model, returning the notification
// when a round has just ended
func (m *playModel) apply(msg wsMessage) *Notification {
	switch msg.Type {
	case "state":
		if msg.State != nil {
			m.game = *msg.State
			if m.game.Running() {
				m.notice = nil
			}
		}
	case "round_ended":
		if msg.Notification != nil {
			m.notice = msg.Notification
			return msg.Notification
		}
	case "error":
		m.err = msg.Error
	}
	return nil
}

// lines is the status text shown above the target
func (m *playModel) lines() []string {
	g := m.game
	var out []string

	switch {
	case g.Running():
		out = append(out,
			fmt.Sprintf("Score: %d   Time left: %ds   Difficulty: %s", g.Score, g.TimeLeftSeconds, g.Difficulty),
			"Signal: "+strings.ToUpper(g.Signal),
		)
	case m.notice != nil:
		r := m.notice.Result
		out = append(out, m.notice.Message, fmt.Sprintf("Score: %d   Time left: %ds", r.Score, r.TimeLeftSeconds))
	default:
		out = append(out, "Waiting for the game to start")
	}

	if m.err != "" {
		out = append(out, "Error: "+m.err)
	}

	if g.Running() {
		out = append(out, "", "space/enter: click   q: quit")
	} else {
		out = append(out, "", "r: play again   q: quit")
	}
	return out
}

func (m *playModel) targetStyle() tcell.Style {
	if !m.game.Running() {
		return tcell.StyleDefault.Background(tcell.ColorGray)
	}
	if m.game.Signal == "go" {
		return tcell.StyleDefault.Background(tcell.ColorGreen)
	}
	return tcell.StyleDefault.Background(tcell.ColorRed)
}

func (m *playModel) draw(screen tcell.Screen) {
	screen.Clear()
	width, height := screen.Size()

	lines := m.lines()
	for y, line := range lines {
		drawText(screen, 2, y+1, tcell.StyleDefault, line)
	}

	// Target block fills the space below the text
	top := len(lines) + 2
	style := m.targetStyle()
	for y := top; y < height-1; y++ {
		for x := 2; x < width-2; x++ {
			screen.SetContent(x, y, ' ', nil, style)
		}
	}

	screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
