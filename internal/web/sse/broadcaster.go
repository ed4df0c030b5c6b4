package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/greenlight/internal/model"
	"github.com/mcoot/greenlight/internal/web/templates/components"
)

// Event names sent to subscribers of a session stream
const (
	EventState        = "state"        // JSON model.GameState
	EventRoundEnded   = "round-ended"  // JSON model.Notification
	EventGame         = "game"         // rendered game panel
	EventNotification = "notification" // rendered notification
	EventLeaderboard  = "leaderboard"  // rendered leaderboard, sent after a win
)

const leaderboardTimeout = 2 * time.Second

// Event is a single named SSE event
type Event struct {
	Name string
	Data string
}

// LeaderboardSource lists the leaderboard for re-rendering after a win
type LeaderboardSource interface {
	Entries(ctx context.Context) ([]model.RoundResult, error)
}

// Broadcaster fans engine events out to the SSE hub of each session.
// Every change is sent twice: as JSON for API clients and as HTML fragments for the web page.
type Broadcaster struct {
	hubManager  *HubManager
	leaderboard LeaderboardSource
	logger      *slog.Logger

	refreshes sync.WaitGroup
}

// NewBroadcaster creates a new Broadcaster. leaderboard may be nil.
func NewBroadcaster(hubManager *HubManager, leaderboard LeaderboardSource, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager:  hubManager,
		leaderboard: leaderboard,
		logger:      logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// StateChanged broadcasts the new state of a session's game
func (b *Broadcaster) StateChanged(id model.SessionID, state model.GameState) {
	hub := b.hubManager.GetHub(id)
	if hub == nil {
		return
	}
	for _, ev := range b.StateEvents(state) {
		hub.BroadcastEvent(ev.Name, ev.Data)
	}
}

// RoundEnded broadcasts the end-of-round notification, and the leaderboard after a win
func (b *Broadcaster) RoundEnded(id model.SessionID, n model.Notification) {
	hub := b.hubManager.GetHub(id)
	if hub == nil {
		return
	}

	if data, err := json.Marshal(n); err != nil {
		b.logger.Error("sse failed to encode notification",
			slog.String("session", string(id)),
			slog.Any("error", err))
	} else {
		hub.BroadcastEvent(EventRoundEnded, string(data))
	}

	if html, ok := b.render(components.Notification(n)); ok {
		hub.BroadcastEvent(EventNotification, html)
	}

	if !n.Result.Won() || b.leaderboard == nil {
		return
	}
	// engine listeners must not block, so the leaderboard is loaded off the engine goroutine
	b.refreshes.Add(1)
	go func() {
		defer b.refreshes.Done()
		b.sendLeaderboard(id)
	}()
}

func (b *Broadcaster) sendLeaderboard(id model.SessionID) {
	ctx, cancel := context.WithTimeout(context.Background(), leaderboardTimeout)
	defer cancel()
	entries, err := b.leaderboard.Entries(ctx)
	if err != nil {
		b.logger.Error("sse failed to load leaderboard",
			slog.String("session", string(id)),
			slog.Any("error", err))
		return
	}

	html, ok := b.render(components.Leaderboard(entries))
	if !ok {
		return
	}
	// the session may have closed while the leaderboard loaded
	if hub := b.hubManager.GetHub(id); hub != nil {
		hub.BroadcastEvent(EventLeaderboard, html)
	}
}

// Wait blocks until pending leaderboard refreshes have finished
func (b *Broadcaster) Wait() {
	b.refreshes.Wait()
}

// Serve streams a session's events to w. The stream opens with the state
// returned by current, read once the client is subscribed.
func (b *Broadcaster) Serve(w http.ResponseWriter, r *http.Request, id model.SessionID, current func(model.SessionID) (model.GameState, error)) error {
	hub := b.hubManager.GetOrCreateHub(id)
	if hub == nil {
		return ErrSessionGone
	}
	return ServeSSE(w, r, hub, func() ([]Event, error) {
		state, err := current(id)
		if err != nil {
			return nil, err
		}
		return b.StateEvents(state), nil
	})
}

// SessionClosed disconnects the session's subscribers
func (b *Broadcaster) SessionClosed(id model.SessionID) {
	b.hubManager.RemoveHub(id)
}

// StateEvents returns the events describing state, used both for broadcasts
// and to bring a newly connected client up to date
func (b *Broadcaster) StateEvents(state model.GameState) []Event {
	events := make([]Event, 0, 2)
	if data, err := json.Marshal(state); err != nil {
		b.logger.Error("sse failed to encode state", slog.Any("error", err))
	} else {
		events = append(events, Event{Name: EventState, Data: string(data)})
	}
	if html, ok := b.render(components.GamePanel(state)); ok {
		events = append(events, Event{Name: EventGame, Data: html})
	}
	return events
}

func (b *Broadcaster) render(c templ.Component) (string, bool) {
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		b.logger.Error("sse failed to render fragment", slog.Any("error", err))
		return "", false
	}
	return buf.String(), true
}
