package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/greenlight/internal/model"
	"github.com/mcoot/greenlight/internal/testutil"
)

type fakeLeaderboard struct {
	entries []model.RoundResult
	err     error
	release chan struct{} // when set, Entries blocks until it is closed
}

func (f *fakeLeaderboard) Entries(ctx context.Context) ([]model.RoundResult, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.entries, f.err
}

func runningState() model.GameState {
	return model.GameState{
		Status:          model.GameStatusRunning,
		Player:          &model.Player{Name: "Jessica"},
		Difficulty:      model.DifficultyEasy,
		Score:           3,
		TimeLeftSeconds: 31,
		Signal:          model.SignalGo,
		Round:           1,
	}
}

func subscribe(t *testing.T, manager *HubManager, id model.SessionID) *Client {
	t.Helper()
	c := NewClient()
	require.True(t, manager.GetOrCreateHub(id).Register(c))
	return c
}

// parse splits a formatted message into its event name and joined data
func parse(msg string) (string, string) {
	var name string
	var data []string
	for _, line := range strings.Split(strings.TrimSuffix(msg, "\n\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
	return name, strings.Join(data, "\n")
}

func TestBroadcaster_StateChanged(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), nil)
	defer manager.CloseAll()
	b := NewBroadcaster(manager, nil, testutil.NopLogger())
	c := subscribe(t, manager, "ABC123")

	b.StateChanged("ABC123", runningState())

	name, data := parse(receive(t, c))
	require.Equal(t, EventState, name)
	var got model.GameState
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, runningState(), got)

	name, data = parse(receive(t, c))
	assert.Equal(t, EventGame, name)
	assert.Contains(t, data, `id="game-box"`)
	assert.Contains(t, data, `<span id="time-left">31</span>`)
}

func TestBroadcaster_NoHubIsNoop(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), nil)
	b := NewBroadcaster(manager, &fakeLeaderboard{}, testutil.NopLogger())

	b.StateChanged("NOPE00", runningState())
	b.RoundEnded("NOPE00", model.NotificationFor(model.RoundResult{Outcome: model.OutcomeWin}))

	assert.Nil(t, manager.GetHub("NOPE00"))
}

func TestBroadcaster_SessionClosedDisconnects(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), nil)
	defer manager.CloseAll()
	b := NewBroadcaster(manager, nil, testutil.NopLogger())
	c := subscribe(t, manager, "ABC123")

	b.SessionClosed("ABC123")

	select {
	case _, ok := <-c.Messages():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("client not disconnected")
	}
	assert.Nil(t, manager.GetHub("ABC123"))
}

func TestBroadcaster_RoundEndedWinSendsLeaderboard(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), nil)
	defer manager.CloseAll()
	result := model.RoundResult{
		PlayerName:      "Jessica",
		Score:           11,
		Difficulty:      model.DifficultyEasy,
		TimeLeftSeconds: 18,
		Outcome:         model.OutcomeWin,
		CompletedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	b := NewBroadcaster(manager, &fakeLeaderboard{entries: []model.RoundResult{result}}, testutil.NopLogger())
	c := subscribe(t, manager, "ABC123")

	b.RoundEnded("ABC123", model.NotificationFor(result))

	name, data := parse(receive(t, c))
	require.Equal(t, EventRoundEnded, name)
	var n model.Notification
	require.NoError(t, json.Unmarshal([]byte(data), &n))
	assert.Equal(t, model.NotificationWin, n.Kind)
	assert.Equal(t, model.WinMessage, n.Message)

	name, data = parse(receive(t, c))
	require.Equal(t, EventNotification, name)
	assert.Contains(t, data, "You win!")

	name, data = parse(receive(t, c))
	require.Equal(t, EventLeaderboard, name)
	assert.Contains(t, data, `<span class="name">Jessica</span>`)
}

func TestBroadcaster_RoundEndedDoesNotWaitForLeaderboard(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), nil)
	defer manager.CloseAll()
	result := model.RoundResult{PlayerName: "Jessica", Outcome: model.OutcomeWin, Difficulty: model.DifficultyEasy}
	lb := &fakeLeaderboard{entries: []model.RoundResult{result}, release: make(chan struct{})}
	b := NewBroadcaster(manager, lb, testutil.NopLogger())
	c := subscribe(t, manager, "ABC123")

	returned := make(chan struct{})
	go func() {
		b.RoundEnded("ABC123", model.NotificationFor(result))
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("RoundEnded waited for the leaderboard")
	}

	name, _ := parse(receive(t, c))
	assert.Equal(t, EventRoundEnded, name)
	name, _ = parse(receive(t, c))
	assert.Equal(t, EventNotification, name)

	close(lb.release)
	name, data := parse(receive(t, c))
	assert.Equal(t, EventLeaderboard, name)
	assert.Contains(t, data, "Jessica")
	b.Wait()
}

func TestBroadcaster_LeaderboardSkippedAfterSessionClosed(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), nil)
	defer manager.CloseAll()
	lb := &fakeLeaderboard{release: make(chan struct{})}
	b := NewBroadcaster(manager, lb, testutil.NopLogger())
	c := subscribe(t, manager, "ABC123")

	b.RoundEnded("ABC123", model.NotificationFor(model.RoundResult{Outcome: model.OutcomeWin}))
	b.SessionClosed("ABC123")
	close(lb.release)
	b.Wait()

	var names []string
	for msg := range c.send {
		name, _ := parse(string(msg))
		names = append(names, name)
	}
	assert.NotContains(t, names, EventLeaderboard)
	assert.Nil(t, manager.GetHub("ABC123"))
}

func TestBroadcaster_RoundEndedLossSkipsLeaderboard(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), nil)
	defer manager.CloseAll()
	b := NewBroadcaster(manager, &fakeLeaderboard{}, testutil.NopLogger())
	c := subscribe(t, manager, "ABC123")

	b.RoundEnded("ABC123", model.NotificationFor(model.RoundResult{
		Outcome: model.OutcomeLoss,
		Reason:  model.LossMisclick,
	}))

	name, _ := parse(receive(t, c))
	assert.Equal(t, EventRoundEnded, name)
	name, data := parse(receive(t, c))
	assert.Equal(t, EventNotification, name)
	assert.Contains(t, data, "Game Over!")

	select {
	case msg := <-c.send:
		t.Fatalf("unexpected message %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcaster_LeaderboardErrorIsLogged(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), nil)
	defer manager.CloseAll()
	b := NewBroadcaster(manager, &fakeLeaderboard{err: errors.New("down")}, testutil.NopLogger())
	c := subscribe(t, manager, "ABC123")

	b.RoundEnded("ABC123", model.NotificationFor(model.RoundResult{Outcome: model.OutcomeWin}))

	receive(t, c)
	receive(t, c)
	select {
	case msg := <-c.send:
		t.Fatalf("unexpected message %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcaster_StateEventsForIdle(t *testing.T) {
	b := NewBroadcaster(NewHubManager(testutil.NopLogger(), nil), nil, testutil.NopLogger())

	events := b.StateEvents(model.IdleState(model.DifficultyHard))

	require.Len(t, events, 2)
	assert.Equal(t, EventState, events[0].Name)
	assert.Contains(t, events[0].Data, `"status":"idle"`)
	assert.Equal(t, EventGame, events[1].Name)
	assert.Contains(t, events[1].Data, "Play again")
}

// readStream reads the first n events of an SSE response body
func readStream(t *testing.T, body io.Reader, n int) []Event {
	t.Helper()
	scanner := bufio.NewScanner(body)
	var events []Event
	var current Event
	for len(events) < n && scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if current.Name != "" {
				events = append(events, current)
			}
			current = Event{}
		case strings.HasPrefix(line, "event: "):
			current.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if current.Data != "" {
				current.Data += "\n"
			}
			current.Data += strings.TrimPrefix(line, "data: ")
		}
	}
	require.Len(t, events, n)
	return events
}

func TestBroadcaster_ServeDeliversChangeDuringSnapshot(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), nil)
	defer manager.CloseAll()
	b := NewBroadcaster(manager, nil, testutil.NopLogger())

	current := func(id model.SessionID) (model.GameState, error) {
		// a round starts after the client subscribed but before the state is read
		b.StateChanged(id, runningState())
		return model.IdleState(model.DifficultyEasy), nil
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, b.Serve(w, r, "ABC123", current))
	}))
	defer srv.Close()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readStream(t, resp.Body, 5)
	assert.Equal(t, "connected", events[0].Name)
	assert.Equal(t, EventState, events[1].Name)
	assert.Contains(t, events[1].Data, `"status":"idle"`)
	assert.Equal(t, EventGame, events[2].Name)
	assert.Equal(t, EventState, events[3].Name)
	assert.Contains(t, events[3].Data, `"status":"running"`)
	assert.Equal(t, EventGame, events[4].Name)
}

func TestBroadcaster_ServeRefusesUnknownSession(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), func(model.SessionID) bool { return false })
	defer manager.CloseAll()
	b := NewBroadcaster(manager, nil, testutil.NopLogger())

	called := false
	rr := httptest.NewRecorder()
	err := b.Serve(rr, httptest.NewRequest(http.MethodGet, "/", nil), "GONE00",
		func(model.SessionID) (model.GameState, error) {
			called = true
			return model.GameState{}, nil
		})

	assert.ErrorIs(t, err, ErrSessionGone)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
	assert.False(t, called)
	assert.Nil(t, manager.GetHub("GONE00"))
	assert.Zero(t, rr.Body.Len())
}

func TestBroadcaster_ServeSessionClosedBeforeSnapshot(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), nil)
	defer manager.CloseAll()
	b := NewBroadcaster(manager, nil, testutil.NopLogger())

	rr := httptest.NewRecorder()
	err := b.Serve(rr, httptest.NewRequest(http.MethodGet, "/", nil), "ABC123",
		func(model.SessionID) (model.GameState, error) {
			return model.GameState{}, model.ErrSessionNotFound
		})

	assert.ErrorIs(t, err, model.ErrSessionNotFound)
	assert.Zero(t, rr.Body.Len())
	hub := manager.GetHub("ABC123")
	require.NotNil(t, hub)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, time.Millisecond)
}
