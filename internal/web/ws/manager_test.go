package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/greenlight/internal/model"
	"github.com/mcoot/greenlight/internal/testutil"
)

type fakeClicker struct {
	mu     sync.Mutex
	clicks []model.SessionID
	err    error
}

func (f *fakeClicker) Click(id model.SessionID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, id)
	return f.err
}

func (f *fakeClicker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clicks)
}

type ManagerSuite struct {
	suite.Suite
	clicker *fakeClicker
	manager *Manager
	server  *httptest.Server
	cancel  context.CancelFunc
	done    chan struct{}
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.clicker = &fakeClicker{}
	s.manager = NewManager(DefaultConfig(), s.clicker, testutil.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.manager.Start(ctx)
	}()

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := model.SessionID(strings.TrimPrefix(r.URL.Path, "/"))
		_ = s.manager.Upgrade(w, r, id, model.IdleState(model.DifficultyEasy))
	}))
}

func (s *ManagerSuite) TearDownTest() {
	s.cancel()
	<-s.done
	s.server.Close()
}

func (s *ManagerSuite) dial(id model.SessionID) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/" + string(id)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })

	// The initial state arrives once the connection is registered
	msg := s.read(conn)
	s.Require().Equal(MessageState, msg.Type)
	s.Require().NotNil(msg.State)
	s.Equal(model.GameStatusIdle, msg.State.Status)
	return conn
}

func (s *ManagerSuite) read(conn *websocket.Conn) Message {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	var msg Message
	s.Require().NoError(conn.ReadJSON(&msg))
	return msg
}

func (s *ManagerSuite) TestStateChangedReachesSessionSockets() {
	conn := s.dial("ABC123")
	s.Equal(1, s.manager.ConnectionCount("ABC123"))

	state := model.GameState{
		Status:          model.GameStatusRunning,
		Difficulty:      model.DifficultyEasy,
		Score:           4,
		TimeLeftSeconds: 29,
		Signal:          model.SignalGo,
	}
	s.manager.StateChanged("ABC123", state)

	msg := s.read(conn)
	s.Equal(MessageState, msg.Type)
	s.Require().NotNil(msg.State)
	s.Equal(state, *msg.State)
}

func (s *ManagerSuite) TestRoundEndedReachesSessionSockets() {
	conn := s.dial("ABC123")

	s.manager.RoundEnded("ABC123", model.NotificationFor(model.RoundResult{
		Outcome: model.OutcomeLoss,
		Reason:  model.LossTimeout,
	}))

	msg := s.read(conn)
	s.Equal(MessageRoundEnded, msg.Type)
	s.Require().NotNil(msg.Notification)
	s.Equal(model.LossMessage, msg.Notification.Message)
}

func (s *ManagerSuite) TestSessionsAreIsolated() {
	a := s.dial("AAAAAA")
	b := s.dial("BBBBBB")

	s.manager.StateChanged("BBBBBB", model.IdleState(model.DifficultyHard))

	msg := s.read(b)
	s.Equal(model.DifficultyHard, msg.State.Difficulty)

	s.Require().NoError(a.SetReadDeadline(time.Now().Add(100 * time.Millisecond)))
	_, _, err := a.ReadMessage()
	s.Error(err)
}

func (s *ManagerSuite) TestClickIsForwarded() {
	conn := s.dial("ABC123")

	s.Require().NoError(conn.WriteJSON(Message{Type: MessageClick}))

	s.Eventually(func() bool { return s.clicker.count() == 1 }, time.Second, 5*time.Millisecond)
	s.Equal([]model.SessionID{"ABC123"}, s.clicker.clicks)
}

func (s *ManagerSuite) TestClickErrorIsReported() {
	s.clicker.err = model.ErrEngineStopped
	conn := s.dial("ABC123")

	s.Require().NoError(conn.WriteJSON(Message{Type: MessageClick}))

	msg := s.read(conn)
	s.Equal(MessageError, msg.Type)
	s.Equal("game is not running", msg.Error)
}

func (s *ManagerSuite) TestUnknownMessageType() {
	conn := s.dial("ABC123")

	s.Require().NoError(conn.WriteJSON(Message{Type: "dance"}))

	msg := s.read(conn)
	s.Equal(MessageError, msg.Type)
	s.Contains(msg.Error, "dance")
}

func (s *ManagerSuite) TestClientCloseUnregisters() {
	conn := s.dial("ABC123")
	s.Require().NoError(conn.Close())

	s.Eventually(func() bool { return s.manager.ConnectionCount("ABC123") == 0 }, time.Second, 5*time.Millisecond)
}

func (s *ManagerSuite) TestShutdownClosesSockets() {
	conn := s.dial("ABC123")

	s.cancel()
	<-s.done

	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := conn.ReadMessage()
	s.True(websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	s.Equal(0, s.manager.ConnectionCount("ABC123"))
}

func (s *ManagerSuite) TestSessionClosedDisconnectsOnlyThatSession() {
	closed := s.dial("ABC123")
	other := s.dial("XYZ789")

	s.manager.SessionClosed("ABC123")

	s.Require().NoError(closed.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := closed.ReadMessage()
	s.True(websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	s.Equal(0, s.manager.ConnectionCount("ABC123"))
	s.Equal(1, s.manager.ConnectionCount("XYZ789"))

	s.manager.StateChanged("XYZ789", model.IdleState(model.DifficultyHard))
	s.Equal(model.DifficultyHard, s.read(other).State.Difficulty)
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no restriction", allowed: nil, origin: "http://evil.example", want: true},
		{name: "listed", allowed: []string{"http://localhost:8080"}, origin: "http://localhost:8080", want: true},
		{name: "unlisted", allowed: []string{"http://localhost:8080"}, origin: "http://evil.example", want: false},
		{name: "wildcard", allowed: []string{"*"}, origin: "http://evil.example", want: true},
		{name: "no origin header", allowed: []string{"http://localhost:8080"}, origin: "", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.AllowedOrigins = tt.allowed
			m := NewManager(cfg, &fakeClicker{}, testutil.NopLogger())

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := m.checkOrigin(r); got != tt.want {
				t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}
