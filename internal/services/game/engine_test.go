package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/greenlight/internal/dependencies/mocks"
	"github.com/mcoot/greenlight/internal/model"
	"github.com/mcoot/greenlight/internal/testutil"
)

type fakeRecorder struct {
	mu      sync.Mutex
	results []model.RoundResult
	err     error
}

func (r *fakeRecorder) Record(_ context.Context, result model.RoundResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.results = append(r.results, result)
	return nil
}

func (r *fakeRecorder) Results() []model.RoundResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.RoundResult(nil), r.results...)
}

type recordingListener struct {
	mu            sync.Mutex
	states        []model.GameState
	notifications []model.Notification
}

func (l *recordingListener) StateChanged(_ model.SessionID, state model.GameState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, state)
}

func (l *recordingListener) RoundEnded(_ model.SessionID, n model.Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notifications = append(l.notifications, n)
}

func (l *recordingListener) Notifications() []model.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Notification(nil), l.notifications...)
}

func (l *recordingListener) StateCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.states)
}

type EngineSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	recorder *fakeRecorder
	listener *recordingListener
	engine   *Engine
	ctx      context.Context
	cancel   context.CancelFunc
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.recorder = &fakeRecorder{}
	s.listener = &recordingListener{}
	s.engine = NewEngine("ABC123", s.clock, s.recorder, s.listener, DefaultConfig(), testutil.NopLogger())
	s.ctx, s.cancel = context.WithCancel(context.Background())
	go func() { _ = s.engine.Run(s.ctx) }()
}

func (s *EngineSuite) TearDownTest() {
	s.cancel()
	<-s.engine.Done()
}

func (s *EngineSuite) start(difficulty model.Difficulty) model.GameState {
	state, err := s.engine.Start(s.ctx, testRegistration(difficulty))
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(s.ctx, time.Second)
	defer cancel()
	s.Require().NoError(s.clock.WaitForTickers(ctx, 2))
	return state
}

// tick advances the clock by one second and waits for the countdown to be applied
func (s *EngineSuite) tick() {
	want := s.engine.Snapshot().TimeLeftSeconds - 1
	s.clock.Advance(time.Second)
	s.Require().Eventually(func() bool {
		st := s.engine.Snapshot()
		return !st.Running() || st.TimeLeftSeconds == want
	}, time.Second, time.Millisecond)
}

// untilGo advances a freshly started round to its first go signal
func (s *EngineSuite) untilGo() {
	s.tick()
	s.tick()
	s.Require().Eventually(func() bool {
		return s.engine.Snapshot().Signal == model.SignalGo
	}, time.Second, time.Millisecond)
}

func (s *EngineSuite) click() Transition {
	t, err := s.engine.ClickWait(s.ctx)
	s.Require().NoError(err)
	return t
}

func (s *EngineSuite) TestInitialStateIsIdle() {
	state := s.engine.Snapshot()
	s.Equal(model.GameStatusIdle, state.Status)
	s.Equal(model.SignalStop, state.Signal)
	s.Equal(model.SessionID("ABC123"), s.engine.ID())
}

func (s *EngineSuite) TestStartRunsGame() {
	state := s.start(model.DifficultyEasy)

	s.Equal(model.GameStatusRunning, state.Status)
	s.Equal(40, state.TimeLeftSeconds)
	s.Equal(0, state.Score)
	s.Equal(model.SignalStop, state.Signal)
	s.Equal(state, s.engine.Snapshot())
}

func (s *EngineSuite) TestStartRejectsShortName() {
	for _, name := range []string{"", "B", "Bobby", "Åsa12"} {
		reg := testRegistration(model.DifficultyEasy)
		reg.Player.Name = name

		state, err := s.engine.Start(s.ctx, reg)

		s.Require().ErrorIs(err, model.ErrValidation, "name %q", name)
		var verr *model.ValidationError
		s.Require().ErrorAs(err, &verr)
		s.Equal(model.StartRejectedMessage, verr.Message)
		s.Contains(verr.Fields, model.FieldName)
		s.Equal(model.GameStatusIdle, state.Status)
	}
	s.Equal(model.GameStatusIdle, s.engine.Snapshot().Status)
}

func (s *EngineSuite) TestStartRejectsLongMobile() {
	reg := testRegistration(model.DifficultyEasy)
	reg.Player.Mobile = "12345678901"

	_, err := s.engine.Start(s.ctx, reg)

	var verr *model.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal(map[string]string{model.FieldMobile: "Mobile number must be 10 digits or less."}, map[string]string(verr.Fields))
	s.Equal(model.GameStatusIdle, s.engine.Snapshot().Status)
}

func (s *EngineSuite) TestStartRejectsUnknownDifficulty() {
	_, err := s.engine.Start(s.ctx, testRegistration("impossible"))
	s.ErrorIs(err, model.ErrUnknownDifficulty)
}

func (s *EngineSuite) TestStartWhileRunning() {
	s.start(model.DifficultyEasy)

	state, err := s.engine.Start(s.ctx, testRegistration(model.DifficultyHard))

	s.ErrorIs(err, model.ErrGameInProgress)
	s.Equal(model.DifficultyEasy, state.Difficulty)
	s.True(state.Running())
}

func (s *EngineSuite) TestClickWhileIdleIsNoop() {
	t := s.click()

	s.False(t.Applied)
	s.False(t.Ended)
	s.Equal(0, s.listener.StateCount())
	s.Empty(s.listener.Notifications())
}

func (s *EngineSuite) TestEasyWinScenario() {
	s.start(model.DifficultyEasy)
	s.untilGo()
	s.Equal(38, s.engine.Snapshot().TimeLeftSeconds)

	var t Transition
	for i := 1; i <= 11; i++ {
		t = s.click()
		s.Require().True(t.Applied)
		if i < 11 {
			s.Require().False(t.Ended)
			s.Equal(i, t.State.Score)
		}
	}

	s.Require().True(t.Ended)
	s.Equal(model.GameStatusIdle, s.engine.Snapshot().Status)

	results := s.recorder.Results()
	s.Require().Len(results, 1)
	s.Equal(11, results[0].Score)
	s.Equal(model.DifficultyEasy, results[0].Difficulty)
	s.Equal(38, results[0].TimeLeftSeconds)
	s.Equal("Jessica", results[0].PlayerName)

	notifications := s.listener.Notifications()
	s.Require().Len(notifications, 1)
	s.Equal(model.NotificationWin, notifications[0].Kind)
	s.Equal("You win!", notifications[0].Message)
}

func (s *EngineSuite) TestStopClickScenario() {
	s.start(model.DifficultyEasy)
	s.untilGo()
	s.click()
	s.click()

	s.tick()
	s.tick()
	s.Require().Eventually(func() bool {
		return s.engine.Snapshot().Signal == model.SignalStop
	}, time.Second, time.Millisecond)

	t := s.click()

	s.True(t.Ended)
	s.Equal(model.OutcomeLoss, t.Result.Outcome)
	s.Equal(model.LossMisclick, t.Result.Reason)
	s.Equal(2, t.Result.Score)
	s.Empty(s.recorder.Results())

	state := s.engine.Snapshot()
	s.Equal(model.GameStatusIdle, state.Status)
	s.Equal(0, state.Score)

	notifications := s.listener.Notifications()
	s.Require().Len(notifications, 1)
	s.Equal("Game Over!", notifications[0].Message)
}

func (s *EngineSuite) TestTimeoutScenario() {
	s.start(model.DifficultyEasy)
	s.untilGo()
	for i := 0; i < 3; i++ {
		s.click()
	}

	for s.engine.Snapshot().Running() {
		s.tick()
	}

	s.Empty(s.recorder.Results())
	notifications := s.listener.Notifications()
	s.Require().Len(notifications, 1)
	s.Equal(model.NotificationLoss, notifications[0].Kind)
	s.Equal(model.LossTimeout, notifications[0].Result.Reason)
	s.Equal(3, notifications[0].Result.Score)
	s.Equal(0, notifications[0].Result.TimeLeftSeconds)

	// the clock is stopped, so further time changes nothing
	ctx, cancel := context.WithTimeout(s.ctx, time.Second)
	defer cancel()
	s.Require().NoError(s.clock.WaitForTickers(ctx, 0))
	s.clock.Advance(10 * time.Second)
	s.Never(func() bool {
		return len(s.listener.Notifications()) > 1
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func (s *EngineSuite) TestCountdownDecrementsByOne() {
	s.start(model.DifficultyMedium)

	for want := 39; want >= 35; want-- {
		s.tick()
		s.Equal(want, s.engine.Snapshot().TimeLeftSeconds)
	}
}

func (s *EngineSuite) TestLeaderboardFollowsWinOrder() {
	for _, name := range []string{"Player One", "Player Two"} {
		reg := testRegistration(model.DifficultyEasy)
		reg.Player.Name = name
		_, err := s.engine.Start(s.ctx, reg)
		s.Require().NoError(err)
		s.untilGo()
		for i := 0; i < model.DifficultyEasy.WinningScore(); i++ {
			s.click()
		}
		s.Require().False(s.engine.Snapshot().Running())
	}

	results := s.recorder.Results()
	s.Require().Len(results, 2)
	s.Equal("Player One", results[0].PlayerName)
	s.Equal("Player Two", results[1].PlayerName)
}

func (s *EngineSuite) TestRecorderFailureStillEndsRound() {
	s.recorder.err = errors.New("storage down")
	s.start(model.DifficultyEasy)
	s.untilGo()

	for i := 0; i < model.DifficultyEasy.WinningScore(); i++ {
		s.click()
	}

	s.False(s.engine.Snapshot().Running())
	s.Len(s.listener.Notifications(), 1)
}

func (s *EngineSuite) TestFireAndForgetClick() {
	s.start(model.DifficultyEasy)

	s.engine.Click()

	s.Eventually(func() bool {
		return len(s.listener.Notifications()) == 1
	}, time.Second, time.Millisecond)
	s.Equal(model.LossMisclick, s.listener.Notifications()[0].Result.Reason)
}

// generation returns the generation of the game clock's most recent Start
func (s *EngineSuite) generation() uint64 {
	s.engine.gameClock.mu.Lock()
	defer s.engine.gameClock.mu.Unlock()
	return s.engine.gameClock.generation
}

// deliver queues ticks as if the game clock had sent them and waits until Run has handled them
func (s *EngineSuite) deliver(ticks ...Tick) {
	for _, tick := range ticks {
		s.engine.ticks <- tick
	}
	s.Require().Eventually(func() bool {
		return len(s.engine.ticks) == 0
	}, time.Second, time.Millisecond)

	// Run handles inputs one at a time, so a reply means the last tick has been applied
	_, err := s.engine.submit(s.ctx, command{input: "sync"})
	s.Require().NoError(err)
}

func (s *EngineSuite) TestTickFromPreviousRoundIsDiscarded() {
	s.start(model.DifficultyEasy)
	s.Require().True(s.click().Ended)
	s.start(model.DifficultyEasy)

	gen := s.generation()
	s.Require().Equal(uint64(2), gen)
	before := s.engine.Snapshot()
	states := s.listener.StateCount()

	s.deliver(
		Tick{Kind: TickCountdown, Generation: gen - 1, At: s.clock.Now()},
		Tick{Kind: TickSignal, Generation: gen - 1, At: s.clock.Now()},
	)

	s.Equal(before, s.engine.Snapshot())
	s.Equal(states, s.listener.StateCount())
	s.Len(s.listener.Notifications(), 1)
}

func (s *EngineSuite) TestTickAfterRoundEndIsDiscarded() {
	s.start(model.DifficultyEasy)
	gen := s.generation()
	s.Require().True(s.click().Ended)

	before := s.engine.Snapshot()
	states := s.listener.StateCount()

	s.deliver(
		Tick{Kind: TickSignal, Generation: gen, At: s.clock.Now()},
		Tick{Kind: TickCountdown, Generation: gen, At: s.clock.Now()},
	)

	s.Equal(model.GameStatusIdle, s.engine.Snapshot().Status)
	s.Equal(before, s.engine.Snapshot())
	s.Equal(states, s.listener.StateCount())
	s.Len(s.listener.Notifications(), 1)
}

func (s *EngineSuite) TestStoppedEngine() {
	s.cancel()
	<-s.engine.Done()

	_, err := s.engine.ClickWait(context.Background())
	s.ErrorIs(err, model.ErrEngineStopped)

	_, err = s.engine.Start(context.Background(), testRegistration(model.DifficultyEasy))
	s.ErrorIs(err, model.ErrEngineStopped)

	s.engine.Click()
}
