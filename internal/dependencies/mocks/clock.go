package mocks

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/greenlight/internal/dependencies/clock"
)

// MockClock is a fake Clock whose time only moves when the test advances it
type MockClock struct {
	*clockwork.FakeClock
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{FakeClock: clockwork.NewFakeClockAt(t)}
}

// WaitForTickers blocks until n tickers or timers are waiting on the clock
func (c *MockClock) WaitForTickers(ctx context.Context, n int) error {
	return c.BlockUntilContext(ctx, n)
}
