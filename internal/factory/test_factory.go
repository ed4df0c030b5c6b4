package factory

import (
	"time"

	"github.com/mcoot/greenlight/internal/dependencies/mocks"
	"github.com/mcoot/greenlight/internal/services/game"
	"github.com/mcoot/greenlight/internal/storage/memory"
	"github.com/mcoot/greenlight/internal/testutil"
	"github.com/mcoot/greenlight/internal/web/ws"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, game.DefaultConfig(), ws.DefaultConfig(), nil, nil, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
