package mocks

import (
	"sync"

	"github.com/mcoot/greenlight/internal/dependencies/random"
)

// MockRandom returns queued strings, then falls back to a deterministic sequence
type MockRandom struct {
	mu      sync.Mutex
	queue   []string
	counter int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// String returns the next queued result. With nothing queued it encodes an
// increasing counter in the alphabet, so successive calls never repeat.
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) > 0 {
		result := r.queue[0]
		r.queue = r.queue[1:]
		return result
	}

	r.counter++
	n := r.counter
	out := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		out[i] = alphabet[n%len(alphabet)]
		n /= len(alphabet)
	}
	return string(out)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, values...)
}
