package random

import (
	"crypto/rand"
)

// Random generates session codes and can be mocked for testing
type Random interface {
	// String generates a random string of the given length from the given alphabet
	String(length int, alphabet string) string
}

// Crypto draws session codes from crypto/rand
type Crypto struct{}

// New creates a new Crypto source
func New() *Crypto {
	return &Crypto{}
}

// String picks length characters uniformly from alphabet, which holds at most
// 256 single-byte characters. Random bytes that would favour the start of the
// alphabet are redrawn.
func (Crypto) String(length int, alphabet string) string {
	n := len(alphabet)
	if length <= 0 || n == 0 || n > 256 {
		return ""
	}

	limit := 256 - 256%n
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%n])
			if len(out) == length {
				break
			}
		}
	}
	return string(out)
}
