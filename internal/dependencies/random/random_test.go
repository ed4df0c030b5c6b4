package random

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCryptoString(t *testing.T) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	r := New()

	for range 100 {
		s := r.String(6, alphabet)
		assert.Len(t, s, 6)
		for _, c := range s {
			assert.True(t, strings.ContainsRune(alphabet, c), "unexpected %q in %q", c, s)
		}
	}
}

func TestCryptoStringSingleCharacterAlphabet(t *testing.T) {
	assert.Equal(t, "AAAA", New().String(4, "A"))
}

func TestCryptoStringInvalidInput(t *testing.T) {
	r := New()
	assert.Empty(t, r.String(0, "ABC"))
	assert.Empty(t, r.String(6, ""))
	assert.Empty(t, r.String(6, strings.Repeat("a", 257)))
}
