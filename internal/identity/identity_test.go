package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorForDeterministic(t *testing.T) {
	a := ColorFor("user_340w7vJfrNB1M2fzcM5Rd3bo9GT")
	b := ColorFor("user_340w7vJfrNB1M2fzcM5Rd3bo9GT")
	assert.Equal(t, a, b)
}

func TestColorForInPalette(t *testing.T) {
	for _, id := range []string{"", "a", "alice", "user_1", "ữ-unicode-id"} {
		assert.Contains(t, palette, ColorFor(id))
	}
}

func TestColorForSpreads(t *testing.T) {
	seen := map[string]bool{}
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		seen[ColorFor(id)] = true
	}
	// the hash should not collapse everything to one bucket
	assert.Greater(t, len(seen), 1)
}
