package postgres

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lowercaseHex = regexp.MustCompile(`^[0-9a-f]{20}$`)

func TestNewHexIDShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		id, err := newHexID()
		require.NoError(t, err)
		assert.Regexp(t, lowercaseHex, id)
	}
}

func TestNewHexIDUniqueness(t *testing.T) {
	// 10 random bytes give an 80-bit id; a collision across 10k draws
	// would point at a broken random source.
	seen := make(map[string]struct{}, 10_000)
	for i := 0; i < 10_000; i++ {
		id, err := newHexID()
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate hex id %s after %d draws", id, i)
		seen[id] = struct{}{}
	}
}
