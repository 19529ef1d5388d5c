package core

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_ValidPrefix(t *testing.T) {
	testCases := []struct {
		name     string
		prefix   string
		expected string
	}{
		{name: "simple prefix", prefix: "cpm", expected: "cpm"},
		{name: "uppercase prefix gets lowercased", prefix: "LOG", expected: "log"},
		{name: "prefix with spaces gets trimmed", prefix: "  cpm  ", expected: "cpm"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id := NewID(tc.prefix)

			parts := strings.SplitN(id, "_", 2)
			require.Len(t, parts, 2)
			assert.Equal(t, tc.expected, parts[0])

			_, err := ulid.Parse(parts[1])
			assert.NoError(t, err)
		})
	}
}

func TestNewID_EmptyPrefixPanics(t *testing.T) {
	assert.Panics(t, func() { NewID("") })
	assert.Panics(t, func() { NewID("   ") })
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id := NewID("log")
		assert.False(t, seen[id], "duplicate id generated: %s", id)
		seen[id] = true
	}
}

func TestIsValidID(t *testing.T) {
	assert.True(t, IsValidID(NewID("cpm"), "cpm"))
	assert.False(t, IsValidID(NewID("cpm"), "log"))
	assert.False(t, IsValidID("cpm_not-a-ulid", "cpm"))
	assert.False(t, IsValidID("", "cpm"))
}
