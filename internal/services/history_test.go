package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulval/vulval-backend/internal/llm"
)

func TestBuildHistoryWithoutSummary(t *testing.T) {
	turns := buildHistory("", "Hello AI")

	require.Len(t, turns, 1)
	assert.Equal(t, llm.RoleUser, turns[0].Role)
	assert.Equal(t, "Hello AI", turns[0].Content)
}

func TestBuildHistoryWithSummary(t *testing.T) {
	turns := buildHistory("user asked about Paris weather", "And tomorrow?")

	// Context turns must precede the fresh user turn.
	require.Len(t, turns, 3)
	assert.Equal(t, llm.RoleUser, turns[0].Role)
	assert.Contains(t, turns[0].Content, "user asked about Paris weather")
	assert.Equal(t, llm.RoleModel, turns[1].Role)
	assert.Equal(t, llm.RoleUser, turns[2].Role)
	assert.Equal(t, "And tomorrow?", turns[2].Content)
}
