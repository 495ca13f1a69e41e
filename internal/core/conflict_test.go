package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectConflicts_VertexConflict(t *testing.T) {
	// Head-on corridor: S1 from spec.md.
	plan := Plan{
		0: {{0, 0}, {0, 1}, {0, 2}},
		1: {{0, 2}, {0, 1}, {0, 0}},
	}

	conflicts := DetectConflicts(plan)
	require.Len(t, conflicts, 1)
	c := conflicts[0]
	assert.Equal(t, VertexConflict, c.Kind)
	assert.Equal(t, Cell{0, 1}, c.Cell)
	assert.Equal(t, 1, c.Tick)
	assert.Equal(t, AgentID(0), c.AgentA)
	assert.Equal(t, AgentID(1), c.AgentB)
}

func TestDetectConflicts_EdgeSwap(t *testing.T) {
	// S4 from spec.md.
	plan := Plan{
		0: {{0, 0}, {0, 1}},
		1: {{0, 1}, {0, 0}},
	}

	conflicts := DetectConflicts(plan)
	require.Len(t, conflicts, 1)
	c := conflicts[0]
	assert.Equal(t, EdgeConflict, c.Kind)
	assert.Equal(t, Cell{0, 0}, c.From)
	assert.Equal(t, Cell{0, 1}, c.To)
	assert.Equal(t, 0, c.Tick)
}

func TestDetectConflicts_ParkedGoalStillCounts(t *testing.T) {
	plan := Plan{
		0: {{0, 0}},             // parks at (0,0) forever
		1: {{0, 1}, {0, 0}, {1, 0}}, // passes through (0,0) at t=1
	}

	conflicts := DetectConflicts(plan)
	require.Len(t, conflicts, 1)
	assert.Equal(t, VertexConflict, conflicts[0].Kind)
	assert.Equal(t, Cell{0, 0}, conflicts[0].Cell)
	assert.Equal(t, 1, conflicts[0].Tick)
}

func TestDetectConflicts_NoConflict(t *testing.T) {
	plan := Plan{
		0: {{0, 0}, {0, 1}, {0, 2}},
		1: {{1, 0}, {1, 1}, {1, 2}},
	}
	assert.Empty(t, DetectConflicts(plan))
}

func TestFirstConflict_TieBreak(t *testing.T) {
	// Two simultaneous vertex conflicts at the same tick; lexicographic
	// cell ordering picks (0,0) over (0,5).
	plan := Plan{
		0: {{0, 5}, {0, 5}},
		1: {{0, 5}, {0, 5}},
		2: {{0, 0}, {0, 0}},
		3: {{0, 0}, {0, 0}},
	}
	c, ok := FirstConflict(plan)
	require.True(t, ok)
	assert.Equal(t, Cell{0, 0}, c.Cell)
	assert.Equal(t, AgentID(2), c.AgentA)
	assert.Equal(t, AgentID(3), c.AgentB)
}
