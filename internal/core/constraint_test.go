package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstraintSet_COW(t *testing.T) {
	root := EmptyConstraintSet
	child := root.Add(VertexConstraint(0, Cell{1, 1}, 3))
	grandchild := child.Add(VertexConstraint(1, Cell{2, 2}, 4))

	assert.Equal(t, 0, root.Len())
	assert.Equal(t, 1, child.Len())
	assert.Equal(t, 2, grandchild.Len())

	// Parent is untouched by the child's extension.
	assert.False(t, root.ViolatesVertex(0, Cell{1, 1}, 3))
	assert.True(t, child.ViolatesVertex(0, Cell{1, 1}, 3))
	assert.True(t, grandchild.ViolatesVertex(0, Cell{1, 1}, 3))
	assert.True(t, grandchild.ViolatesVertex(1, Cell{2, 2}, 4))
	assert.False(t, child.ViolatesVertex(1, Cell{2, 2}, 4))
}

func TestConstraintSet_EdgeViolation(t *testing.T) {
	s := EmptyConstraintSet.Add(EdgeConstraint(0, Cell{0, 0}, Cell{0, 1}, 2))
	assert.True(t, s.ViolatesEdge(0, Cell{0, 0}, Cell{0, 1}, 2))
	assert.False(t, s.ViolatesEdge(0, Cell{0, 1}, Cell{0, 0}, 2), "edge constraints are directional")
	assert.False(t, s.ViolatesEdge(1, Cell{0, 0}, Cell{0, 1}, 2), "scoped to its own agent")
}

func TestConstraintSet_ForAgent(t *testing.T) {
	s := EmptyConstraintSet.
		Add(VertexConstraint(0, Cell{0, 0}, 1)).
		Add(VertexConstraint(1, Cell{1, 1}, 2)).
		Add(VertexConstraint(0, Cell{2, 2}, 3))

	cs := s.ForAgent(0)
	assert.Len(t, cs, 2)
}

func TestConstraintSet_HasFutureVertexConstraint(t *testing.T) {
	s := EmptyConstraintSet.Add(VertexConstraint(0, Cell{1, 1}, 5))
	assert.True(t, s.HasFutureVertexConstraint(0, Cell{1, 1}, 3))
	assert.False(t, s.HasFutureVertexConstraint(0, Cell{1, 1}, 5))
	assert.False(t, s.HasFutureVertexConstraint(0, Cell{1, 1}, 6))
}
