package algo

import (
	"container/heap"
	"context"
	"time"

	"github.com/elektrokombinacija/mapf-solver/internal/core"
	"go.uber.org/zap"
)

// stState is a node's position in space-time.
type stState struct {
	cell core.Cell
	t    int
}

// staNode is one entry in the open set.
type staNode struct {
	state  stState
	g, f   int
	h      int
	seq    int // insertion counter, the final tie-break
	parent *staNode
	index  int
}

type staHeap []*staNode

func (h staHeap) Len() int { return len(h) }
func (h staHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].h != h[j].h {
		return h[i].h < h[j].h
	}
	if h[i].state.t != h[j].state.t {
		return h[i].state.t < h[j].state.t
	}
	return h[i].seq < h[j].seq
}
func (h staHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *staHeap) Push(x any) {
	n := x.(*staNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *staHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// DefaultHorizon computes T_max for a grid/start/goal pair: the
// Manhattan distance plus a pad, floored at a multiple of the grid
// area so dense instances get enough room to detour.
func DefaultHorizon(g *core.Grid, start, goal core.Cell) int {
	md := core.ManhattanDist(start, goal)
	areaBound := g.Size * g.Size * 2
	horizon := md + g.Size*2
	if areaBound > horizon {
		horizon = areaBound
	}
	return horizon
}

// SpaceTimeAStar finds the shortest collision-free path for a single
// agent through state space (row, col, tick), honoring an optional
// reservation table, an optional constraint set scoped to this agent,
// and an expansion/wall-time budget. It returns (path, metrics) with
// metrics.Success set on success, or (nil, metrics) on
// NoSolution/Timeout — the caller distinguishes the two by checking
// ctx.Err() and the returned metrics against the caps it supplied.
func SpaceTimeAStar(
	ctx context.Context,
	grid *core.Grid,
	agent core.AgentID,
	start, goal core.Cell,
	reservations *core.ReservationTable,
	constraints *core.ConstraintSet,
	horizon int,
	caps Caps,
	log *zap.SugaredLogger,
) (core.Path, PlanMetrics) {
	log = nopSafe(log)
	begun := time.Now()
	metrics := PlanMetrics{}
	b := newBudget(caps)

	if horizon <= 0 {
		horizon = DefaultHorizon(grid, start, goal)
	}

	open := &staHeap{}
	heap.Init(open)
	closed := make(map[stState]bool)

	seq := 0
	push := func(n *staNode) {
		heap.Push(open, n)
		seq++
		if open.Len() > metrics.PeakOpenSize {
			metrics.PeakOpenSize = open.Len()
		}
	}

	startNode := &staNode{
		state: stState{cell: start, t: 0},
		g:     0,
		h:     core.ManhattanDist(start, goal),
		seq:   seq,
	}
	startNode.f = startNode.g + startNode.h
	push(startNode)

	for open.Len() > 0 {
		current := heap.Pop(open).(*staNode)
		if closed[current.state] {
			continue
		}
		closed[current.state] = true
		metrics.Expansions++

		if current.state.cell == goal &&
			!constraints.HasFutureVertexConstraint(agent, goal, current.state.t) {
			metrics.Success = true
			metrics.WallTime = time.Since(begun)
			return reconstruct(current), metrics
		}

		if stop, reason := b.tick(ctx); stop {
			log.Debugw("space-time A* stopped on cap", "agent", agent, "reason", reason, "expansions", metrics.Expansions)
			metrics.WallTime = time.Since(begun)
			return nil, metrics
		}

		if current.state.t >= horizon {
			continue
		}

		for _, action := range core.Actions {
			next, legal := grid.Step(current.state.cell, action)
			if !legal {
				continue
			}
			nextT := current.state.t + 1

			if constraints.ViolatesVertex(agent, next, nextT) {
				continue
			}
			if constraints.ViolatesEdge(agent, current.state.cell, next, current.state.t) {
				continue
			}
			if reservations != nil {
				if reservations.IsVertexReserved(next, nextT) {
					continue
				}
				if reservations.IsEdgeReserved(next, current.state.cell, nextT-1) {
					continue
				}
			}

			nextState := stState{cell: next, t: nextT}
			if closed[nextState] {
				continue
			}

			n := &staNode{
				state:  nextState,
				g:      current.g + 1,
				h:      core.ManhattanDist(next, goal),
				parent: current,
				seq:    seq,
			}
			n.f = n.g + n.h
			push(n)
		}
	}

	metrics.WallTime = time.Since(begun)
	return nil, metrics
}

func reconstruct(n *staNode) core.Path {
	var path core.Path
	for cur := n; cur != nil; cur = cur.parent {
		path = append(core.Path{cur.state.cell}, path...)
	}
	return path
}

func nopSafe(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log
}
