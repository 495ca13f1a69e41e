package algo

import (
	"container/heap"
	"context"

	"github.com/elektrokombinacija/mapf-solver/internal/core"
	"go.uber.org/zap"
)

// CBSResult is the conflict-based-search planner's output.
type CBSResult struct {
	Plan      core.Plan
	Conflicts []core.Conflict
	Success   bool
	Metrics   PlanMetrics
}

type cbsNode struct {
	constraints *core.ConstraintSet
	plan        core.Plan
	cost        int
	numConflict int
	seq         int
	index       int
}

type cbsHeap []*cbsNode

func (h cbsHeap) Len() int { return len(h) }
func (h cbsHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	if h[i].numConflict != h[j].numConflict {
		return h[i].numConflict < h[j].numConflict
	}
	return h[i].seq < h[j].seq
}
func (h cbsHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *cbsHeap) Push(x any) {
	n := x.(*cbsNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *cbsHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// CBS runs best-first Conflict-Based Search over a constraint tree
// whose low level is SpaceTimeAStar (spec.md §4.4). On cap breach it
// returns the best (lowest-cost) node it has seen so far with
// Success=false.
func CBS(ctx context.Context, grid *core.Grid, agents core.Agents, caps Caps, log *zap.SugaredLogger) CBSResult {
	log = nopSafe(log)
	var metrics PlanMetrics
	b := newBudget(caps)
	seq := 0

	rootPlan := make(core.Plan, len(agents))
	for _, a := range agents {
		path, m := SpaceTimeAStar(ctx, grid, a.ID, a.Start, a.Goal, nil, core.EmptyConstraintSet, 0, caps, log)
		metrics.merge(m)
		if path == nil {
			return CBSResult{Success: false, Metrics: metrics}
		}
		rootPlan[a.ID] = path
	}

	root := &cbsNode{
		constraints: core.EmptyConstraintSet,
		plan:        rootPlan,
		cost:        rootPlan.SOC(),
		seq:         seq,
	}
	root.numConflict = len(core.DetectConflicts(root.plan))

	open := &cbsHeap{}
	heap.Init(open)
	heap.Push(open, root)

	var best *cbsNode

	for open.Len() > 0 {
		stop, reason := b.tick(ctx)
		if !stop && caps.MaxExpansions > 0 && b.expansions >= caps.MaxExpansions {
			stop, reason = true, "expansion cap reached"
		}
		if !stop && caps.MaxWallTime > 0 && b.elapsed() >= caps.MaxWallTime {
			stop, reason = true, "wall-time cap reached"
		}
		if stop {
			log.Debugw("CBS stopped on cap", "reason", reason, "nodesExpanded", b.expansions)
			if best == nil {
				best = root
			}
			return CBSResult{Plan: best.plan, Conflicts: core.DetectConflicts(best.plan), Success: false, Metrics: metrics}
		}

		node := heap.Pop(open).(*cbsNode)
		if best == nil || node.cost < best.cost {
			best = node
		}

		conflict, ok := core.FirstConflict(node.plan)
		if !ok {
			metrics.Success = true
			return CBSResult{Plan: node.plan, Conflicts: nil, Success: true, Metrics: metrics}
		}

		for _, child := range branch(ctx, grid, agents, node, conflict, caps, log, &metrics) {
			seq++
			child.seq = seq
			heap.Push(open, child)
		}
	}

	if best == nil {
		best = root
	}
	return CBSResult{Plan: best.plan, Conflicts: core.DetectConflicts(best.plan), Success: false, Metrics: metrics}
}

// branch produces the (up to two) children of node for the given
// conflict, replanning only the newly constrained agent.
func branch(ctx context.Context, grid *core.Grid, agents core.Agents, node *cbsNode, conflict core.Conflict, caps Caps, log *zap.SugaredLogger, metrics *PlanMetrics) []*cbsNode {
	var children []*cbsNode

	var constraints []core.Constraint
	if conflict.Kind == core.VertexConflict {
		constraints = []core.Constraint{
			core.VertexConstraint(conflict.AgentA, conflict.Cell, conflict.Tick),
			core.VertexConstraint(conflict.AgentB, conflict.Cell, conflict.Tick),
		}
	} else {
		constraints = []core.Constraint{
			core.EdgeConstraint(conflict.AgentA, conflict.From, conflict.To, conflict.Tick),
			core.EdgeConstraint(conflict.AgentB, conflict.To, conflict.From, conflict.Tick),
		}
	}

	for _, c := range constraints {
		agent, ok := agents.ByID(c.Agent)
		if !ok {
			continue
		}
		childConstraints := node.constraints.Add(c)
		path, m := SpaceTimeAStar(ctx, grid, agent.ID, agent.Start, agent.Goal, nil, childConstraints, 0, caps, log)
		metrics.merge(m)
		if path == nil {
			continue
		}

		childPlan := node.plan.Clone()
		childPlan[agent.ID] = path

		children = append(children, &cbsNode{
			constraints: childConstraints,
			plan:        childPlan,
			cost:        childPlan.SOC(),
			numConflict: len(core.DetectConflicts(childPlan)),
		})
	}
	return children
}
