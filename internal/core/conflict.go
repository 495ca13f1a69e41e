package core

import "sort"

// ConflictKind distinguishes vertex occupancy conflicts from edge swaps.
type ConflictKind int

const (
	VertexConflict ConflictKind = iota
	EdgeConflict
)

func (k ConflictKind) String() string {
	if k == EdgeConflict {
		return "edge"
	}
	return "vertex"
}

// Conflict records a single collision between two agents. For a
// VertexConflict, Cell/Tick are set. For an EdgeConflict, From/To/Tick
// describe AgentA's move from->to between Tick and Tick+1, with
// AgentB moving to->from over the same interval.
type Conflict struct {
	Kind         ConflictKind
	AgentA       AgentID
	AgentB       AgentID
	Cell         Cell
	From, To     Cell
	Tick         int
}

// DetectConflicts scans every pair of paths in the plan and returns
// every conflict found, ordered by tick, then by cell (the From cell
// for an edge conflict), then by agent-pair for deterministic
// reporting.
func DetectConflicts(plan Plan) []Conflict {
	ids := sortedAgentIDs(plan)
	var conflicts []Conflict

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]
			conflicts = append(conflicts, detectPair(a, plan[a], b, plan[b])...)
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		return conflictLess(conflicts[i], conflicts[j])
	})
	return conflicts
}

// FirstConflict returns the earliest conflict in the plan under CBS's
// branching tie-break: earliest tick, then lexicographic cell, then
// agent-id pair. Returns false if the plan is collision-free.
func FirstConflict(plan Plan) (Conflict, bool) {
	conflicts := DetectConflicts(plan)
	if len(conflicts) == 0 {
		return Conflict{}, false
	}
	return conflicts[0], true
}

func detectPair(idA AgentID, pa Path, idB AgentID, pb Path) []Conflict {
	var out []Conflict
	maxLen := len(pa)
	if len(pb) > maxLen {
		maxLen = len(pb)
	}
	if maxLen == 0 {
		return out
	}

	for t := 0; t < maxLen; t++ {
		if pa.At(t) == pb.At(t) {
			out = append(out, Conflict{
				Kind:   VertexConflict,
				AgentA: idA,
				AgentB: idB,
				Cell:   pa.At(t),
				Tick:   t,
			})
		}
	}

	for t := 0; t < maxLen-1; t++ {
		aNow, aNext := pa.At(t), pa.At(t+1)
		bNow, bNext := pb.At(t), pb.At(t+1)
		if aNow == bNext && aNext == bNow && aNow != aNext {
			out = append(out, Conflict{
				Kind:   EdgeConflict,
				AgentA: idA,
				AgentB: idB,
				From:   aNow,
				To:     aNext,
				Tick:   t,
			})
		}
	}
	return out
}

func conflictLess(a, b Conflict) bool {
	if a.Tick != b.Tick {
		return a.Tick < b.Tick
	}
	ca, cb := conflictAnchorCell(a), conflictAnchorCell(b)
	if ca != cb {
		if ca.R != cb.R {
			return ca.R < cb.R
		}
		return ca.C < cb.C
	}
	if a.AgentA != b.AgentA {
		return a.AgentA < b.AgentA
	}
	return a.AgentB < b.AgentB
}

func conflictAnchorCell(c Conflict) Cell {
	if c.Kind == EdgeConflict {
		return c.From
	}
	return c.Cell
}

func sortedAgentIDs(plan Plan) []AgentID {
	ids := make([]AgentID, 0, len(plan))
	for id := range plan {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
