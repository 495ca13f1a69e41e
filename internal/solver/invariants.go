package solver

import (
	"github.com/pkg/errors"

	"github.com/elektrokombinacija/mapf-solver/internal/core"
)

// assertPathsWellFormed checks the reachable half of P1 from spec.md
// §8 against a plan the façade is about to report as successful:
// every path starts at the agent's start, ends at its goal, and every
// step is adjacent-or-equal. It does not check the blocked-cell half
// of P1 — that would need the grid, and every planner already derives
// its moves from grid.Step, so a blocked-cell step cannot reach this
// point. A violation here means a planner invariant broke — it is
// reported as InternalError, not surfaced to the caller as an
// ordinary planning failure.
func assertPathsWellFormed(agents core.Agents, plan core.Plan) error {
	for _, a := range agents {
		path, ok := plan[a.ID]
		if !ok || len(path) == 0 {
			return errors.Errorf("agent %d: missing path", a.ID)
		}
		if path[0] != a.Start {
			return errors.Errorf("agent %d: path does not start at %v", a.ID, a.Start)
		}
		if path[len(path)-1] != a.Goal {
			return errors.Errorf("agent %d: path does not end at %v", a.ID, a.Goal)
		}
		for t := 1; t < len(path); t++ {
			if !isAdjacentOrEqual(path[t-1], path[t]) {
				return errors.Errorf("agent %d: illegal step %v -> %v at t=%d", a.ID, path[t-1], path[t], t)
			}
		}
	}
	return nil
}

func isAdjacentOrEqual(a, b core.Cell) bool {
	return core.ManhattanDist(a, b) <= 1
}
