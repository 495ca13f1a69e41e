package algo

import (
	"context"
	"sort"

	"github.com/elektrokombinacija/mapf-solver/internal/core"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// PriorityPolicy orders agents before prioritized planning (spec.md
// §4.3).
type PriorityPolicy int

const (
	DistanceFirst PriorityPolicy = iota
	ConstrainedFirst
	IDOrder
)

// ParsePriorityPolicy maps the wire string to a PriorityPolicy,
// defaulting to DistanceFirst for an empty string.
func ParsePriorityPolicy(s string) (PriorityPolicy, bool) {
	switch s {
	case "", "distance_first":
		return DistanceFirst, true
	case "constrained_first":
		return ConstrainedFirst, true
	case "id_order":
		return IDOrder, true
	default:
		return DistanceFirst, false
	}
}

// CooperativeResult is the prioritized planner's output.
type CooperativeResult struct {
	Plan      core.Plan
	Conflicts []core.Conflict
	Success   bool
	Metrics   PlanMetrics
	Err       error
}

// Cooperative plans agents one at a time, in priority order, each
// against a reservation table built from every previously committed
// path (spec.md §4.3). Failure of one agent does not stop planning for
// the rest; Success is true only if every agent found a path.
func Cooperative(ctx context.Context, grid *core.Grid, agents core.Agents, policy PriorityPolicy, caps Caps, log *zap.SugaredLogger) CooperativeResult {
	log = nopSafe(log)
	ordered := orderByPriority(grid, agents, policy)

	table := core.NewReservationTable()
	plan := make(core.Plan, len(agents))
	var metrics PlanMetrics
	var errs error

	for _, a := range ordered {
		path, m := SpaceTimeAStar(ctx, grid, a.ID, a.Start, a.Goal, table, core.EmptyConstraintSet, 0, caps, log)
		metrics.merge(m)
		if path == nil {
			errs = multierr.Append(errs, agentNoPathErr(a.ID))
			log.Warnw("cooperative planner: agent has no path", "agent", a.ID)
			continue
		}
		plan[a.ID] = path
		table.CommitPath(path)
	}

	conflicts := core.DetectConflicts(plan)
	success := errs == nil
	if success && len(conflicts) > 0 {
		// Sanity check per spec.md §4.3: a fully successful cooperative
		// plan must be collision-free by construction.
		log.Errorw("cooperative planner produced conflicts despite full success", "conflicts", len(conflicts))
	}

	return CooperativeResult{
		Plan:      plan,
		Conflicts: conflicts,
		Success:   success,
		Metrics:   metrics,
		Err:       errs,
	}
}

func orderByPriority(grid *core.Grid, agents core.Agents, policy PriorityPolicy) core.Agents {
	ordered := make(core.Agents, len(agents))
	copy(ordered, agents)

	switch policy {
	case IDOrder:
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	case ConstrainedFirst:
		sort.Slice(ordered, func(i, j int) bool {
			bi, bj := localBlockCount(grid, ordered[i].Start), localBlockCount(grid, ordered[j].Start)
			if bi != bj {
				return bi > bj
			}
			return ordered[i].ID < ordered[j].ID
		})
	default: // DistanceFirst
		sort.Slice(ordered, func(i, j int) bool {
			di := core.ManhattanDist(ordered[i].Start, ordered[i].Goal)
			dj := core.ManhattanDist(ordered[j].Start, ordered[j].Goal)
			if di != dj {
				return di > dj
			}
			return ordered[i].ID < ordered[j].ID
		})
	}
	return ordered
}

// localBlockRadius is the neighborhood radius (in cells) scanned by
// the constrained-first priority policy.
const localBlockRadius = 2

func localBlockCount(grid *core.Grid, center core.Cell) int {
	count := 0
	for dr := -localBlockRadius; dr <= localBlockRadius; dr++ {
		for dc := -localBlockRadius; dc <= localBlockRadius; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			cell := center.Add(dr, dc)
			if grid.InBounds(cell) && !grid.Passable(cell) {
				count++
			}
		}
	}
	return count
}
