package algo

import (
	"context"

	"github.com/elektrokombinacija/mapf-solver/internal/core"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// IndependentResult is the independent planner's output. Success means
// every agent has a path; Conflicts may be non-empty even when Success
// is true — this planner makes no attempt to coordinate agents and is
// explicitly a diagnostic baseline (spec.md §4.2, §9 Open Question).
type IndependentResult struct {
	Plan      core.Plan
	Conflicts []core.Conflict
	Success   bool
	Metrics   PlanMetrics
	Err       error // non-nil iff at least one agent failed to find a path
}

// Independent runs space-time A* per agent with no reservation table
// and no constraints, then reports conflicts across the resulting
// plan without attempting to resolve them.
func Independent(ctx context.Context, grid *core.Grid, agents core.Agents, caps Caps, log *zap.SugaredLogger) IndependentResult {
	log = nopSafe(log)
	plan := make(core.Plan, len(agents))
	var metrics PlanMetrics
	var errs error

	for _, a := range agents {
		path, m := SpaceTimeAStar(ctx, grid, a.ID, a.Start, a.Goal, nil, core.EmptyConstraintSet, 0, caps, log)
		metrics.merge(m)
		if path == nil {
			errs = multierr.Append(errs, agentNoPathErr(a.ID))
			log.Warnw("independent planner: agent has no path", "agent", a.ID)
			continue
		}
		plan[a.ID] = path
	}

	conflicts := core.DetectConflicts(plan)
	return IndependentResult{
		Plan:      plan,
		Conflicts: conflicts,
		Success:   errs == nil,
		Metrics:   metrics,
		Err:       errs,
	}
}
