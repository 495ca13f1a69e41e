package solver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/elektrokombinacija/mapf-solver/internal/algo"
	"github.com/elektrokombinacija/mapf-solver/internal/core"
)

// defaultMaxTimeSeconds is used when a Request omits max_time,
// matching spec.md §6's documented default.
const defaultMaxTimeSeconds = 100

// Solve dispatches req to the requested algorithm and returns the
// uniform result envelope from spec.md §6. The returned error is
// non-nil only for InvalidInput or InternalError (spec.md §7);
// NoSolution and Timeout are reported inside Response with
// Metrics.Success=false.
func Solve(ctx context.Context, req Request, log *zap.SugaredLogger) (*Response, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	begun := time.Now()

	grid, agents, err := validateAndConvert(req)
	if err != nil {
		return nil, err
	}

	maxTime := req.MaxTimeSeconds
	if maxTime <= 0 {
		maxTime = defaultMaxTimeSeconds
	}
	caps := algo.Caps{MaxWallTime: time.Duration(maxTime * float64(time.Second))}

	algName := req.AlgorithmName
	if algName == "" {
		algName = string(Independent)
	}

	log.Infow("solve started", "algorithm", algName, "agents", len(agents), "size", req.Size)

	var resp *Response
	switch Algorithm(algName) {
	case Independent:
		resp, err = solveIndependent(ctx, grid, agents, caps, log)
	case Cooperative:
		resp, err = solveCooperative(ctx, grid, agents, req.PriorityPolicy, caps, log)
	case CBS:
		resp, err = solveCBS(ctx, grid, agents, caps, log)
	case MIP:
		resp, err = solveMIP(ctx, grid, agents, caps, log)
	default:
		return nil, invalidInput("unknown algorithm: " + algName)
	}
	if err != nil {
		return nil, err
	}

	resp.Metrics.TimeTakenMs = float64(time.Since(begun)) / float64(time.Millisecond)
	log.Infow("solve finished", "algorithm", algName, "success", resp.Metrics.Success,
		"soc", resp.Metrics.SumOfCosts, "makespan", resp.Metrics.Makespan, "conflicts", resp.Metrics.NumConflicts)
	return resp, nil
}

func solveIndependent(ctx context.Context, grid *core.Grid, agents core.Agents, caps algo.Caps, log *zap.SugaredLogger) (*Response, error) {
	result := algo.Independent(ctx, grid, agents, caps, log)
	// Independent "success" means every agent has a path, regardless of
	// conflicts (spec.md §4.2, §9): a planner reporting success with an
	// empty paths table would itself be the InternalError case.
	if result.Success {
		if err := assertPathsWellFormed(agents, result.Plan); err != nil {
			return nil, internalError("independent planner produced an invalid path", err)
		}
	}
	return &Response{
		Paths:             orNilPaths(result.Success, plansToPaths(result.Plan, agents)),
		ExplorationOrders: [][]Coord{},
		Metrics: Metrics{
			Success:      result.Success,
			SumOfCosts:   result.Plan.SOC(),
			Makespan:     result.Plan.Makespan(),
			NumConflicts: len(result.Conflicts),
			ExploredSize: result.Metrics.Expansions,
		},
		Conflicts: conflictsToSpecs(result.Conflicts),
	}, nil
}

func solveCooperative(ctx context.Context, grid *core.Grid, agents core.Agents, policyName string, caps algo.Caps, log *zap.SugaredLogger) (*Response, error) {
	policy, ok := algo.ParsePriorityPolicy(policyName)
	if !ok {
		return nil, invalidInput("unknown priority_policy: " + policyName)
	}
	result := algo.Cooperative(ctx, grid, agents, policy, caps, log)
	if result.Success {
		if len(result.Conflicts) > 0 {
			return nil, internalError("cooperative planner succeeded with unresolved conflicts", nil)
		}
		if err := assertPathsWellFormed(agents, result.Plan); err != nil {
			return nil, internalError("cooperative planner produced an invalid path", err)
		}
	}
	return &Response{
		Paths:             orNilPaths(result.Success, plansToPaths(result.Plan, agents)),
		ExplorationOrders: [][]Coord{},
		Metrics: Metrics{
			Success:      result.Success,
			SumOfCosts:   result.Plan.SOC(),
			Makespan:     result.Plan.Makespan(),
			NumConflicts: len(result.Conflicts),
			ExploredSize: result.Metrics.Expansions,
		},
		Conflicts: conflictsToSpecs(result.Conflicts),
	}, nil
}

func solveCBS(ctx context.Context, grid *core.Grid, agents core.Agents, caps algo.Caps, log *zap.SugaredLogger) (*Response, error) {
	result := algo.CBS(ctx, grid, agents, caps, log)
	if result.Success {
		if len(result.Conflicts) > 0 {
			return nil, internalError("CBS reported success with unresolved conflicts", nil)
		}
		if err := assertPathsWellFormed(agents, result.Plan); err != nil {
			return nil, internalError("CBS produced an invalid path", err)
		}
	}
	return &Response{
		Paths:             orNilPaths(result.Success, plansToPaths(result.Plan, agents)),
		ExplorationOrders: [][]Coord{},
		Metrics: Metrics{
			Success:      result.Success,
			SumOfCosts:   result.Plan.SOC(),
			Makespan:     result.Plan.Makespan(),
			NumConflicts: len(result.Conflicts),
			ExploredSize: result.Metrics.Expansions,
		},
		Conflicts: conflictsToSpecs(result.Conflicts),
	}, nil
}

func solveMIP(ctx context.Context, grid *core.Grid, agents core.Agents, caps algo.Caps, log *zap.SugaredLogger) (*Response, error) {
	result := algo.MIP(ctx, grid, agents, caps, log)
	if !result.Available {
		return nil, internalError("MIP backend unavailable for this instance", ErrMIPUnavailable)
	}
	if result.Success {
		if len(result.Conflicts) > 0 {
			return nil, internalError("MIP reported success with unresolved conflicts", nil)
		}
		if err := assertPathsWellFormed(agents, result.Plan); err != nil {
			return nil, internalError("MIP produced an invalid path", err)
		}
	}
	return &Response{
		Paths:             orNilPaths(result.Success, plansToPaths(result.Plan, agents)),
		ExplorationOrders: [][]Coord{},
		Metrics: Metrics{
			Success:      result.Success,
			SumOfCosts:   result.Plan.SOC(),
			Makespan:     result.Plan.Makespan(),
			NumConflicts: len(result.Conflicts),
			ExploredSize: result.Metrics.Expansions,
		},
		Conflicts: conflictsToSpecs(result.Conflicts),
	}, nil
}

func orNilPaths(success bool, paths [][]Coord) [][]Coord {
	if !success {
		return nil
	}
	return paths
}
