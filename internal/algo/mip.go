package algo

import (
	"context"
	"math"
	"time"

	"github.com/elektrokombinacija/mapf-solver/internal/core"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// MIPResult is the MIP planner's output.
type MIPResult struct {
	Plan      core.Plan
	Conflicts []core.Conflict
	Success   bool
	Metrics   PlanMetrics
	LPBound   float64 // relaxed objective at the root LP, for reporting
	Available bool    // false if the instance exceeded the backend's variable budget
}

// maxMIPVariables bounds how large a time-expanded LP this backend
// will attempt. Past this the MIP planner is treated as unavailable
// per spec.md §9 ("MIP as oracle... the core must still compile and
// pass tests if the MIP backend is unavailable").
const maxMIPVariables = 60000

// maxHorizonDoublings caps how many times the horizon doubles on
// infeasibility before giving up, per spec.md §4.5.
const maxHorizonDoublings = 3

// maxBranchNodes bounds branch-and-bound work independent of Caps, as
// a backstop against runaway recursion on pathological instances.
const maxBranchNodes = 20000

// MIP solves the time-expanded 0/1 flow formulation from spec.md §4.5
// via branch-and-bound over LP relaxations (gonum's simplex solver).
// It is an oracle intended for a handful of agents on small grids.
func MIP(ctx context.Context, grid *core.Grid, agents core.Agents, caps Caps, log *zap.SugaredLogger) MIPResult {
	log = nopSafe(log)
	begun := time.Now()
	var metrics PlanMetrics

	horizon := initialMIPHorizon(agents)
	for attempt := 0; attempt <= maxHorizonDoublings; attempt++ {
		enc, ok := buildTimeExpandedLP(grid, agents, horizon)
		if !ok {
			log.Warnw("MIP planner: instance too large for the LP backend", "horizon", horizon, "variables", len(enc.varIndex))
			return MIPResult{Available: false}
		}

		sol, bound, solved := branchAndBound(ctx, enc, caps, &metrics)
		metrics.WallTime = time.Since(begun)
		if solved {
			plan := enc.reconstructPlan(sol)
			metrics.Success = true
			return MIPResult{
				Plan:      plan,
				Conflicts: core.DetectConflicts(plan),
				Success:   true,
				Metrics:   metrics,
				LPBound:   bound,
				Available: true,
			}
		}
		if ctx != nil && ctx.Err() != nil {
			break
		}
		horizon *= 2
	}

	return MIPResult{Success: false, Metrics: metrics, Available: true}
}

func initialMIPHorizon(agents core.Agents) int {
	sum := 0
	for _, a := range agents {
		sum += core.ManhattanDist(a.Start, a.Goal)
	}
	return sum + 2*len(agents) + 2
}

// mipVar identifies one binary decision variable x[agent, cell, tick].
type mipVar struct {
	agent core.AgentID
	cell  core.Cell
	t     int
}

// lpEncoding is the time-expanded LP built for one horizon value.
type lpEncoding struct {
	agents   core.Agents
	grid     *core.Grid
	horizon  int
	varIndex map[mipVar]int
	vars     []mipVar
	nStruct  int // number of structural (non-slack) variables
	c        []float64
	rows     [][]float64
	rhs      []float64
}

// buildTimeExpandedLP constructs the equality-standard-form LP for the
// given horizon. Variables are pruned to (agent, cell, t) triples that
// could plausibly lie on a shortest-ish path: cells reachable from the
// agent's start in t steps and from which the goal is still reachable
// by t=horizon. Returns ok=false if the pruned variable count still
// exceeds maxMIPVariables, or if the column count including slack
// columns exceeds four times maxMIPVariables.
func buildTimeExpandedLP(grid *core.Grid, agents core.Agents, horizon int) (*lpEncoding, bool) {
	enc := &lpEncoding{
		agents:   agents,
		grid:     grid,
		horizon:  horizon,
		varIndex: make(map[mipVar]int),
	}

	addVar := func(v mipVar) {
		if _, ok := enc.varIndex[v]; ok {
			return
		}
		enc.varIndex[v] = len(enc.vars)
		enc.vars = append(enc.vars, v)
	}

	for _, a := range agents {
		for t := 0; t <= horizon; t++ {
			for r := 0; r < grid.Size; r++ {
				for col := 0; col < grid.Size; col++ {
					cell := core.Cell{R: r, C: col}
					if !grid.Passable(cell) {
						continue
					}
					if core.ManhattanDist(a.Start, cell) > t {
						continue
					}
					if core.ManhattanDist(cell, a.Goal) > horizon-t {
						continue
					}
					addVar(mipVar{agent: a.ID, cell: cell, t: t})
				}
			}
		}
	}
	enc.nStruct = len(enc.vars)
	if enc.nStruct > maxMIPVariables {
		return enc, false
	}

	enc.buildObjective()
	enc.buildConstraints()
	return enc, len(enc.c) <= maxMIPVariables*4
}

func (enc *lpEncoding) buildObjective() {
	enc.c = make([]float64, enc.nStruct)
	for i, v := range enc.vars {
		a, _ := enc.agents.ByID(v.agent)
		if v.cell != a.Goal {
			enc.c[i] = 1 // non-goal occupancy ticks approximate SOC
		}
	}
}

// addRow appends an equality row (coeffs over structural vars only;
// slack columns are appended afterward for every inequality row).
func (enc *lpEncoding) addRow(coeffs map[int]float64, rhs float64) {
	row := make([]float64, enc.nStruct)
	for idx, w := range coeffs {
		row[idx] = w
	}
	enc.rows = append(enc.rows, row)
	enc.rhs = append(enc.rhs, rhs)
}

func (enc *lpEncoding) buildConstraints() {
	// Flow conservation: for each (agent, t), exactly one cell occupied.
	byAgentTick := make(map[core.AgentID]map[int][]int)
	byCellTick := make(map[core.Cell]map[int][]int)
	for idx, v := range enc.vars {
		if byAgentTick[v.agent] == nil {
			byAgentTick[v.agent] = make(map[int][]int)
		}
		byAgentTick[v.agent][v.t] = append(byAgentTick[v.agent][v.t], idx)

		if byCellTick[v.cell] == nil {
			byCellTick[v.cell] = make(map[int][]int)
		}
		byCellTick[v.cell][v.t] = append(byCellTick[v.cell][v.t], idx)
	}

	for _, a := range enc.agents {
		for t := 0; t <= enc.horizon; t++ {
			idxs := byAgentTick[a.ID][t]
			if len(idxs) == 0 {
				continue
			}
			coeffs := make(map[int]float64, len(idxs))
			for _, idx := range idxs {
				coeffs[idx] = 1
			}
			enc.addRow(coeffs, 1)
		}

		// Boundary: start at t=0, goal at t=horizon.
		if idx, ok := enc.varIndex[mipVar{agent: a.ID, cell: a.Start, t: 0}]; ok {
			enc.addRow(map[int]float64{idx: 1}, 1)
		}
		if idx, ok := enc.varIndex[mipVar{agent: a.ID, cell: a.Goal, t: enc.horizon}]; ok {
			enc.addRow(map[int]float64{idx: 1}, 1)
		}
	}

	// Vertex collision: at most one agent per (cell, t). Converted to
	// equality with a slack column.
	var ineqRows []map[int]float64
	var ineqRHS []float64
	for _, byTick := range byCellTick {
		for _, idxs := range byTick {
			if len(idxs) < 2 {
				continue
			}
			coeffs := make(map[int]float64, len(idxs))
			for _, idx := range idxs {
				coeffs[idx] = 1
			}
			ineqRows = append(ineqRows, coeffs)
			ineqRHS = append(ineqRHS, 1)
		}
	}

	// Movement reachability: x[i,v,t+1] <= sum over neighbors-or-self of
	// x[i,u,t]. Expressed as (sum_u x[i,u,t]) - x[i,v,t+1] >= 0, i.e.
	// x[i,v,t+1] - sum_u x[i,u,t] <= 0.
	for _, a := range enc.agents {
		for t := 0; t < enc.horizon; t++ {
			for _, v := range enc.vars {
				if v.agent != a.ID || v.t != t+1 {
					continue
				}
				idxNext, ok := enc.varIndex[mipVar{agent: a.ID, cell: v.cell, t: t + 1}]
				if !ok {
					continue
				}
				coeffs := map[int]float64{idxNext: 1}
				for _, action := range core.Actions {
					from, legal := reverseStep(enc.grid, v.cell, action)
					if !legal {
						continue
					}
					if idxPrev, ok := enc.varIndex[mipVar{agent: a.ID, cell: from, t: t}]; ok {
						coeffs[idxPrev] -= 1
					}
				}
				ineqRows = append(ineqRows, coeffs)
				ineqRHS = append(ineqRHS, 0)
			}
		}
	}

	// Edge-swap exclusion between every unordered agent pair sharing an
	// edge at a tick: x[i,u,t]+x[i,v,t+1]+x[j,v,t]+x[j,u,t+1] <= 3.
	for ai := 0; ai < len(enc.agents); ai++ {
		for aj := ai + 1; aj < len(enc.agents); aj++ {
			a, bAgent := enc.agents[ai], enc.agents[aj]
			for t := 0; t < enc.horizon; t++ {
				for u := range byCellTick {
					for _, action := range core.Actions {
						v, legal := enc.grid.Step(u, action)
						if !legal || v == u {
							continue
						}
						iu, ok1 := enc.varIndex[mipVar{agent: a.ID, cell: u, t: t}]
						iv, ok2 := enc.varIndex[mipVar{agent: a.ID, cell: v, t: t + 1}]
						ju, ok3 := enc.varIndex[mipVar{agent: bAgent.ID, cell: u, t: t + 1}]
						jv, ok4 := enc.varIndex[mipVar{agent: bAgent.ID, cell: v, t: t}]
						if !(ok1 && ok2 && ok3 && ok4) {
							continue
						}
						coeffs := map[int]float64{iu: 1, iv: 1, ju: 1, jv: 1}
						ineqRows = append(ineqRows, coeffs)
						ineqRHS = append(ineqRHS, 3)
					}
				}
			}
		}
	}

	// Append slack columns for every inequality row collected above.
	nSlack := len(ineqRows)
	total := enc.nStruct + nSlack
	for i := range enc.rows {
		enc.rows[i] = growRow(enc.rows[i], total)
	}
	enc.c = growRow(enc.c, total)

	for si, coeffs := range ineqRows {
		row := make([]float64, total)
		for idx, w := range coeffs {
			row[idx] = w
		}
		row[enc.nStruct+si] = 1 // slack absorbs the <= slack
		enc.rows = append(enc.rows, row)
		enc.rhs = append(enc.rhs, ineqRHS[si])
	}
}

func growRow(row []float64, total int) []float64 {
	if len(row) >= total {
		return row
	}
	out := make([]float64, total)
	copy(out, row)
	return out
}

// reverseStep returns the cell that action would have departed from to
// land on `to`, i.e. the inverse of Grid.Step.
func reverseStep(grid *core.Grid, to core.Cell, action core.Action) (core.Cell, bool) {
	dr, dc := action.Delta()
	from := to.Add(-dr, -dc)
	return from, grid.Passable(from)
}

// branchAndBound performs integer branch-and-bound over the LP
// relaxation, fixing one fractional structural variable per branch.
// Fixed variables are kept in a per-node map that solveRelaxation
// turns into one extra equality row per fixed variable. The returned
// bound is the objective of the root relaxation.
func branchAndBound(ctx context.Context, enc *lpEncoding, caps Caps, metrics *PlanMetrics) ([]float64, float64, bool) {
	b := newBudget(caps)
	type node struct {
		fixed map[int]float64 // structural var index -> forced 0/1
	}
	stack := []node{{fixed: map[int]float64{}}}

	var incumbent []float64
	incumbentObj := math.Inf(1)
	rootBound := 0.0
	nodesVisited := 0

	for len(stack) > 0 {
		if stop, _ := b.tick(ctx); stop {
			break
		}
		nodesVisited++
		if nodesVisited > maxBranchNodes {
			break
		}

		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, obj, feasible := solveRelaxation(enc, cur.fixed)
		metrics.Expansions++
		if nodesVisited == 1 && feasible {
			rootBound = obj
		}
		if !feasible || obj >= incumbentObj {
			continue
		}

		frac, fracIdx := mostFractional(x, enc.nStruct, cur.fixed)
		if frac < 0 {
			// Integral (within tolerance): candidate solution.
			incumbent = x
			incumbentObj = obj
			continue
		}

		zero := cloneFixed(cur.fixed)
		zero[fracIdx] = 0
		one := cloneFixed(cur.fixed)
		one[fracIdx] = 1
		stack = append(stack, node{fixed: zero}, node{fixed: one})
	}

	if incumbent == nil {
		return nil, 0, false
	}
	return incumbent, rootBound, true
}

func cloneFixed(m map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

const integralityTol = 1e-6

// mostFractional returns the index of the structural variable whose
// relaxed value is furthest from {0,1}, or frac<0 if all are integral.
func mostFractional(x []float64, nStruct int, fixed map[int]float64) (float64, int) {
	best := -1.0
	bestIdx := -1
	for i := 0; i < nStruct; i++ {
		if _, ok := fixed[i]; ok {
			continue
		}
		d := fracDist(x[i])
		if d > integralityTol && d > best {
			best = d
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return -1, -1
	}
	return best, bestIdx
}

func fracDist(v float64) float64 {
	frac := v - floor(v)
	if frac > 0.5 {
		frac = 1 - frac
	}
	return frac
}

func floor(v float64) float64 {
	i := float64(int(v))
	if v < 0 && i != v {
		i--
	}
	return i
}

// solveRelaxation solves the LP relaxation with the given variables
// fixed to 0 or 1, by adding one equality row per fixed variable.
func solveRelaxation(enc *lpEncoding, fixed map[int]float64) ([]float64, float64, bool) {
	extraRows := make([][]float64, 0, len(fixed))
	extraRHS := make([]float64, 0, len(fixed))
	nVars := len(enc.c)
	for idx, val := range fixed {
		row := make([]float64, nVars)
		row[idx] = 1
		extraRows = append(extraRows, row)
		extraRHS = append(extraRHS, val)
	}

	totalRows := len(enc.rows) + len(extraRows)
	a := mat.NewDense(totalRows, nVars, nil)
	for i, row := range enc.rows {
		a.SetRow(i, row)
	}
	for i, row := range extraRows {
		a.SetRow(len(enc.rows)+i, row)
	}
	b := make([]float64, 0, totalRows)
	b = append(b, enc.rhs...)
	b = append(b, extraRHS...)

	obj, x, err := lp.Simplex(nil, enc.c, a, b, 0)
	if err != nil {
		return nil, 0, false
	}
	return x, obj, true
}

// reconstructPlan reads off, for each agent and tick, the unique
// structural variable with value ~1.
func (enc *lpEncoding) reconstructPlan(x []float64) core.Plan {
	plan := make(core.Plan, len(enc.agents))
	for _, a := range enc.agents {
		path := make(core.Path, 0, enc.horizon+1)
		for t := 0; t <= enc.horizon; t++ {
			var chosen core.Cell
			found := false
			for idx, v := range enc.vars {
				if v.agent != a.ID || v.t != t {
					continue
				}
				if x[idx] > 0.5 {
					chosen = v.cell
					found = true
					break
				}
			}
			if !found {
				if len(path) > 0 {
					chosen = path[len(path)-1]
				} else {
					chosen = a.Start
				}
			}
			path = append(path, chosen)
		}
		plan[a.ID] = trimTrailingStationary(path)
	}
	return plan
}

// trimTrailingStationary drops repeated trailing cells so the
// reported path's cost reflects actual arrival, not the LP horizon.
func trimTrailingStationary(path core.Path) core.Path {
	end := len(path)
	for end > 1 && path[end-1] == path[end-2] {
		end--
	}
	return path[:end]
}
