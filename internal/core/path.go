package core

// Path is a non-empty, time-indexed sequence of cells: Path[t] is the
// agent's position at tick t. Path[0] is the start, Path[len-1] the
// goal. Cost is len(Path)-1.
type Path []Cell

// Cost returns the path's arrival tick (0 for a single-cell path).
func (p Path) Cost() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// At returns the agent's position at tick t. An agent that has already
// arrived parks on its last cell (the goal) for all later ticks.
func (p Path) At(t int) Cell {
	if len(p) == 0 {
		return Cell{}
	}
	if t < 0 {
		t = 0
	}
	if t >= len(p) {
		return p[len(p)-1]
	}
	return p[t]
}

// Plan maps each agent to its path.
type Plan map[AgentID]Path

// SOC returns the sum-of-costs objective: the sum of each path's
// arrival tick.
func (p Plan) SOC() int {
	soc := 0
	for _, path := range p {
		soc += path.Cost()
	}
	return soc
}

// Makespan returns the latest arrival tick across all agents.
func (p Plan) Makespan() int {
	ms := 0
	for _, path := range p {
		if c := path.Cost(); c > ms {
			ms = c
		}
	}
	return ms
}

// Clone returns a shallow copy of the plan (paths are not copied,
// matching the "plans share unchanged agents' paths by reference"
// ownership rule CBS relies on).
func (p Plan) Clone() Plan {
	cp := make(Plan, len(p))
	for id, path := range p {
		cp[id] = path
	}
	return cp
}
