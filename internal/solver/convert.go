package solver

import (
	"fmt"

	"github.com/elektrokombinacija/mapf-solver/internal/core"
)

// validateAndConvert turns the wire Request into the core types the
// planners operate on, enforcing spec.md §7's InvalidInput checks
// before any planning begins.
func validateAndConvert(req Request) (*core.Grid, core.Agents, error) {
	if req.Size < 5 || req.Size > 20 {
		return nil, nil, invalidInput(fmt.Sprintf("size must be in [5,20], got %d", req.Size))
	}
	if len(req.Blocks) != req.Size {
		return nil, nil, invalidInput("blocks matrix row count must equal size")
	}
	for r, row := range req.Blocks {
		if len(row) != req.Size {
			return nil, nil, invalidInput(fmt.Sprintf("blocks row %d has wrong column count", r))
		}
	}

	grid := core.NewGridFromBlocks(req.Blocks)

	agents := make(core.Agents, 0, len(req.Agents))
	for _, spec := range req.Agents {
		start := core.Cell{R: spec.Start[0], C: spec.Start[1]}
		goal := core.Cell{R: spec.Goal[0], C: spec.Goal[1]}

		if !grid.InBounds(start) || !grid.InBounds(goal) {
			return nil, nil, invalidInput(fmt.Sprintf("agent %d: start/goal out of bounds", spec.ID))
		}
		if !grid.Passable(start) {
			return nil, nil, invalidInput(fmt.Sprintf("agent %d: start is blocked", spec.ID))
		}
		if !grid.Passable(goal) {
			return nil, nil, invalidInput(fmt.Sprintf("agent %d: goal is blocked", spec.ID))
		}

		agents = append(agents, core.Agent{
			ID:    core.AgentID(spec.ID),
			Start: start,
			Goal:  goal,
		})
	}

	if agents.HasDuplicateIDs() {
		return nil, nil, invalidInput("duplicate agent id")
	}

	return grid, agents, nil
}

func cellToCoord(c core.Cell) Coord {
	return Coord{c.R, c.C}
}

func pathToCoords(p core.Path) []Coord {
	out := make([]Coord, len(p))
	for i, c := range p {
		out[i] = cellToCoord(c)
	}
	return out
}

func conflictToSpec(c core.Conflict) ConflictSpec {
	spec := ConflictSpec{
		AgentA: int(c.AgentA),
		AgentB: int(c.AgentB),
		Tick:   c.Tick,
	}
	if c.Kind == core.EdgeConflict {
		spec.Type = "edge"
		from, to := cellToCoord(c.From), cellToCoord(c.To)
		spec.From, spec.To = &from, &to
	} else {
		spec.Type = "vertex"
		cell := cellToCoord(c.Cell)
		spec.Cell = &cell
	}
	return spec
}

func conflictsToSpecs(cs []core.Conflict) []ConflictSpec {
	out := make([]ConflictSpec, len(cs))
	for i, c := range cs {
		out[i] = conflictToSpec(c)
	}
	return out
}

// plansToPaths renders a plan as the wire [][]Coord array, indexed by
// agent id (spec.md §6: "paths[i] corresponds to the agent with id
// i"). Agents with no path (a planner that partially failed) get a
// nil entry.
func plansToPaths(plan core.Plan, agents core.Agents) [][]Coord {
	maxID := 0
	for _, a := range agents {
		if int(a.ID) > maxID {
			maxID = int(a.ID)
		}
	}
	out := make([][]Coord, maxID+1)
	for id, path := range plan {
		out[int(id)] = pathToCoords(path)
	}
	return out
}
