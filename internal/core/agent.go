package core

// AgentID uniquely identifies an agent within a solve request.
type AgentID int

// Agent is an immutable start/goal pair. Start and goal must be
// in-bounds and passable on the grid the agent is solved against;
// the solver façade validates this before planning begins.
type Agent struct {
	ID    AgentID
	Start Cell
	Goal  Cell
}

// Agents is a convenience slice type with id-based lookup helpers.
type Agents []Agent

// ByID returns the agent with the given id, or false if absent.
func (as Agents) ByID(id AgentID) (Agent, bool) {
	for _, a := range as {
		if a.ID == id {
			return a, true
		}
	}
	return Agent{}, false
}

// HasDuplicateIDs reports whether any two agents share an id.
func (as Agents) HasDuplicateIDs() bool {
	seen := make(map[AgentID]struct{}, len(as))
	for _, a := range as {
		if _, ok := seen[a.ID]; ok {
			return true
		}
		seen[a.ID] = struct{}{}
	}
	return false
}
