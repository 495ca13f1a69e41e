// Package solver implements the uniform planner façade (spec.md §4,
// §6, §7, C10): it dispatches a solve request to the requested
// algorithm and reports a single, uniform result envelope.
package solver

import "github.com/pkg/errors"

// Algorithm names the wire-level algorithm selector.
type Algorithm string

const (
	Independent Algorithm = "independent"
	Cooperative Algorithm = "cooperative"
	CBS         Algorithm = "cbs"
	MIP         Algorithm = "mip"
)

// ErrorKind classifies the core error envelope (spec.md §7).
type ErrorKind int

const (
	InvalidInput ErrorKind = iota
	NoSolutionErr
	TimeoutErr
	InternalErrorKind
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case NoSolutionErr:
		return "NoSolution"
	case TimeoutErr:
		return "Timeout"
	case InternalErrorKind:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Error is the façade's distinct error envelope. NoSolution and
// Timeout are *not* surfaced this way per spec.md §7 — they are
// reported inside a Response with Metrics.Success=false. Error is
// reserved for InvalidInput (rejected before planning begins) and
// InternalError (an invariant was violated).
type Error struct {
	Kind ErrorKind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.Kind.String() + ": " + e.msg + ": " + e.err.Error()
	}
	return e.Kind.String() + ": " + e.msg
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.err }

func invalidInput(msg string) *Error {
	return &Error{Kind: InvalidInput, msg: msg}
}

func internalError(msg string, cause error) *Error {
	return &Error{Kind: InternalErrorKind, msg: msg, err: errors.WithStack(cause)}
}

// ErrMIPUnavailable is the cause used when the MIP backend cannot
// handle the instance size (spec.md §9, "MIP as oracle").
var ErrMIPUnavailable = errors.New("MIP backend unavailable for this instance")

// Coord is a (row, col) pair on the wire, matching spec.md §6's
// [r,c] array encoding.
type Coord [2]int

// AgentSpec is one agent on the wire.
type AgentSpec struct {
	ID    int   `json:"id"`
	Start Coord `json:"start"`
	Goal  Coord `json:"goal"`
}

// Request is the solve request consumed by the façade (spec.md §6).
type Request struct {
	Blocks         [][]bool    `json:"blocks"`
	Agents         []AgentSpec `json:"agents"`
	Size           int         `json:"size"`
	AlgorithmName  string      `json:"algorithm"`
	MaxTimeSeconds float64     `json:"max_time"`
	PriorityPolicy string      `json:"priority_policy,omitempty"`
}

// Metrics is the solve response's metrics block (spec.md §6).
type Metrics struct {
	Success      bool    `json:"success"`
	SumOfCosts   int     `json:"sum_of_costs"`
	Makespan     int     `json:"makespan"`
	NumConflicts int     `json:"num_conflicts"`
	ExploredSize int     `json:"explored_size"`
	TimeTakenMs  float64 `json:"time_taken_ms"`
}

// ConflictSpec is one reported conflict on the wire.
type ConflictSpec struct {
	Type   string `json:"type"` // "vertex" or "edge"
	AgentA int    `json:"agent_a"`
	AgentB int    `json:"agent_b"`
	Cell   *Coord `json:"cell,omitempty"`
	From   *Coord `json:"from,omitempty"`
	To     *Coord `json:"to,omitempty"`
	Tick   int    `json:"t"`
}

// Response is the solve response produced by the façade (spec.md §6).
// Paths is nil on total failure, with Metrics.Success=false.
type Response struct {
	Paths             [][]Coord      `json:"paths"`
	ExplorationOrders [][]Coord      `json:"exploration_orders"`
	Metrics           Metrics        `json:"metrics"`
	Conflicts         []ConflictSpec `json:"conflicts"`
}
