package core

import "sort"

type edgeKey struct {
	From, To Cell
	Tick     int
}

// ReservationTable is the sparse, time-indexed occupancy and edge-use
// index the cooperative planner accumulates across agents, owned by a
// single planning invocation. Dense O(N²·T) occupancy grids are
// avoided in favor of per-cell sorted-tick lists, since only a small
// fraction of (cell, tick) pairs are ever actually reserved.
type ReservationTable struct {
	vertexTicks map[Cell][]int
	edges       map[edgeKey]struct{}
	parkedFrom  map[Cell]int // cell -> earliest tick from which it is permanently held
}

// NewReservationTable returns an empty table.
func NewReservationTable() *ReservationTable {
	return &ReservationTable{
		vertexTicks: make(map[Cell][]int),
		edges:       make(map[edgeKey]struct{}),
		parkedFrom:  make(map[Cell]int),
	}
}

// ReserveVertex marks cell occupied at tick.
func (r *ReservationTable) ReserveVertex(cell Cell, tick int) {
	ticks := r.vertexTicks[cell]
	i := sort.SearchInts(ticks, tick)
	if i < len(ticks) && ticks[i] == tick {
		return
	}
	ticks = append(ticks, 0)
	copy(ticks[i+1:], ticks[i:])
	ticks[i] = tick
	r.vertexTicks[cell] = ticks
}

// ReserveEdge marks the directed move from->to between tick and
// tick+1 as taken.
func (r *ReservationTable) ReserveEdge(from, to Cell, tick int) {
	r.edges[edgeKey{From: from, To: to, Tick: tick}] = struct{}{}
}

// ReservePark marks cell as permanently held from fromTick onward,
// modeling an agent that has arrived at its goal and parks there. A
// cell is parked from the earliest such tick across all owners.
func (r *ReservationTable) ReservePark(cell Cell, fromTick int) {
	if cur, ok := r.parkedFrom[cell]; !ok || fromTick < cur {
		r.parkedFrom[cell] = fromTick
	}
}

// IsVertexReserved reports whether cell is occupied at tick, either by
// an explicit reservation or by a parked agent.
func (r *ReservationTable) IsVertexReserved(cell Cell, tick int) bool {
	if from, ok := r.parkedFrom[cell]; ok && tick >= from {
		return true
	}
	ticks := r.vertexTicks[cell]
	i := sort.SearchInts(ticks, tick)
	return i < len(ticks) && ticks[i] == tick
}

// IsEdgeReserved reports whether the directed move from->to between
// tick and tick+1, or its opposing swap to->from, has been reserved —
// a swap in either direction over the same interval is a collision.
func (r *ReservationTable) IsEdgeReserved(from, to Cell, tick int) bool {
	if _, ok := r.edges[edgeKey{From: from, To: to, Tick: tick}]; ok {
		return true
	}
	_, ok := r.edges[edgeKey{From: to, To: from, Tick: tick}]
	return ok
}

// CommitPath reserves every vertex visited and edge traversed by path,
// then parks the agent on its final cell from its arrival tick
// onward so later, lower-priority agents cannot route through it.
func (r *ReservationTable) CommitPath(path Path) {
	if len(path) == 0 {
		return
	}
	for t, cell := range path {
		r.ReserveVertex(cell, t)
		if t > 0 {
			r.ReserveEdge(path[t-1], cell, t-1)
		}
	}
	r.ReservePark(path[len(path)-1], len(path)-1)
}
