// Package algo implements the MAPF planners: space-time A* (the
// shared low-level planner), the independent, cooperative and CBS
// high-level planners, and the MIP oracle.
package algo

import (
	"context"
	"time"
)

// checkInterval is how many expansions (or CBS node pops) elapse
// between the cap checks made by budget.tick, matching spec.md §5's
// "checks caps once per K (≈1024) expansions". Cancellation is
// checked on every tick, and CBS additionally checks its caps on
// every node pop.
const checkInterval = 1024

// Caps bounds a single planner invocation.
type Caps struct {
	MaxWallTime   time.Duration // 0 = unbounded
	MaxExpansions int           // 0 = unbounded
}

// budget tracks a Caps instance against wall-clock and expansion
// counters for one planner run.
type budget struct {
	caps       Caps
	started    time.Time
	expansions int
}

func newBudget(caps Caps) *budget {
	return &budget{caps: caps, started: time.Now()}
}

// tick records one unit of work (an expansion, or a CBS node pop) and
// reports whether the caller should stop: either a hard cap was
// breached, or ctx was cancelled. Checking is only performed every
// checkInterval calls to keep the hot loop cheap, except the ctx
// check, which runs first and is cheap enough to do unconditionally.
func (b *budget) tick(ctx context.Context) (stop bool, reason string) {
	b.expansions++
	if ctx != nil {
		select {
		case <-ctx.Done():
			return true, "context cancelled"
		default:
		}
	}
	if b.expansions%checkInterval != 0 {
		return false, ""
	}
	if b.caps.MaxExpansions > 0 && b.expansions >= b.caps.MaxExpansions {
		return true, "expansion cap reached"
	}
	if b.caps.MaxWallTime > 0 && time.Since(b.started) >= b.caps.MaxWallTime {
		return true, "wall-time cap reached"
	}
	return false, ""
}

func (b *budget) elapsed() time.Duration {
	return time.Since(b.started)
}
