package algo

import "time"

// PlanMetrics reports the work a single STA* invocation performed, per
// spec.md §4.1 ("Metrics exposed").
type PlanMetrics struct {
	Expansions   int
	PeakOpenSize int
	WallTime     time.Duration
	Success      bool
}

func (m *PlanMetrics) merge(other PlanMetrics) {
	m.Expansions += other.Expansions
	if other.PeakOpenSize > m.PeakOpenSize {
		m.PeakOpenSize = other.PeakOpenSize
	}
	m.WallTime += other.WallTime
}
