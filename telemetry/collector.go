package telemetry

import "time"

// Collector accumulates events for a single solve attempt and produces a
// RunStats when the attempt finishes, mirroring the original ecosystem
// collector's accumulate-then-Flush shape but keyed to one attempt
// rather than one fixed time window.
type Collector struct {
	attempt int
	seed    int64
	cells   int
	started time.Time

	observations   int
	backtracks     int
	contradictions int
}

// NewCollector starts a collector for the given attempt number, seed and
// total cell count.
func NewCollector(attempt int, seed int64, cells int) *Collector {
	return &Collector{
		attempt: attempt,
		seed:    seed,
		cells:   cells,
		started: time.Now(),
	}
}

// Record appends one event to the attempt's running counters.
func (c *Collector) Record(evt Event) {
	switch evt.Type {
	case EventObserve:
		c.observations++
	case EventBacktrack:
		c.backtracks++
	case EventContradiction:
		c.contradictions++
	}
}

// Finish produces the RunStats for this attempt. assigned is the number
// of cells with a single remaining possibility at the time the attempt
// ended; success reports whether the attempt reached a full assignment
// without an unrecovered contradiction.
func (c *Collector) Finish(assigned int, success bool) RunStats {
	return RunStats{
		Attempt:        c.attempt,
		Seed:           c.seed,
		Cells:          c.cells,
		Assigned:       assigned,
		Observations:   c.observations,
		Backtracks:     c.backtracks,
		Contradictions: c.contradictions,
		DurationMS:     float64(time.Since(c.started).Microseconds()) / 1000.0,
		Success:        success,
	}
}
