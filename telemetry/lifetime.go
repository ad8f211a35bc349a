package telemetry

// PatternStats tracks how a single pattern fared across every attempt
// of a run.
type PatternStats struct {
	TimesAssigned int // cells that ended up collapsed to this pattern, across all successful attempts
	FirstAttempt  int // attempt number the pattern was first assigned in
}

// PatternTracker accumulates per-pattern usage across an entire run
// (every retry attempt wfcgen makes), the cross-attempt analogue of the
// original per-entity lifetime tracker.
type PatternTracker struct {
	stats map[string]*PatternStats
}

// NewPatternTracker creates an empty tracker.
func NewPatternTracker() *PatternTracker {
	return &PatternTracker{stats: make(map[string]*PatternStats)}
}

// RecordAssignment records one cell having collapsed to pattern during
// the given attempt.
func (pt *PatternTracker) RecordAssignment(pattern string, attempt int) {
	s, ok := pt.stats[pattern]
	if !ok {
		s = &PatternStats{FirstAttempt: attempt}
		pt.stats[pattern] = s
	}
	s.TimesAssigned++
}

// Get returns the stats for pattern, or nil if it was never assigned.
func (pt *PatternTracker) Get(pattern string) *PatternStats {
	return pt.stats[pattern]
}

// All returns every tracked pattern's stats.
func (pt *PatternTracker) All() map[string]*PatternStats {
	return pt.stats
}

// Count returns the number of distinct patterns used across the run.
func (pt *PatternTracker) Count() int {
	return len(pt.stats)
}

// TotalAssignments returns the total number of cell assignments recorded
// across every pattern.
func (pt *PatternTracker) TotalAssignments() int {
	var total int
	for _, s := range pt.stats {
		total += s.TimesAssigned
	}
	return total
}
