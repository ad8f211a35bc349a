// Package telemetry records wfcgen run statistics as CSV/JSON, in the
// same structured-output style the original ecosystem simulation used
// for its window stats, bookmarks and hall of fame.
package telemetry

import "sort"

// RunStats holds the outcome of a single solve attempt: one call to
// wfc.Propagator.ObserveAll (or an equivalent fixed-point loop) from an
// empty wave through to success or an unrecovered contradiction.
type RunStats struct {
	Attempt        int     `csv:"attempt"`
	Seed           int64   `csv:"seed"`
	Cells          int     `csv:"cells"`
	Assigned       int     `csv:"assigned"`
	Observations   int     `csv:"observations"`
	Backtracks     int     `csv:"backtracks"`
	Contradictions int     `csv:"contradictions"`
	DurationMS     float64 `csv:"duration_ms"`
	Success        bool    `csv:"success"`
}

// BacktrackRate returns backtracks per observation, or 0 if there were
// no observations.
func (s RunStats) BacktrackRate() float64 {
	if s.Observations == 0 {
		return 0
	}
	return float64(s.Backtracks) / float64(s.Observations)
}

// Percentile calculates the p-th percentile of a sorted slice. p should
// be in [0, 1]. Returns 0 for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// DurationPercentiles sorts a copy of durations and returns p10/p50/p90.
func DurationPercentiles(durations []float64) (p10, p50, p90 float64) {
	if len(durations) == 0 {
		return 0, 0, 0
	}
	sorted := append([]float64(nil), durations...)
	sort.Float64s(sorted)
	return Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}
