package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestDurationPercentiles(t *testing.T) {
	durations := []float64{5, 1, 4, 2, 3}
	p10, p50, p90 := DurationPercentiles(durations)

	if p50 != 3 {
		t.Errorf("p50 = %v, want 3", p50)
	}
	if p10 >= p50 || p50 >= p90 {
		t.Errorf("expected p10 < p50 < p90, got %v, %v, %v", p10, p50, p90)
	}
	// original slice must be untouched (sort on a copy only)
	if durations[0] != 5 {
		t.Fatalf("DurationPercentiles mutated its input: %v", durations)
	}
}

func TestDurationPercentilesEmpty(t *testing.T) {
	p10, p50, p90 := DurationPercentiles(nil)
	if p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestRunStatsBacktrackRate(t *testing.T) {
	s := RunStats{Observations: 4, Backtracks: 1}
	if got := s.BacktrackRate(); math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("BacktrackRate = %v, want 0.25", got)
	}
	if got := (RunStats{}).BacktrackRate(); got != 0 {
		t.Fatalf("BacktrackRate with zero observations = %v, want 0", got)
	}
}
