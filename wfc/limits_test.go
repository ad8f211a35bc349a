package wfc

import (
	"math"
	"testing"

	"github.com/pthm-cable/wfc/wfc/grid2d"
)

type fillTestConstraint struct {
	patterns []string
	prob     map[string]float64
}

func (c *fillTestConstraint) AllPatterns() []string        { return c.patterns }
func (c *fillTestConstraint) ProbabilityOf(p string) float64 { return c.prob[p] }
func (c *fillTestConstraint) IsLegal(from string, _ grid2d.Offset, to string) bool {
	return from != to
}

// TestFillFromUsesBase10LogSum pins down the first deliberate asymmetry
// from spec.md §4.F: the prototype cell's logSum uses base-10 log, not
// natural log. The probabilities sum to 0.9 rather than 1 so that the two
// bases give different values.
func TestFillFromUsesBase10LogSum(t *testing.T) {
	constraint := &fillTestConstraint{
		patterns: []string{"A", "B"},
		prob:     map[string]float64{"A": 0.45, "B": 0.45},
	}
	var limits waveLimits[grid2d.Point, grid2d.Offset, string, grid2d.Counter]
	limits.fillFrom(grid2d.Offsets(), constraint)

	want := math.Log10(0.45 + 0.45)
	if math.Abs(limits.maxCell.logSum-want) > 1e-12 {
		t.Fatalf("logSum = %v, want log10(sum) = %v", limits.maxCell.logSum, want)
	}

	wantEntropy := want - limits.maxCell.plogpSum/limits.maxCell.sum
	if math.Abs(limits.maxCell.entropy-wantEntropy) > 1e-12 {
		t.Fatalf("entropy = %v, want %v", limits.maxCell.entropy, wantEntropy)
	}
}

// TestMaximumNoiseIsHalfMinAbsPlogp pins down spec.md §4.F's maximum_noise
// derivation and invariant 4 (noise never flips the ordering of two
// cells with distinct true entropy).
func TestMaximumNoiseIsHalfMinAbsPlogp(t *testing.T) {
	constraint := &fillTestConstraint{
		patterns: []string{"A", "B", "C"},
		prob:     map[string]float64{"A": 0.7, "B": 0.2, "C": 0.1},
	}
	var limits waveLimits[grid2d.Point, grid2d.Offset, string, grid2d.Counter]
	limits.fillFrom(grid2d.Offsets(), constraint)

	minAbs := math.Inf(1)
	for _, p := range constraint.patterns {
		prob := constraint.prob[p]
		abs := math.Abs(prob * math.Log(prob))
		if abs < minAbs {
			minAbs = abs
		}
	}
	want := minAbs / 2.0
	if math.Abs(limits.maximumNoise-want) > 1e-12 {
		t.Fatalf("maximumNoise = %v, want %v", limits.maximumNoise, want)
	}
	if limits.maximumNoise >= minAbs/2.0+1e-12 {
		t.Fatalf("maximumNoise %v exceeds half the min |p ln p| (%v)", limits.maximumNoise, minAbs/2.0)
	}
}

// TestRestrictUsesNaturalLogSum pins down the second deliberate
// asymmetry from spec.md §4.G: inside restrict, logSum is recomputed
// with natural log even though fillFrom used base-10.
func TestRestrictUsesNaturalLogSum(t *testing.T) {
	constraint := &fillTestConstraint{
		patterns: []string{"A", "B", "C"},
		prob:     map[string]float64{"A": 0.5, "B": 0.3, "C": 0.2},
	}
	p := NewPropagator[grid2d.Point, grid2d.Offset, string, grid2d.Counter](grid2d.Offsets())
	p.FillFrom(constraint)
	pos := grid2d.Point{X: 0, Y: 0}
	p.AddCell(pos)

	if err := p.restrict(pos, "C", constraint); err != nil {
		t.Fatalf("restrict: %v", err)
	}
	cell := p.wave[pos]
	wantSum := 0.5 + 0.3
	if math.Abs(cell.sum-wantSum) > 1e-12 {
		t.Fatalf("sum = %v, want %v", cell.sum, wantSum)
	}
	wantLogSum := math.Log(wantSum)
	if math.Abs(cell.logSum-wantLogSum) > 1e-12 {
		t.Fatalf("logSum after restrict = %v, want natural log %v", cell.logSum, wantLogSum)
	}
}
