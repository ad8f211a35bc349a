package wfc_test

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/wfc/wfc"
	"github.com/pthm-cable/wfc/wfc/grid2d"
)

// legalFunc-backed test constraint, patterned after terrain.Catalog but
// kept local and minimal so wfc's own tests don't depend on the terrain
// package.
type testConstraint struct {
	patterns []string
	prob     map[string]float64
	legal    func(from string, offset grid2d.Offset, to string) bool
}

func (c *testConstraint) AllPatterns() []string { return c.patterns }
func (c *testConstraint) ProbabilityOf(p string) float64 {
	return c.prob[p]
}
func (c *testConstraint) IsLegal(from string, offset grid2d.Offset, to string) bool {
	return c.legal(from, offset, to)
}

func checkerboard() *testConstraint {
	return &testConstraint{
		patterns: []string{"A", "B"},
		prob:     map[string]float64{"A": 0.5, "B": 0.5},
		legal: func(from string, _ grid2d.Offset, to string) bool {
			return from != to
		},
	}
}

func newGrid(width, height int32) []grid2d.Point {
	cells := make([]grid2d.Point, 0, width*height)
	for y := int32(0); y < height; y++ {
		for x := int32(0); x < width; x++ {
			cells = append(cells, grid2d.Point{X: x, Y: y})
		}
	}
	return cells
}

// TestCheckerboard reproduces spec.md §8 scenario 1: two mutually
// exclusive patterns on a 3x3 grid must always collapse to a
// checkerboard.
func TestCheckerboard(t *testing.T) {
	constraint := checkerboard()
	rng := rand.New(rand.NewSource(1))
	p := wfc.NewPropagator[grid2d.Point, grid2d.Offset, string, grid2d.Counter](grid2d.Offsets())
	p.FillFrom(constraint)
	for _, pos := range newGrid(3, 3) {
		p.AddCell(pos)
	}
	if err := p.ObserveAll(rng, constraint); err != nil {
		t.Fatalf("ObserveAll: %v", err)
	}
	assigned := map[grid2d.Point]string{}
	for _, a := range p.AssignedPatterns() {
		assigned[a.Position] = a.Pattern
	}
	if len(assigned) != 9 {
		t.Fatalf("expected 9 assigned cells, got %d", len(assigned))
	}
	for y := int32(0); y < 3; y++ {
		for x := int32(0); x < 3; x++ {
			pat := assigned[grid2d.Point{X: x, Y: y}]
			for _, offset := range grid2d.Offsets() {
				n := grid2d.Point{X: x, Y: y}.Add(offset)
				if npat, ok := assigned[n]; ok && npat == pat {
					t.Fatalf("adjacent cells %v and %v both %q: not a checkerboard", grid2d.Point{X: x, Y: y}, n, pat)
				}
			}
		}
	}
}

// TestSinglePattern reproduces spec.md §8 scenario 2.
func TestSinglePattern(t *testing.T) {
	constraint := &testConstraint{
		patterns: []string{"X"},
		prob:     map[string]float64{"X": 1.0},
		legal:    func(string, grid2d.Offset, string) bool { return true },
	}
	rng := rand.New(rand.NewSource(7))
	p := wfc.NewPropagator[grid2d.Point, grid2d.Offset, string, grid2d.Counter](grid2d.Offsets())
	p.FillFrom(constraint)
	for _, pos := range newGrid(5, 5) {
		p.AddCell(pos)
	}
	cf, err := p.ObserveRandomCell(rng, constraint)
	if err != nil {
		t.Fatalf("first observe: %v", err)
	}
	if cf != wfc.Continue {
		t.Fatalf("expected Continue on first observe, got %v", cf)
	}
	if err := p.ObserveAll(rng, constraint); err != nil {
		t.Fatalf("ObserveAll: %v", err)
	}
	for _, a := range p.AssignedPatterns() {
		if a.Pattern != "X" {
			t.Fatalf("cell %v assigned %q, want X", a.Position, a.Pattern)
		}
	}
	if len(p.AssignedPatterns()) != 25 {
		t.Fatalf("expected 25 assigned cells, got %d", len(p.AssignedPatterns()))
	}
}

// TestEdgeRestrictionContradiction reproduces spec.md §8 scenario 3: two
// opposing edge restrictions on a single cell both forbid A, leaving B.
func TestEdgeRestrictionContradiction(t *testing.T) {
	constraint := checkerboard()
	p := wfc.NewPropagator[grid2d.Point, grid2d.Offset, string, grid2d.Counter](grid2d.Offsets())
	p.FillFrom(constraint)
	p.AddCell(grid2d.Point{X: 0, Y: 0})

	if err := p.RestrictEdge(grid2d.Point{X: 1, Y: 0}, "A", constraint); err != nil {
		t.Fatalf("first RestrictEdge: %v", err)
	}
	if err := p.RestrictEdge(grid2d.Point{X: -1, Y: 0}, "A", constraint); err != nil {
		t.Fatalf("second RestrictEdge: %v", err)
	}
	if err := p.PropagateUntilFinished(constraint); err != nil {
		t.Fatalf("PropagateUntilFinished: %v", err)
	}
	assigned := p.AssignedPatterns()
	if len(assigned) != 1 || assigned[0].Pattern != "B" {
		t.Fatalf("expected single cell collapsed to B, got %+v", assigned)
	}
}

// TestImpossibleCornerContradiction reproduces spec.md §8 scenario 4:
// asymmetric legality forced from both sides yields a contradiction.
func TestImpossibleCornerContradiction(t *testing.T) {
	constraint := &testConstraint{
		patterns: []string{"L", "R"},
		prob:     map[string]float64{"L": 0.5, "R": 0.5},
		legal: func(from string, _ grid2d.Offset, to string) bool {
			// L requires L on every side, R requires R: the two
			// patterns can never be adjacent in this constraint.
			return from == to
		},
	}
	p := wfc.NewPropagator[grid2d.Point, grid2d.Offset, string, grid2d.Counter](grid2d.Offsets())
	p.FillFrom(constraint)
	p.AddCell(grid2d.Point{X: 0, Y: 0})

	if err := p.RestrictEdge(grid2d.Point{X: 1, Y: 0}, "L", constraint); err != nil {
		t.Fatalf("unexpected failure forcing L: %v", err)
	}
	if err := p.RestrictEdge(grid2d.Point{X: -1, Y: 0}, "R", constraint); err == nil {
		t.Fatal("expected contradiction forcing incompatible R, got nil")
	}
}

// TestObserveThenPropagate reproduces spec.md §8 scenario 5: observing
// one cell of a 2x1 checkerboard wave collapses the other by
// propagation alone.
func TestObserveThenPropagate(t *testing.T) {
	constraint := checkerboard()
	rng := rand.New(rand.NewSource(3))
	p := wfc.NewPropagator[grid2d.Point, grid2d.Offset, string, grid2d.Counter](grid2d.Offsets())
	p.FillFrom(constraint)
	p.AddCell(grid2d.Point{X: 0, Y: 0})
	p.AddCell(grid2d.Point{X: 1, Y: 0})

	if _, err := p.ObserveRandomCell(rng, constraint); err != nil {
		t.Fatalf("ObserveRandomCell: %v", err)
	}
	assigned := map[grid2d.Point]string{}
	for _, a := range p.AssignedPatterns() {
		assigned[a.Position] = a.Pattern
	}
	if len(assigned) != 2 {
		t.Fatalf("expected both cells collapsed after one observation, got %d", len(assigned))
	}
	if assigned[grid2d.Point{X: 0, Y: 0}] == assigned[grid2d.Point{X: 1, Y: 0}] {
		t.Fatalf("expected complementary patterns, got %v", assigned)
	}
}

// TestInvariantPossibilitiesNeverEmptyOnSuccess checks universal
// invariant 1 (spec.md §8) across a full solve: every reachable cell
// stays non-empty whenever no error is returned.
func TestInvariantPossibilitiesNeverEmptyOnSuccess(t *testing.T) {
	constraint := checkerboard()
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		p := wfc.NewPropagator[grid2d.Point, grid2d.Offset, string, grid2d.Counter](grid2d.Offsets())
		p.FillFrom(constraint)
		for _, pos := range newGrid(4, 4) {
			p.AddCell(pos)
		}
		if err := p.ObserveAll(rng, constraint); err != nil {
			t.Fatalf("seed %d: ObserveAll: %v", seed, err)
		}
		if got := len(p.AssignedPatterns()); got != 16 {
			t.Fatalf("seed %d: expected 16 assigned cells, got %d", seed, got)
		}
	}
}

// TestPropagateUntilFinishedIsIdempotentAfterObservation checks the
// round-trip property from spec.md §8: calling
// PropagateUntilFinished right after a successful ObserveRandomCell is a
// no-op.
func TestPropagateUntilFinishedIsIdempotentAfterObservation(t *testing.T) {
	constraint := checkerboard()
	rng := rand.New(rand.NewSource(9))
	p := wfc.NewPropagator[grid2d.Point, grid2d.Offset, string, grid2d.Counter](grid2d.Offsets())
	p.FillFrom(constraint)
	for _, pos := range newGrid(3, 3) {
		p.AddCell(pos)
	}
	if _, err := p.ObserveRandomCell(rng, constraint); err != nil {
		t.Fatalf("ObserveRandomCell: %v", err)
	}
	before := map[grid2d.Point]string{}
	for _, a := range p.AssignedPatterns() {
		before[a.Position] = a.Pattern
	}
	if err := p.PropagateUntilFinished(constraint); err != nil {
		t.Fatalf("PropagateUntilFinished: %v", err)
	}
	after := map[grid2d.Point]string{}
	for _, a := range p.AssignedPatterns() {
		after[a.Position] = a.Pattern
	}
	if len(before) != len(after) {
		t.Fatalf("assigned count changed: %d -> %d", len(before), len(after))
	}
	for pos, pat := range before {
		if after[pos] != pat {
			t.Fatalf("cell %v changed from %q to %q", pos, pat, after[pos])
		}
	}
}

// TestEmptyWaveFinishesImmediately checks the boundary behavior from
// spec.md §8: a wave with zero cells finishes immediately.
func TestEmptyWaveFinishesImmediately(t *testing.T) {
	constraint := checkerboard()
	rng := rand.New(rand.NewSource(1))
	p := wfc.NewPropagator[grid2d.Point, grid2d.Offset, string, grid2d.Counter](grid2d.Offsets())
	p.FillFrom(constraint)
	if !p.IsEmpty() {
		t.Fatal("expected empty propagator before any AddCell")
	}
	cf, err := p.ObserveRandomCell(rng, constraint)
	if err != nil {
		t.Fatalf("ObserveRandomCell on empty wave: %v", err)
	}
	if cf != wfc.Finish {
		t.Fatalf("expected Finish on empty wave, got %v", cf)
	}
}

// TestRestrictEdgeNoNeighborIsNoOp checks the boundary behavior from
// spec.md §8: restricting an edge with no existing neighbor cells
// succeeds trivially.
func TestRestrictEdgeNoNeighborIsNoOp(t *testing.T) {
	constraint := checkerboard()
	p := wfc.NewPropagator[grid2d.Point, grid2d.Offset, string, grid2d.Counter](grid2d.Offsets())
	p.FillFrom(constraint)
	if err := p.RestrictEdge(grid2d.Point{X: 100, Y: 100}, "A", constraint); err != nil {
		t.Fatalf("expected no-op, got error: %v", err)
	}
}
