package wfc

import "errors"

// ErrContradiction is the single opaque failure signal the propagator
// produces: some cell's set of still-possible patterns became empty, so
// no solution is reachable from the current wave state. Because the
// solver is randomized, a contradiction on a well-formed input is not
// necessarily a bug - it is a signal to retry with a fresh RNG seed.
//
// After ErrContradiction is returned from any method other than the
// single retry inside ObserveRandomCell (see its doc comment), the
// propagator's state is not guaranteed consistent and should be
// discarded, or reset with FillFrom.
var ErrContradiction = errors.New("wfc: contradiction: cell has no remaining possibilities")

// ControlFlow reports whether a step-wise operation (ObserveRandomCell,
// Propagate) has more work to do.
type ControlFlow int

const (
	// Continue indicates more work remains: call the method again.
	Continue ControlFlow = iota
	// Finish indicates the operation completed; no more work remains of
	// this kind.
	Finish
)

func (c ControlFlow) String() string {
	if c == Finish {
		return "Finish"
	}
	return "Continue"
}
