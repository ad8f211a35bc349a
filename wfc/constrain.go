package wfc

// Constrain exposes the three read-only, side-effect-free queries the
// propagator needs in order to solve a wave: the legal patterns and
// their priors, and the adjacency rule between patterns.
//
// A constraint must agree with itself across repeated queries within one
// solve: every method call made on a Propagator must be given a
// Constrain value that agrees with all prior calls on AllPatterns,
// ProbabilityOf and IsLegal. The propagator does not validate this; it
// is a caller obligation (see terrain.Catalog for a stable, precomputed
// implementation).
type Constrain[Pat comparable, Offset comparable] interface {
	// AllPatterns returns every pattern with non-zero prior probability.
	// Patterns with zero probability must not appear here.
	AllPatterns() []Pat
	// ProbabilityOf returns the prior probability of pattern, in [0, 1].
	// The sum over AllPatterns should be close to 1; small drift is
	// tolerated.
	ProbabilityOf(pattern Pat) float64
	// IsLegal reports whether pattern "to" may appear at position+offset
	// when pattern "from" is at position. Legality need not be symmetric
	// under offset inversion; the propagator never assumes it is.
	IsLegal(from Pat, offset Offset, to Pat) bool
}
