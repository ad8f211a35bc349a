package wfc

// waveCell holds the state of one wave position: the set of patterns
// still possible there, each with its per-offset support counter, plus
// the running entropy accumulators derived from that set.
//
// Pos is unused by waveCell itself but is threaded through every
// propagator-internal type so that methods taking a Pos value (save,
// restore, neighbor lookups) never need an extra type parameter of their
// own - Go methods cannot introduce type parameters beyond their
// receiver's.
type waveCell[Pos Position[Pos, Offset], Offset comparable, Pat comparable, Cnt Counter[Cnt, Offset]] struct {
	// possibilities maps each still-possible pattern to its support
	// counter.
	possibilities map[Pat]Cnt
	// plogpSum is the running sum of p(pat)*ln(p(pat)) over possibilities.
	plogpSum float64
	// sum is the running sum of p(pat) over possibilities.
	sum float64
	// logSum is ln(sum), except right after fillFrom where it is
	// deliberately log10(sum) - see limits.go.
	logSum float64
	// entropy is logSum - plogpSum/sum.
	entropy float64
}

// single returns the sole possible pattern if exactly one remains,
// otherwise ok is false.
func (c *waveCell[Pos, Offset, Pat, Cnt]) single() (pat Pat, ok bool) {
	if len(c.possibilities) != 1 {
		return pat, false
	}
	for p := range c.possibilities {
		return p, true
	}
	return pat, false
}

// clone returns a deep-enough copy: a fresh possibilities map, since
// Counter values are stored (and copied) by value.
func (c waveCell[Pos, Offset, Pat, Cnt]) clone() waveCell[Pos, Offset, Pat, Cnt] {
	out := waveCell[Pos, Offset, Pat, Cnt]{
		possibilities: make(map[Pat]Cnt, len(c.possibilities)),
		plogpSum:      c.plogpSum,
		sum:           c.sum,
		logSum:        c.logSum,
		entropy:       c.entropy,
	}
	for pat, cnt := range c.possibilities {
		out.possibilities[pat] = cnt
	}
	return out
}

// cloneInto overwrites dst's fields from c without allocating a new
// possibilities map when dst already has one backtrack_cells can reuse it.
func (c waveCell[Pos, Offset, Pat, Cnt]) cloneInto(dst *waveCell[Pos, Offset, Pat, Cnt]) {
	if dst.possibilities == nil {
		dst.possibilities = make(map[Pat]Cnt, len(c.possibilities))
	} else {
		clear(dst.possibilities)
	}
	for pat, cnt := range c.possibilities {
		dst.possibilities[pat] = cnt
	}
	dst.plogpSum = c.plogpSum
	dst.sum = c.sum
	dst.logSum = c.logSum
	dst.entropy = c.entropy
}
