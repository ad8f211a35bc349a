package wfc

import "math"

// waveLimits holds the statistics derived from one Constrain that stay
// constant for the duration of a solve: a fully-unconstrained prototype
// cell used as the template for AddCell, a per-pattern p*ln(p) table
// used to decrement entropy accumulators in restrict, and the noise
// amplitude used to break entropy ties in findMinEntropy.
type waveLimits[Pos Position[Pos, Offset], Offset comparable, Pat comparable, Cnt Counter[Cnt, Offset]] struct {
	maxCell      waveCell[Pos, Offset, Pat, Cnt]
	plogpMap     map[Pat]float64
	maximumNoise float64
}

// fillFrom computes the limits for a new solve from constraint and the
// given offset set (the Propagator's offsets, as passed to
// NewPropagator; the position type itself does not enumerate them).
//
// Deliberate asymmetry (see propagator.go's restrict): the prototype
// cell's logSum is computed with base-10 log here, while every update
// after a restriction uses natural log. This mismatch is preserved
// exactly from the reference implementation; it changes the absolute
// entropy value but not the relative ordering among cells sharing the
// same sum scale, and reference fixtures depend on it.
func (l *waveLimits[Pos, Offset, Pat, Cnt]) fillFrom(offsets []Offset, constraint Constrain[Pat, Offset]) {
	l.plogpMap = make(map[Pat]float64)
	l.maxCell.possibilities = make(map[Pat]Cnt)

	var plogpSum, sum float64
	minAbsPlogp := math.Inf(1)
	patterns := constraint.AllPatterns()

	for _, pattern := range patterns {
		p := constraint.ProbabilityOf(pattern)
		plogp := p * math.Log(p)
		l.plogpMap[pattern] = plogp
		if abs := math.Abs(plogp); abs < minAbsPlogp {
			minAbsPlogp = abs
		}
		plogpSum += plogp
		sum += p

		var count Cnt
		for _, offset := range offsets {
			n := 0
			for _, other := range patterns {
				if constraint.IsLegal(other, offset, pattern) {
					n++
				}
			}
			count = count.WithCount(offset, n)
		}
		l.maxCell.possibilities[pattern] = count
	}

	logSum := math.Log10(sum)
	l.maxCell.plogpSum = plogpSum
	l.maxCell.sum = sum
	l.maxCell.logSum = logSum
	l.maxCell.entropy = logSum - plogpSum/sum
	if math.IsInf(minAbsPlogp, 1) {
		minAbsPlogp = 0
	}
	l.maximumNoise = minAbsPlogp / 2.0
}
