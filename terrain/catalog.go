// Package terrain is the probability/terrain helper that spec.md §4.D
// describes as optional: an accumulator over (pattern, frequency, value)
// triples that normalizes frequencies into the prior probabilities a
// wfc.Constrain reports, plus a weighted random lookup from pattern back
// to one of the concrete values it represents - the step spec.md §1
// calls out as belonging to an external "random value mapper" but which
// the original Fyrox source implements right alongside the pattern
// table (HashWfcConstraint::get_random), so it is kept here rather than
// invented fresh.
package terrain

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/wfc/wfc"
)

// weightedValue is one concrete value a pattern may represent, along
// with the frequency it was registered with.
type weightedValue[V any] struct {
	value     V
	frequency float64
}

// entry is the per-pattern accumulator: its normalized probability plus
// every value registered under it.
type entry[V any] struct {
	probability    float64
	totalFrequency float64
	values         []weightedValue[V]
}

// Catalog accumulates pattern frequency/value data and, once Finalize or
// FinalizeWithTerrain has been called, serves as a wfc.Constrain: its
// AllPatterns, ProbabilityOf and IsLegal methods satisfy
// wfc.Constrain[Pat, Offset] directly. Adjacency legality is supplied at
// construction since it is domain-specific (spec.md §1 places the
// tile/terrain model itself out of the core's scope).
type Catalog[Pat comparable, Offset comparable, V any] struct {
	entries map[Pat]*entry[V]
	legal   func(from Pat, offset Offset, to Pat) bool
}

// New creates an empty catalog. legal implements the adjacency rule
// between patterns; it is called unchanged by IsLegal.
func New[Pat comparable, Offset comparable, V any](legal func(from Pat, offset Offset, to Pat) bool) *Catalog[Pat, Offset, V] {
	return &Catalog[Pat, Offset, V]{
		entries: make(map[Pat]*entry[V]),
		legal:   legal,
	}
}

// Add registers one value under pattern with the given frequency.
// Non-positive frequencies are silently dropped, matching
// HashWfcConstraint::add in the reference implementation.
func (c *Catalog[Pat, Offset, V]) Add(pattern Pat, frequency float64, value V) {
	if frequency <= 0 {
		return
	}
	e, ok := c.entries[pattern]
	if !ok {
		e = &entry[V]{}
		c.entries[pattern] = e
	}
	e.totalFrequency += frequency
	e.values = append(e.values, weightedValue[V]{value: value, frequency: frequency})
}

// Finalize computes each pattern's probability as its total frequency
// divided by the sum of all patterns' total frequencies.
func (c *Catalog[Pat, Offset, V]) Finalize() {
	totals := make([]float64, 0, len(c.entries))
	for _, e := range c.entries {
		totals = append(totals, e.totalFrequency)
	}
	sum := floats.Sum(totals)
	if sum <= 0 {
		return
	}
	for _, e := range c.entries {
		e.probability = e.totalFrequency / sum
	}
}

// FinalizeWithTerrain computes each pattern's probability the same way
// as Finalize, except each pattern's total frequency is first divided by
// the number of patterns sharing its terrain key (via terrainOf), so
// that terrains with many patterns are not given an advantage over
// terrains with few. If the resulting sum is non-positive, every
// probability stays at zero.
func (c *Catalog[Pat, Offset, V]) FinalizeWithTerrain(terrainOf func(Pat) string) {
	terrainCount := make(map[string]int)
	for pattern := range c.entries {
		terrainCount[terrainOf(pattern)]++
	}
	weights := make(map[Pat]float64, len(c.entries))
	weighted := make([]float64, 0, len(c.entries))
	for pattern, e := range c.entries {
		count := terrainCount[terrainOf(pattern)]
		var w float64
		if count > 0 {
			w = e.totalFrequency / float64(count)
		} else {
			w = 1.0
		}
		weights[pattern] = w
		weighted = append(weighted, w)
	}
	sum := floats.Sum(weighted)
	if sum <= 0 {
		return
	}
	for pattern, e := range c.entries {
		e.probability = weights[pattern] / sum
	}
}

// GetRandom draws one value registered under pattern, weighted by the
// frequency it was added with. Returns false if pattern has no values.
func (c *Catalog[Pat, Offset, V]) GetRandom(rng *rand.Rand, pattern Pat) (value V, ok bool) {
	e, exists := c.entries[pattern]
	if !exists || len(e.values) == 0 {
		return value, false
	}
	target := rng.Float64() * e.totalFrequency
	for _, wv := range e.values {
		target -= wv.frequency
		if target <= 0 {
			return wv.value, true
		}
	}
	return e.values[len(e.values)-1].value, true
}

// AllPatterns returns every pattern with non-zero probability, in no
// particular order. Implements wfc.Constrain.
func (c *Catalog[Pat, Offset, V]) AllPatterns() []Pat {
	out := make([]Pat, 0, len(c.entries))
	for pattern, e := range c.entries {
		if e.probability > 0 {
			out = append(out, pattern)
		}
	}
	return out
}

// ProbabilityOf implements wfc.Constrain.
func (c *Catalog[Pat, Offset, V]) ProbabilityOf(pattern Pat) float64 {
	e, ok := c.entries[pattern]
	if !ok {
		return 0
	}
	return e.probability
}

// IsLegal implements wfc.Constrain by delegating to the adjacency
// function supplied to New.
func (c *Catalog[Pat, Offset, V]) IsLegal(from Pat, offset Offset, to Pat) bool {
	return c.legal(from, offset, to)
}

// compile-time interface satisfaction check for a representative
// instantiation; catches signature drift between Catalog and
// wfc.Constrain early.
var _ wfc.Constrain[string, int] = (*Catalog[string, int, string])(nil)
