// Package wfc implements a generic wave function collapse propagator: a
// randomized constraint-propagation solver that assigns one pattern per
// grid cell such that every adjacent pair of patterns satisfies an
// adjacency rule, with patterns drawn in proportion to caller-supplied
// prior probabilities.
//
// The propagator is generic over a position type (the shape of the grid
// and its per-cell neighborhood, see the grid2d and grid3d subpackages)
// and a Constrain implementation (the set of legal patterns, their
// priors, and their adjacency rules). It owns no rendering, persistence,
// or tile-to-value mapping; those are left to callers such as the
// terrain package.
//
// Ported from Fyrox Engine's fyrox-autotile wave function collapse
// module, itself based on fast-wfc.
package wfc
