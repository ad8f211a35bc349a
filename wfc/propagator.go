package wfc

import "math"

// posPat is one pending restriction: pattern is no longer possible at
// position, and neighbors need to be told.
type posPat[Pos any, Pat any] struct {
	pos Pos
	pat Pat
}

// AssignedPattern pairs a fully-collapsed cell's position with its sole
// remaining pattern, as reported by Propagator.AssignedPatterns.
type AssignedPattern[Pos any, Pat any] struct {
	Position Pos
	Pattern  Pat
}

// Propagator is the wave function collapse engine. It owns all solver
// state except the Constrain object, which callers supply to every
// method that needs it; the constraint need not outlive the propagator
// between calls, but every call must agree with every prior call on
// AllPatterns, ProbabilityOf and IsLegal (see Constrain's doc comment).
//
// Lifecycle: Empty -[FillFrom]-> Initialized -[AddCell]*-> Populated
// -[RestrictEdge]*-> Bordered -[ObserveRandomCell]-> Bordered (Continue)
// | Observed (Finish) | failed (ErrContradiction).
type Propagator[Pos Position[Pos, Offset], Offset comparable, Pat comparable, Cnt Counter[Cnt, Offset]] struct {
	offsets []Offset
	limits  waveLimits[Pos, Offset, Pat, Cnt]
	wave    map[Pos]waveCell[Pos, Offset, Pat, Cnt]

	// propagating is the work stack for the current propagation
	// cascade; pending accumulates new restrictions discovered while
	// processing propagating so that iteration over a neighbor's
	// possibilities is never perturbed by the work stack it feeds.
	propagating []posPat[Pos, Pat]
	pending     []posPat[Pos, Pat]

	// backtrackMap snapshots the cells touched by the observation in
	// progress, first-wins; backtrackCells is a free list of their
	// buffers so a backtrack never needs to allocate a new possibilities
	// map.
	backtrackMap   map[Pos]waveCell[Pos, Offset, Pat, Cnt]
	backtrackCells []waveCell[Pos, Offset, Pat, Cnt]

	// backtracks counts every time ObserveRandomCell has taken its
	// single-step backtrack path, for telemetry callers (see
	// cmd/wfcgen); the propagator itself never reads this back.
	backtracks int
}

// NewPropagator creates an empty propagator for a position kind whose
// neighborhood is the given offsets, in the stable order that indexes
// every Counter (see grid2d.Offsets, grid3d.Offsets). Call FillFrom
// before adding any cells.
func NewPropagator[Pos Position[Pos, Offset], Offset comparable, Pat comparable, Cnt Counter[Cnt, Offset]](offsets []Offset) *Propagator[Pos, Offset, Pat, Cnt] {
	return &Propagator[Pos, Offset, Pat, Cnt]{
		offsets: offsets,
		wave:    make(map[Pos]waveCell[Pos, Offset, Pat, Cnt]),
	}
}

// IsEmpty reports whether this propagator contains no cells.
func (p *Propagator[Pos, Offset, Pat, Cnt]) IsEmpty() bool {
	return len(p.wave) == 0
}

// Positions returns every position that has a cell in the wave, in no
// particular order.
func (p *Propagator[Pos, Offset, Pat, Cnt]) Positions() []Pos {
	out := make([]Pos, 0, len(p.wave))
	for pos := range p.wave {
		out = append(out, pos)
	}
	return out
}

// ContainsCell reports whether the wave has a cell at position.
func (p *Propagator[Pos, Offset, Pat, Cnt]) ContainsCell(position Pos) bool {
	_, ok := p.wave[position]
	return ok
}

// AssignedPatterns returns one entry for every cell that has been
// reduced to a single possible pattern. Safe to call any number of times
// after a solve finishes; returns the same mapping every time.
func (p *Propagator[Pos, Offset, Pat, Cnt]) AssignedPatterns() []AssignedPattern[Pos, Pat] {
	out := make([]AssignedPattern[Pos, Pat], 0, len(p.wave))
	for pos, cell := range p.wave {
		if pat, ok := cell.single(); ok {
			out = append(out, AssignedPattern[Pos, Pat]{Position: pos, Pattern: pat})
		}
	}
	return out
}

// FillFrom clears any previous wave and pending restrictions and
// recomputes the limits (prototype cell, plogp table, noise amplitude)
// from constraint. Call this first, and again to restart after a
// contradiction.
func (p *Propagator[Pos, Offset, Pat, Cnt]) FillFrom(constraint Constrain[Pat, Offset]) {
	p.limits.fillFrom(p.offsets, constraint)
	p.wave = make(map[Pos]waveCell[Pos, Offset, Pat, Cnt])
	p.propagating = p.propagating[:0]
	p.pending = p.pending[:0]
	p.backtrackMap = make(map[Pos]waveCell[Pos, Offset, Pat, Cnt])
	p.backtrackCells = p.backtrackCells[:0]
	p.backtracks = 0
}

// AddCell inserts a cell at position by cloning the unconstrained
// prototype cell. Call only before any RestrictEdge or observation;
// calling it afterward may leave the wave in an inconsistent state.
func (p *Propagator[Pos, Offset, Pat, Cnt]) AddCell(position Pos) {
	p.wave[position] = p.limits.maxCell.clone()
}

// RestrictEdge pretends pattern is at position, even though no cell
// exists there, and removes every pattern illegal next to it from each
// of position's existing neighbors. Intended for constraining the
// border of a wave. Does not snapshot into the backtrack map: a failure
// here leaves the wave permanently altered, and the caller should treat
// it as terminal (see DESIGN.md open question notes).
func (p *Propagator[Pos, Offset, Pat, Cnt]) RestrictEdge(position Pos, pattern Pat, constraint Constrain[Pat, Offset]) error {
	for _, offset := range p.offsets {
		otherPos := position.Add(offset)
		otherCell, ok := p.wave[otherPos]
		if !ok {
			continue
		}
		for otherPattern := range otherCell.possibilities {
			if !constraint.IsLegal(pattern, offset, otherPattern) {
				delete(otherCell.possibilities, otherPattern)
				p.pending = append(p.pending, posPat[Pos, Pat]{otherPos, otherPattern})
			}
		}
		if len(otherCell.possibilities) == 0 {
			return ErrContradiction
		}
	}
	return nil
}

// saveCell snapshots the live cell at position into backtrackMap,
// first-wins, reusing a buffer from the free list when one is
// available.
func (p *Propagator[Pos, Offset, Pat, Cnt]) saveCell(position Pos) {
	if _, exists := p.backtrackMap[position]; exists {
		return
	}
	cell, ok := p.wave[position]
	if !ok {
		return
	}
	var buf waveCell[Pos, Offset, Pat, Cnt]
	if n := len(p.backtrackCells); n > 0 {
		buf = p.backtrackCells[n-1]
		p.backtrackCells = p.backtrackCells[:n-1]
	}
	cell.cloneInto(&buf)
	p.backtrackMap[position] = buf
}

// clearBacktrack discards the current snapshot, returning its buffers to
// the free list, after a successful observation.
func (p *Propagator[Pos, Offset, Pat, Cnt]) clearBacktrack() {
	for pos, cell := range p.backtrackMap {
		p.backtrackCells = append(p.backtrackCells, cell)
		delete(p.backtrackMap, pos)
	}
}

// backtrack restores every snapshotted cell, swapping the live cell's
// buffer into the free list for reuse.
func (p *Propagator[Pos, Offset, Pat, Cnt]) backtrack() {
	for pos, snapshot := range p.backtrackMap {
		if live, ok := p.wave[pos]; ok {
			p.wave[pos] = snapshot
			p.backtrackCells = append(p.backtrackCells, live)
		}
		delete(p.backtrackMap, pos)
	}
}

// findMinEntropy picks one cell to observe: among cells with more than
// one remaining possibility, the one with the smallest entropy plus a
// small uniform noise term, used to break ties between cells of equal
// true entropy. Strict less-than is used both for the pre-check and for
// comparing candidates, so the first cell encountered with a given score
// wins identical scores - see DESIGN.md for why this is preserved rather
// than "fixed".
func (p *Propagator[Pos, Offset, Pat, Cnt]) findMinEntropy(rng RNG) (Pos, bool) {
	var minPos Pos
	found := false
	minEntropy := math.Inf(1)
	for pos, cell := range p.wave {
		if len(cell.possibilities) <= 1 || cell.entropy >= minEntropy {
			continue
		}
		noise := uniform(rng, 0, p.limits.maximumNoise)
		entropy := cell.entropy + noise
		if entropy < minEntropy {
			minEntropy = entropy
			minPos = pos
			found = true
		}
	}
	return minPos, found
}

// chooseRandomPattern draws a pattern from position's possibilities via
// stochastic acceptance, using cell.sum (the total posterior mass of
// still-possible patterns) rather than 1.0 as the draw's upper bound, so
// it renormalizes on the fly without a division. If floating-point drift
// ever lets the loop exit without returning, the first possibility
// encountered is used - this fallback is not expected to execute.
func (p *Propagator[Pos, Offset, Pat, Cnt]) chooseRandomPattern(position Pos, rng RNG, constraint Constrain[Pat, Offset]) (Pat, bool) {
	cell, ok := p.wave[position]
	if !ok {
		var zero Pat
		return zero, false
	}
	target := uniform(rng, 0, cell.sum)
	for pattern := range cell.possibilities {
		target -= constraint.ProbabilityOf(pattern)
		if target <= 0 {
			return pattern, true
		}
	}
	for pattern := range cell.possibilities {
		return pattern, true
	}
	var zero Pat
	return zero, false
}

// setCell forcibly collapses the cell at position to exactly {pattern}.
func (p *Propagator[Pos, Offset, Pat, Cnt]) setCell(position Pos, pattern Pat, constraint Constrain[Pat, Offset]) error {
	cell, ok := p.wave[position]
	if !ok {
		return ErrContradiction
	}
	full := cell.possibilities
	keptCounter, has := full[pattern]
	if !has {
		return ErrContradiction
	}
	delete(full, pattern)

	// Take the possibilities out of the live cell while removed patterns
	// are propagated, matching the reference's temporary-move: if a
	// neighbor update below fails, the cell is left empty in the wave
	// and must be repaired by the caller's backtrack.
	cell.possibilities = make(map[Pat]Cnt)
	p.wave[position] = cell

	for other := range full {
		delete(full, other)
		if err := p.afterRestrict(position, other, constraint); err != nil {
			return err
		}
	}

	full[pattern] = keptCounter
	cell = p.wave[position]
	cell.possibilities = full
	p.wave[position] = cell
	return p.verify(position, constraint)
}

// restrict removes pattern from position's possibilities, if present. A
// cell left with zero possibilities is a contradiction; a cell left with
// exactly one is verified against its neighbors. The natural-log update
// of logSum here is deliberately inconsistent with fillFrom's base-10
// logSum (see limits.go); both are preserved from the reference.
func (p *Propagator[Pos, Offset, Pat, Cnt]) restrict(position Pos, pattern Pat, constraint Constrain[Pat, Offset]) error {
	cell, ok := p.wave[position]
	if !ok {
		return nil
	}
	if _, has := cell.possibilities[pattern]; !has {
		return nil
	}
	delete(cell.possibilities, pattern)
	remaining := len(cell.possibilities)
	p.wave[position] = cell
	if remaining == 0 {
		return ErrContradiction
	}
	if remaining == 1 {
		if err := p.verify(position, constraint); err != nil {
			return err
		}
	}
	plogp, tracked := p.limits.plogpMap[pattern]
	if !tracked {
		return nil
	}
	cell = p.wave[position]
	cell.plogpSum -= plogp
	cell.sum -= constraint.ProbabilityOf(pattern)
	cell.logSum = math.Log(cell.sum)
	cell.entropy = cell.logSum - cell.plogpSum/cell.sum
	p.wave[position] = cell
	return p.afterRestrict(position, pattern, constraint)
}

// afterRestrict applies the consequence of pattern no longer being
// possible at position: every neighbor pattern that required pattern's
// support in this direction has its counter decremented, and is queued
// for removal once its counter reaches zero.
func (p *Propagator[Pos, Offset, Pat, Cnt]) afterRestrict(position Pos, pattern Pat, constraint Constrain[Pat, Offset]) error {
	for _, offset := range p.offsets {
		otherPos := position.Add(offset)
		otherCell, ok := p.wave[otherPos]
		if !ok {
			continue
		}
		for otherPattern, counter := range otherCell.possibilities {
			if !constraint.IsLegal(pattern, offset, otherPattern) {
				continue
			}
			newCounter, newValue := counter.Decremented(offset)
			otherCell.possibilities[otherPattern] = newCounter
			if newValue == 0 {
				p.pending = append(p.pending, posPat[Pos, Pat]{otherPos, otherPattern})
			}
		}
		if len(otherCell.possibilities) == 0 {
			return ErrContradiction
		}
	}
	return nil
}

// verify checks, for a cell that has just been reduced to a single
// pattern, that every neighbor still contains at least one pattern
// compatible with it.
func (p *Propagator[Pos, Offset, Pat, Cnt]) verify(position Pos, constraint Constrain[Pat, Offset]) error {
	cell, ok := p.wave[position]
	if !ok {
		return nil
	}
	pat, ok := cell.single()
	if !ok {
		return nil
	}
	for _, offset := range p.offsets {
		otherPos := position.Add(offset)
		otherCell, ok := p.wave[otherPos]
		if !ok {
			continue
		}
		supported := false
		for q := range otherCell.possibilities {
			if constraint.IsLegal(pat, offset, q) {
				supported = true
				break
			}
		}
		if !supported {
			return ErrContradiction
		}
	}
	return nil
}

// Propagate pops one (position, pattern) restriction from the work
// stack and applies it, splicing any new restrictions it produces onto
// the stack. Returns Finish once the stack is empty.
func (p *Propagator[Pos, Offset, Pat, Cnt]) Propagate(constraint Constrain[Pat, Offset]) (ControlFlow, error) {
	n := len(p.propagating)
	if n == 0 {
		return Finish, nil
	}
	next := p.propagating[n-1]
	p.propagating = p.propagating[:n-1]
	if err := p.restrict(next.pos, next.pat, constraint); err != nil {
		return Continue, err
	}
	p.propagating = append(p.propagating, p.pending...)
	p.pending = p.pending[:0]
	return Continue, nil
}

// PropagateUntilFinished repeatedly calls Propagate until the work stack
// is empty.
func (p *Propagator[Pos, Offset, Pat, Cnt]) PropagateUntilFinished(constraint Constrain[Pat, Offset]) error {
	for {
		cf, err := p.Propagate(constraint)
		if err != nil {
			return err
		}
		if cf == Finish {
			return nil
		}
	}
}

// ObserveRandomCell performs one observation: it flushes pending
// propagation, selects the minimum-entropy cell, draws a pattern for it,
// and collapses the cell to that pattern. If the collapse immediately
// contradicts, the single-step backtrack restores the snapshotted cells
// and retries by excluding the drawn pattern instead of committing to
// it - this is the only backtracking the solver performs. Either way the
// restrictions it queued are then propagated to completion, so the work
// stack is empty when it returns without error. Returns Finish when no
// cell has more than one possibility left.
func (p *Propagator[Pos, Offset, Pat, Cnt]) ObserveRandomCell(rng RNG, constraint Constrain[Pat, Offset]) (ControlFlow, error) {
	if err := p.PropagateUntilFinished(constraint); err != nil {
		return Continue, err
	}
	position, ok := p.findMinEntropy(rng)
	if !ok {
		return Finish, nil
	}
	pattern, ok := p.chooseRandomPattern(position, rng, constraint)
	if !ok {
		return Continue, ErrContradiction
	}

	p.saveCell(position)
	for _, offset := range p.offsets {
		p.saveCell(position.Add(offset))
	}

	if err := p.setCell(position, pattern, constraint); err != nil {
		p.backtrack()
		p.backtracks++
		p.pending = p.pending[:0]
		if err := p.restrict(position, pattern, constraint); err != nil {
			return Continue, err
		}
		p.propagating = append(p.propagating, p.pending...)
		p.pending = p.pending[:0]
		return Continue, p.PropagateUntilFinished(constraint)
	}

	p.clearBacktrack()
	p.propagating = append(p.propagating, p.pending...)
	p.pending = p.pending[:0]
	return Continue, p.PropagateUntilFinished(constraint)
}

// BacktrackCount returns the number of single-step backtracks taken
// since the last FillFrom, for telemetry.
func (p *Propagator[Pos, Offset, Pat, Cnt]) BacktrackCount() int {
	return p.backtracks
}

// ObserveAll repeatedly calls ObserveRandomCell until the wave is fully
// collapsed or a contradiction occurs.
func (p *Propagator[Pos, Offset, Pat, Cnt]) ObserveAll(rng RNG, constraint Constrain[Pat, Offset]) error {
	for {
		cf, err := p.ObserveRandomCell(rng, constraint)
		if err != nil {
			return err
		}
		if cf == Finish {
			return nil
		}
	}
}
