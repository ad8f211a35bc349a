// Package grid2d is a 4-neighbor (orthogonal) position kind for
// wfc.Propagator: an integer (X, Y) coordinate and its North/East/South/
// West offsets.
package grid2d

import "fmt"

// Offset is one of the four directions from a cell to an orthogonal
// neighbor. Its value is also its slot index in Counter, so the order
// below is load-bearing: it must match the order Offsets returns.
type Offset int

const (
	North Offset = iota
	East
	South
	West
)

func (o Offset) String() string {
	switch o {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return "Offset(?)"
	}
}

// delta is the (dx, dy) step for the offset, Y increasing downward to
// match screen space (cmd/wfcviewer draws row Y at Y*cell_pixels).
func (o Offset) delta() (dx, dy int32) {
	switch o {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	default:
		return 0, 0
	}
}

// Offsets returns the four offsets in their stable counter-slot order.
// Pass this to wfc.NewPropagator when building a 2D solve.
func Offsets() []Offset {
	return []Offset{North, East, South, West}
}

// ParseOffset parses an offset's String() form, for CLI tools reading
// adjacency rules from CSV or config.
func ParseOffset(s string) (Offset, error) {
	switch s {
	case "North":
		return North, nil
	case "East":
		return East, nil
	case "South":
		return South, nil
	case "West":
		return West, nil
	default:
		return 0, fmt.Errorf("grid2d: unknown offset %q", s)
	}
}

// Point is an integer 2D grid coordinate.
type Point struct {
	X, Y int32
}

// Add returns the neighbor reached by moving one step in offset's
// direction.
func (p Point) Add(offset Offset) Point {
	dx, dy := offset.delta()
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Counter tracks, per offset, how many patterns in that neighbor
// direction still support a pattern. Value-typed so it can be stored by
// value in a map and updated by get/modify/store.
type Counter [4]int

// Count returns the current value for offset.
func (c Counter) Count(offset Offset) int {
	return c[offset]
}

// WithCount returns a copy of c with the slot for offset set to value.
func (c Counter) WithCount(offset Offset, value int) Counter {
	c[offset] = value
	return c
}

// Decremented returns a copy of c with the slot for offset decremented
// by one, along with the slot's new value.
func (c Counter) Decremented(offset Offset) (Counter, int) {
	c[offset]--
	return c, c[offset]
}
