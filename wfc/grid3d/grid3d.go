// Package grid3d is a 6-neighbor position kind for wfc.Propagator: an
// integer (X, Y, Z) coordinate and its North/East/South/West/Up/Down
// offsets.
package grid3d

import "fmt"

// Offset is one of the six directions from a cell to a face-adjacent
// neighbor. Its value is also its slot index in Counter; the order below
// must match the order Offsets returns.
type Offset int

const (
	North Offset = iota
	East
	South
	West
	Up
	Down
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
	case Up:
		return "Up"
	case Down:
		return "Down"
	default:
		return "Offset(?)"
	}
}

func (o Offset) delta() (dx, dy, dz int32) {
	switch o {
	case North:
		return 0, -1, 0
	case East:
		return 1, 0, 0
	case South:
		return 0, 1, 0
	case West:
		return -1, 0, 0
	case Up:
		return 0, 0, 1
	case Down:
		return 0, 0, -1
	default:
		return 0, 0, 0
	}
}

// Offsets returns the six offsets in their stable counter-slot order.
// Pass this to wfc.NewPropagator when building a 3D solve.
func Offsets() []Offset {
	return []Offset{North, East, South, West, Up, Down}
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
	case "Up":
		return Up, nil
	case "Down":
		return Down, nil
	default:
		return 0, fmt.Errorf("grid3d: unknown offset %q", s)
	}
}

// Point is an integer 3D grid coordinate.
type Point struct {
	X, Y, Z int32
}

// Add returns the neighbor reached by moving one step in offset's
// direction.
func (p Point) Add(offset Offset) Point {
	dx, dy, dz := offset.delta()
	return Point{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Counter tracks, per offset, how many patterns in that neighbor
// direction still support a pattern.
type Counter [6]int

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
