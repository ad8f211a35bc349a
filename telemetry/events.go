package telemetry

// EventType identifies a discrete occurrence during a solve attempt,
// recorded by Collector and replayed into RunStats.
type EventType uint8

const (
	EventObserve EventType = iota
	EventBacktrack
	EventContradiction
	EventFinished
)

// Event represents a single telemetry event emitted during propagation.
type Event struct {
	Type       EventType
	CellsAfter int // count of assigned cells at the time of the event
}
