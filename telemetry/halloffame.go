package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// HallEntry records one successful attempt worth keeping for comparison,
// ranked by Fitness (higher is better: fewer backtracks, less time).
type HallEntry struct {
	Stats   RunStats
	Fitness float32
}

// HallOfFame keeps the best attempts seen across a run, sorted
// descending by fitness and capped to a fixed size.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates a hall of fame with the given capacity.
func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{entries: make([]HallEntry, 0, maxSize), maxSize: maxSize}
}

// Consider evaluates an attempt's stats for hall of fame entry. Only
// successful attempts are eligible. Returns true if the attempt was
// added.
func (hof *HallOfFame) Consider(stats RunStats) bool {
	if !stats.Success {
		return false
	}
	entry := HallEntry{Stats: stats, Fitness: calculateFitness(stats)}
	hof.entries = insertEntry(hof.entries, entry, hof.maxSize)
	for _, e := range hof.entries {
		if e.Stats.Attempt == stats.Attempt && e.Stats.Seed == stats.Seed {
			return true
		}
	}
	return false
}

// calculateFitness rewards fewer backtracks and less time spent; both
// terms are inverted so that higher is always better.
func calculateFitness(stats RunStats) float32 {
	backtrackPenalty := float32(stats.Backtracks) + 1
	durationPenalty := float32(stats.DurationMS) + 1
	return 1000.0/backtrackPenalty + 1000.0/durationPenalty
}

// insertEntry adds entry to hall, maintaining descending sort order by
// fitness, and trims to maxSize.
func insertEntry(hall []HallEntry, entry HallEntry, maxSize int) []HallEntry {
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	if len(hall) >= maxSize && idx >= maxSize {
		return hall
	}

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	if len(hall) > maxSize {
		hall = hall[:maxSize]
	}
	return hall
}

// Best returns the highest-fitness entry, or the zero value and false if
// the hall is empty.
func (hof *HallOfFame) Best() (HallEntry, bool) {
	if len(hof.entries) == 0 {
		return HallEntry{}, false
	}
	return hof.entries[0], true
}

// Size returns the number of entries currently held.
func (hof *HallOfFame) Size() int {
	return len(hof.entries)
}

// MarshalJSON serializes the hall of fame to JSON.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(hof.entries, "", "  ")
}

// LoadHallOfFameFromFile reads a hall of fame JSON file.
func LoadHallOfFameFromFile(path string, maxSize int) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var entries []HallEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	if maxSize < len(entries) {
		maxSize = len(entries)
	}
	hof := NewHallOfFame(maxSize)
	for _, e := range entries {
		hof.entries = insertEntry(hof.entries, e, hof.maxSize)
	}
	return hof, nil
}
