package terrain

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// adjacencyRow is one line of an adjacency CSV: pattern "from" may have
// pattern "to" at the given offset.
type adjacencyRow struct {
	From   string `csv:"from"`
	Offset string `csv:"offset"`
	To     string `csv:"to"`
}

// AdjacencyRule answers IsLegal queries for string patterns, built either
// from an explicit CSV table or as a permissive default.
type AdjacencyRule[Offset comparable] struct {
	allowed      map[string]map[Offset]map[string]bool
	defaultLegal bool
}

// Universal returns a rule that considers every pattern pair legal at
// every offset. Used as wfcgen's default when no -adjacency file is
// given: without an explicit catalog of constraints there is nothing
// more specific to enforce.
func Universal[Offset comparable]() *AdjacencyRule[Offset] {
	return &AdjacencyRule[Offset]{defaultLegal: true}
}

// LoadAdjacencyCSV reads an explicit (from, offset, to) legality table.
// Any pair not listed is illegal. parseOffset converts the CSV's offset
// column (e.g. "North") into the caller's Offset type.
func LoadAdjacencyCSV[Offset comparable](path string, parseOffset func(string) (Offset, error)) (*AdjacencyRule[Offset], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("terrain: opening adjacency table %s: %w", path, err)
	}
	defer f.Close()

	var rows []*adjacencyRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("terrain: unmarshalling adjacency table %s: %w", path, err)
	}

	rule := &AdjacencyRule[Offset]{allowed: make(map[string]map[Offset]map[string]bool)}
	for i, row := range rows {
		offset, err := parseOffset(row.Offset)
		if err != nil {
			return nil, fmt.Errorf("terrain: row %d: %w", i, err)
		}
		byOffset, ok := rule.allowed[row.From]
		if !ok {
			byOffset = make(map[Offset]map[string]bool)
			rule.allowed[row.From] = byOffset
		}
		toSet, ok := byOffset[offset]
		if !ok {
			toSet = make(map[string]bool)
			byOffset[offset] = toSet
		}
		toSet[row.To] = true
	}
	return rule, nil
}

// IsLegal implements the legal func signature expected by terrain.New
// and terrain.LoadCSV.
func (r *AdjacencyRule[Offset]) IsLegal(from string, offset Offset, to string) bool {
	byOffset, ok := r.allowed[from]
	if !ok {
		return r.defaultLegal
	}
	toSet, ok := byOffset[offset]
	if !ok {
		return r.defaultLegal
	}
	return toSet[to]
}
