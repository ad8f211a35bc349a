package terrain

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// catalogRow is one line of a pattern catalog CSV file: a pattern token,
// the frequency it was observed with, the terrain key it belongs to
// (only used by LoadCSVWithTerrain), and the concrete value token it
// represents.
type catalogRow struct {
	Pattern   string  `csv:"pattern"`
	Frequency float64 `csv:"frequency"`
	Terrain   string  `csv:"terrain"`
	Value     string  `csv:"value"`
}

// LoadCSV reads a pattern catalog from path and returns a finalized
// Catalog using Finalize (plain proportional normalization). parsePattern
// and parseValue convert the CSV's string columns into the caller's
// concrete Pat and V types; legal supplies adjacency as in New.
func LoadCSV[Pat comparable, Offset comparable, V any](
	path string,
	legal func(from Pat, offset Offset, to Pat) bool,
	parsePattern func(string) (Pat, error),
	parseValue func(string) (V, error),
) (*Catalog[Pat, Offset, V], error) {
	rows, err := readCatalogRows(path)
	if err != nil {
		return nil, err
	}
	catalog := New[Pat, Offset, V](legal)
	for i, row := range rows {
		pattern, err := parsePattern(row.Pattern)
		if err != nil {
			return nil, fmt.Errorf("terrain: row %d: parsing pattern %q: %w", i, row.Pattern, err)
		}
		value, err := parseValue(row.Value)
		if err != nil {
			return nil, fmt.Errorf("terrain: row %d: parsing value %q: %w", i, row.Value, err)
		}
		catalog.Add(pattern, row.Frequency, value)
	}
	catalog.Finalize()
	return catalog, nil
}

// LoadCSVWithTerrain is LoadCSV, but finalizes using FinalizeWithTerrain
// so that terrains represented by many patterns don't dominate the
// prior distribution. The CSV's terrain column supplies the terrain key
// per pattern; a pattern seen under more than one terrain keeps whichever
// terrain its last row specified.
func LoadCSVWithTerrain[Pat comparable, Offset comparable, V any](
	path string,
	legal func(from Pat, offset Offset, to Pat) bool,
	parsePattern func(string) (Pat, error),
	parseValue func(string) (V, error),
) (*Catalog[Pat, Offset, V], error) {
	rows, err := readCatalogRows(path)
	if err != nil {
		return nil, err
	}
	catalog := New[Pat, Offset, V](legal)
	terrainOf := make(map[Pat]string, len(rows))
	for i, row := range rows {
		pattern, err := parsePattern(row.Pattern)
		if err != nil {
			return nil, fmt.Errorf("terrain: row %d: parsing pattern %q: %w", i, row.Pattern, err)
		}
		value, err := parseValue(row.Value)
		if err != nil {
			return nil, fmt.Errorf("terrain: row %d: parsing value %q: %w", i, row.Value, err)
		}
		catalog.Add(pattern, row.Frequency, value)
		terrainOf[pattern] = row.Terrain
	}
	catalog.FinalizeWithTerrain(func(p Pat) string { return terrainOf[p] })
	return catalog, nil
}

// WriteCatalogCSV writes rows in catalogRow's format to path, for tools
// like cmd/wfcgen's -synth mode that synthesize a catalog rather than
// reading one.
func WriteCatalogCSV(path string, rows []CatalogRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("terrain: creating catalog %s: %w", path, err)
	}
	defer f.Close()

	out := make([]*catalogRow, len(rows))
	for i, r := range rows {
		out[i] = &catalogRow{Pattern: r.Pattern, Frequency: r.Frequency, Terrain: r.Terrain, Value: r.Value}
	}
	if err := gocsv.MarshalFile(&out, f); err != nil {
		return fmt.Errorf("terrain: marshalling catalog %s: %w", path, err)
	}
	return nil
}

// CatalogRow is one synthesized catalog entry, ready to write with
// WriteCatalogCSV.
type CatalogRow struct {
	Pattern   string
	Frequency float64
	Terrain   string
	Value     string
}

func readCatalogRows(path string) ([]*catalogRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("terrain: opening catalog %s: %w", path, err)
	}
	defer f.Close()

	var rows []*catalogRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("terrain: unmarshalling catalog %s: %w", path, err)
	}
	return rows, nil
}
