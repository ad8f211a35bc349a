package terrain_test

import (
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/wfc/terrain"
)

func alwaysLegal(from string, _ int, to string) bool { return true }

func TestFinalizeNormalizesProportionally(t *testing.T) {
	c := terrain.New[string, int, string](alwaysLegal)
	c.Add("grass", 3, "grass-01")
	c.Add("water", 1, "water-01")
	c.Finalize()

	if got := c.ProbabilityOf("grass"); got < 0.74 || got > 0.76 {
		t.Fatalf("grass probability = %v, want ~0.75", got)
	}
	if got := c.ProbabilityOf("water"); got < 0.24 || got > 0.26 {
		t.Fatalf("water probability = %v, want ~0.25", got)
	}
}

func TestAddDropsNonPositiveFrequency(t *testing.T) {
	c := terrain.New[string, int, string](alwaysLegal)
	c.Add("grass", 0, "grass-01")
	c.Add("grass", -5, "grass-02")
	c.Finalize()
	if got := c.ProbabilityOf("grass"); got != 0 {
		t.Fatalf("expected zero probability for all-dropped pattern, got %v", got)
	}
	if _, ok := c.GetRandom(rand.New(rand.NewSource(1)), "grass"); ok {
		t.Fatal("expected GetRandom to fail when all additions were dropped")
	}
}

func TestFinalizeWithTerrainEvensOutUnevenTerrainCounts(t *testing.T) {
	c := terrain.New[string, int, string](alwaysLegal)
	// "plains" terrain has 3 patterns, "swamp" has 1, each pattern with
	// equal per-pattern frequency; without terrain normalization plains
	// would dominate 3:1.
	c.Add("plains-a", 10, "v1")
	c.Add("plains-b", 10, "v2")
	c.Add("plains-c", 10, "v3")
	c.Add("swamp-a", 10, "v4")
	terrainOf := map[string]string{
		"plains-a": "plains", "plains-b": "plains", "plains-c": "plains",
		"swamp-a": "swamp",
	}
	c.FinalizeWithTerrain(func(p string) string { return terrainOf[p] })

	plainsTotal := c.ProbabilityOf("plains-a") + c.ProbabilityOf("plains-b") + c.ProbabilityOf("plains-c")
	swampTotal := c.ProbabilityOf("swamp-a")
	if diff := plainsTotal - swampTotal; diff < -0.05 || diff > 0.05 {
		t.Fatalf("expected plains and swamp terrains weighted evenly, got plains=%v swamp=%v", plainsTotal, swampTotal)
	}
}

func TestGetRandomIsWeightedByFrequency(t *testing.T) {
	c := terrain.New[string, int, string](alwaysLegal)
	c.Add("grass", 99, "common")
	c.Add("grass", 1, "rare")
	c.Finalize()

	rng := rand.New(rand.NewSource(42))
	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		v, ok := c.GetRandom(rng, "grass")
		if !ok {
			t.Fatal("expected a value")
		}
		counts[v]++
	}
	if counts["common"] < counts["rare"]*10 {
		t.Fatalf("expected common to heavily outweigh rare, got %v", counts)
	}
}

func TestAllPatternsExcludesZeroProbability(t *testing.T) {
	c := terrain.New[string, int, string](alwaysLegal)
	c.Add("grass", 1, "grass-01")
	c.Finalize()
	patterns := c.AllPatterns()
	if len(patterns) != 1 || patterns[0] != "grass" {
		t.Fatalf("expected only [grass], got %v", patterns)
	}
}

func TestIsLegalDelegatesToConstructorFunc(t *testing.T) {
	c := terrain.New[string, int, string](func(from string, offset int, to string) bool {
		return from != to
	})
	if c.IsLegal("grass", 0, "grass") {
		t.Fatal("expected grass-grass to be illegal under injected func")
	}
	if !c.IsLegal("grass", 0, "water") {
		t.Fatal("expected grass-water to be legal under injected func")
	}
}

func TestLoadCSVParsesAndFinalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.csv")
	content := "pattern,frequency,terrain,value\n" +
		"grass,3,plains,grass-01\n" +
		"water,1,lake,water-01\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture csv: %v", err)
	}

	parsePattern := func(s string) (string, error) { return s, nil }
	parseValue := func(s string) (string, error) { return s, nil }

	c, err := terrain.LoadCSV[string, int, string](path, alwaysLegal, parsePattern, parseValue)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if got := c.ProbabilityOf("grass"); got < 0.74 || got > 0.76 {
		t.Fatalf("grass probability = %v, want ~0.75", got)
	}
	v, ok := c.GetRandom(rand.New(rand.NewSource(1)), "water")
	if !ok || v != "water-01" {
		t.Fatalf("GetRandom(water) = %q, %v, want water-01, true", v, ok)
	}
}

func TestLoadCSVWithTerrainUsesTerrainColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.csv")
	var content string
	content += "pattern,frequency,terrain,value\n"
	for i := 0; i < 3; i++ {
		content += "plains-" + strconv.Itoa(i) + ",10,plains,v\n"
	}
	content += "swamp-0,10,swamp,v\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture csv: %v", err)
	}

	parsePattern := func(s string) (string, error) { return s, nil }
	parseValue := func(s string) (string, error) { return s, nil }

	c, err := terrain.LoadCSVWithTerrain[string, int, string](path, alwaysLegal, parsePattern, parseValue)
	if err != nil {
		t.Fatalf("LoadCSVWithTerrain: %v", err)
	}
	plainsTotal := c.ProbabilityOf("plains-0") + c.ProbabilityOf("plains-1") + c.ProbabilityOf("plains-2")
	swampTotal := c.ProbabilityOf("swamp-0")
	if diff := plainsTotal - swampTotal; diff < -0.05 || diff > 0.05 {
		t.Fatalf("expected terrains weighted evenly, got plains=%v swamp=%v", plainsTotal, swampTotal)
	}
}

func TestLoadCSVPropagatesParseErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.csv")
	content := "pattern,frequency,terrain,value\nbad,1,plains,v\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture csv: %v", err)
	}
	parsePattern := func(s string) (string, error) {
		return "", errBadPattern
	}
	parseValue := func(s string) (string, error) { return s, nil }

	if _, err := terrain.LoadCSV[string, int, string](path, alwaysLegal, parsePattern, parseValue); err == nil {
		t.Fatal("expected parse error to propagate")
	}
}

// TestFinalizeEntropyMatchesIndependentCalculation cross-checks Finalize's
// normalization against gonum/stat.Entropy computed from the same raw
// frequencies, independent of the wfc package's own plogp bookkeeping.
func TestFinalizeEntropyMatchesIndependentCalculation(t *testing.T) {
	c := terrain.New[string, int, string](alwaysLegal)
	c.Add("grass", 6, "grass-01")
	c.Add("water", 2, "water-01")
	c.Finalize()

	probs := []float64{c.ProbabilityOf("grass"), c.ProbabilityOf("water")}
	got := stat.Entropy(probs)

	want := stat.Entropy([]float64{0.75, 0.25})
	if diff := got - want; diff < -1e-9 || diff > 1e-9 {
		t.Fatalf("entropy = %v, want %v", got, want)
	}
}

var errBadPattern = &parseError{"bad pattern"}

type parseError struct{ msg string }

func (e *parseError) Error() string { return e.msg }
