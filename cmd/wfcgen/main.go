// Package main is wfcgen, a headless CLI that solves a wave function
// collapse grid from a pattern catalog and adjacency table, retrying
// with fresh seeds on contradiction and recording telemetry for each
// attempt.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/wfc/config"
	"github.com/pthm-cable/wfc/telemetry"
	"github.com/pthm-cable/wfc/terrain"
	"github.com/pthm-cable/wfc/wfc"
	"github.com/pthm-cable/wfc/wfc/grid2d"
	"github.com/pthm-cable/wfc/wfc/grid3d"
)

// formatDuration formats a duration as 1h02m03s, or as 2m03s when it is
// under an hour, matching cmd/optimize's progress output.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	catalogPath := flag.String("catalog", "", "Pattern catalog CSV path (overrides config)")
	adjacencyPath := flag.String("adjacency", "", "Adjacency CSV path (empty = permissive/universal)")
	outputDir := flag.String("output", "", "Telemetry output directory (overrides config)")
	synth := flag.Bool("synth", false, "Synthesize the catalog from opensimplex noise instead of reading -catalog")
	width := flag.Int("width", 0, "Grid width override (0 keeps config)")
	height := flag.Int("height", 0, "Grid height override (0 keeps config)")
	depth := flag.Int("depth", -1, "Grid depth override, 0 selects 2D and >0 selects 3D (-1 keeps config)")
	seed := flag.Int64("seed", 0, "Solve seed override (0 keeps config)")
	retries := flag.Int("retries", 0, "Retry budget override (0 keeps config)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("loading config: %v", err)
	}
	cfg := config.Cfg()

	if *catalogPath != "" {
		cfg.Catalog.Path = *catalogPath
	}
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}
	if *width > 0 {
		cfg.Grid.Width = int32(*width)
	}
	if *height > 0 {
		cfg.Grid.Height = int32(*height)
	}
	if *depth >= 0 {
		cfg.Grid.Depth = int32(*depth)
	}
	if *seed != 0 {
		cfg.Solve.Seed = *seed
	}
	if *retries > 0 {
		cfg.Solve.RetryBudget = *retries
	}

	if cfg.Catalog.Path == "" {
		log.Fatal("--catalog is required (or set catalog.path in config)")
	}

	if *synth {
		rows, err := synthesizeCatalog(cfg)
		if err != nil {
			log.Fatalf("synthesizing catalog: %v", err)
		}
		if err := terrain.WriteCatalogCSV(cfg.Catalog.Path, rows); err != nil {
			log.Fatalf("writing synthesized catalog: %v", err)
		}
		fmt.Printf("Synthesized catalog written to %s (%d patterns)\n", cfg.Catalog.Path, len(rows))
	}

	om, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		log.Fatalf("creating output manager: %v", err)
	}
	if om != nil {
		defer om.Close()
		if err := om.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config snapshot", "error", err)
		}
	}

	bookmarkDetector := telemetry.NewBookmarkDetector(cfg.Bookmarks.HistorySize)
	hof := telemetry.NewHallOfFame(10)
	patternTracker := telemetry.NewPatternTracker()

	start := time.Now()

	var solveErr error
	var assignedCount, totalCells int

	if cfg.Grid.Depth > 0 {
		catalog, buildErr := buildCatalog[grid3d.Offset](cfg, *adjacencyPath, grid3d.ParseOffset)
		if buildErr != nil {
			log.Fatalf("building catalog: %v", buildErr)
		}
		cells := grid3DCells(cfg)
		assigned, _, err := solveWithRetries[grid3d.Point, grid3d.Offset, grid3d.Counter](
			cfg, grid3d.Offsets(), cells, catalog, om, bookmarkDetector, hof, patternTracker)
		solveErr = err
		assignedCount, totalCells = len(assigned), len(cells)
	} else {
		catalog, buildErr := buildCatalog[grid2d.Offset](cfg, *adjacencyPath, grid2d.ParseOffset)
		if buildErr != nil {
			log.Fatalf("building catalog: %v", buildErr)
		}
		cells := grid2DCells(cfg)
		assigned, _, err := solveWithRetries[grid2d.Point, grid2d.Offset, grid2d.Counter](
			cfg, grid2d.Offsets(), cells, catalog, om, bookmarkDetector, hof, patternTracker)
		solveErr = err
		assignedCount, totalCells = len(assigned), len(cells)
	}

	if om != nil {
		if err := om.WriteHallOfFame(hof); err != nil {
			slog.Error("failed to write hall of fame", "error", err)
		}
	}

	if solveErr != nil {
		log.Fatalf("no solution found after %s: %v", formatDuration(time.Since(start)), solveErr)
	}

	fmt.Printf("Solved %d/%d cells in %s (%d distinct patterns seen)\n",
		assignedCount, totalCells, formatDuration(time.Since(start)), patternTracker.Count())
}

// grid2DCells enumerates every cell of a cfg.Grid.Width x cfg.Grid.Height
// 2D grid, row-major.
func grid2DCells(cfg *config.Config) []grid2d.Point {
	cells := make([]grid2d.Point, 0, cfg.Grid.Width*cfg.Grid.Height)
	for y := int32(0); y < cfg.Grid.Height; y++ {
		for x := int32(0); x < cfg.Grid.Width; x++ {
			cells = append(cells, grid2d.Point{X: x, Y: y})
		}
	}
	return cells
}

// grid3DCells enumerates every cell of a Width x Height x Depth 3D grid.
func grid3DCells(cfg *config.Config) []grid3d.Point {
	cells := make([]grid3d.Point, 0, cfg.Grid.Width*cfg.Grid.Height*cfg.Grid.Depth)
	for z := int32(0); z < cfg.Grid.Depth; z++ {
		for y := int32(0); y < cfg.Grid.Height; y++ {
			for x := int32(0); x < cfg.Grid.Width; x++ {
				cells = append(cells, grid3d.Point{X: x, Y: y, Z: z})
			}
		}
	}
	return cells
}

// buildCatalog loads the configured catalog CSV, normalizing either
// plainly or by terrain per cfg.Catalog.NormalizeByTerrain, against an
// adjacency rule loaded from adjacencyPath (or Universal if empty).
func buildCatalog[Offset comparable](cfg *config.Config, adjacencyPath string, parseOffset func(string) (Offset, error)) (*terrain.Catalog[string, Offset, string], error) {
	var rule *terrain.AdjacencyRule[Offset]
	if adjacencyPath != "" {
		r, err := terrain.LoadAdjacencyCSV[Offset](adjacencyPath, parseOffset)
		if err != nil {
			return nil, err
		}
		rule = r
	} else {
		rule = terrain.Universal[Offset]()
	}

	identity := func(s string) (string, error) { return s, nil }
	if cfg.Catalog.NormalizeByTerrain {
		return terrain.LoadCSVWithTerrain[string, Offset, string](cfg.Catalog.Path, rule.IsLegal, identity, identity)
	}
	return terrain.LoadCSV[string, Offset, string](cfg.Catalog.Path, rule.IsLegal, identity, identity)
}

// solveWithRetries runs whole-solve attempts, each with a fresh RNG seed
// derived from cfg.Solve.Seed, until one succeeds or the retry budget is
// exhausted. This whole-solve retry lives here rather than inside
// wfc.Propagator: the core never retries itself (see wfc.ErrContradiction).
func solveWithRetries[Pos wfc.Position[Pos, Offset], Offset comparable, Cnt wfc.Counter[Cnt, Offset]](
	cfg *config.Config,
	offsets []Offset,
	cells []Pos,
	catalog *terrain.Catalog[string, Offset, string],
	om *telemetry.OutputManager,
	bookmarkDetector *telemetry.BookmarkDetector,
	hof *telemetry.HallOfFame,
	patternTracker *telemetry.PatternTracker,
) ([]wfc.AssignedPattern[Pos, string], telemetry.RunStats, error) {
	budget := cfg.Solve.RetryBudget
	if budget <= 0 {
		budget = 1
	}
	maxObserve := cfg.Solve.MaxObserve
	if maxObserve <= 0 {
		maxObserve = len(cells) * 4
	}

	var last telemetry.RunStats
	start := time.Now()

	for attempt := 1; attempt <= budget; attempt++ {
		seed := cfg.Solve.Seed + int64(attempt-1)
		rng := rand.New(rand.NewSource(seed))

		p := wfc.NewPropagator[Pos, Offset, string, Cnt](offsets)
		p.FillFrom(catalog)
		for _, c := range cells {
			p.AddCell(c)
		}

		collector := telemetry.NewCollector(attempt, seed, len(cells))
		attemptStart := time.Now()

		var solveErr error
		for observeCount := 0; ; observeCount++ {
			if observeCount >= maxObserve {
				solveErr = wfc.ErrContradiction
				collector.Record(telemetry.Event{Type: telemetry.EventContradiction})
				break
			}
			cf, err := p.ObserveRandomCell(rng, catalog)
			if err != nil {
				solveErr = err
				collector.Record(telemetry.Event{Type: telemetry.EventContradiction})
				break
			}
			collector.Record(telemetry.Event{Type: telemetry.EventObserve, CellsAfter: len(p.AssignedPatterns())})
			if cf == wfc.Finish {
				collector.Record(telemetry.Event{Type: telemetry.EventFinished})
				break
			}
		}

		for i := 0; i < p.BacktrackCount(); i++ {
			collector.Record(telemetry.Event{Type: telemetry.EventBacktrack})
		}

		assigned := p.AssignedPatterns()
		stats := collector.Finish(len(assigned), solveErr == nil)
		last = stats

		fmt.Printf("Attempt %d/%d: seed=%d assigned=%d/%d backtracks=%d success=%v elapsed=%s\n",
			attempt, budget, seed, len(assigned), len(cells), p.BacktrackCount(), solveErr == nil,
			formatDuration(time.Since(attemptStart)))

		if om != nil {
			if err := om.WriteRunStats(stats); err != nil {
				slog.Error("failed to write run stats", "error", err)
			}
		}

		for _, bm := range bookmarkDetector.Check(stats) {
			bm.LogBookmark()
			if om != nil {
				if err := om.WriteBookmark(bm); err != nil {
					slog.Error("failed to write bookmark", "error", err)
				}
			}
		}
		hof.Consider(stats)

		if solveErr == nil {
			for _, ap := range assigned {
				patternTracker.RecordAssignment(ap.Pattern, attempt)
			}
			slog.Info("solve succeeded", "attempt", attempt, "seed", seed, "elapsed", time.Since(start).String())
			return assigned, stats, nil
		}

		slog.Warn("solve failed, retrying", "attempt", attempt, "seed", seed, "error", solveErr)
	}

	return nil, last, fmt.Errorf("wfcgen: exhausted retry budget (%d attempts) without a solution", budget)
}

// synthPattern is one built-in candidate pattern for -synth mode: a
// pattern/terrain/value triple and the 2D coordinate its frequency is
// sampled at. Real deployments should build a catalog CSV for their own
// pattern set with -catalog instead; -synth exists to produce a
// plausible starting catalog without one.
type synthPattern struct {
	Pattern, Terrain, Value string
	U, V                    float64
}

var builtinSynthPatterns = []synthPattern{
	{"grass", "plains", "grass-tile", 0.10, 0.10},
	{"dirt", "plains", "dirt-tile", 0.25, 0.15},
	{"forest", "plains", "forest-tile", 0.15, 0.65},
	{"water", "lake", "water-tile", 0.60, 0.40},
	{"sand", "shore", "sand-tile", 0.75, 0.55},
	{"stone", "mountain", "stone-tile", 0.30, 0.80},
}

// synthesizeCatalog assigns each built-in pattern a frequency weight
// sampled from fractal 2D OpenSimplex noise at its terrain coordinate,
// in the same direct-import style systems/resource_field.go uses for its
// resource field, scaled down from resource_field.go's 4D torus tiling
// to a plain 2D sample since a catalog weight needs no spatial tiling.
func synthesizeCatalog(cfg *config.Config) ([]terrain.CatalogRow, error) {
	noise := opensimplex.New(cfg.Synth.Seed)
	octaves := cfg.Synth.Octaves
	if octaves <= 0 {
		octaves = 1
	}
	freq := cfg.Synth.Frequency
	if freq <= 0 {
		freq = 1
	}

	rows := make([]terrain.CatalogRow, 0, len(builtinSynthPatterns))
	for _, sp := range builtinSynthPatterns {
		n := fbm2D(noise, sp.U, sp.V, freq, octaves)
		frequency := 1.0 + n*99.0
		rows = append(rows, terrain.CatalogRow{
			Pattern:   sp.Pattern,
			Frequency: frequency,
			Terrain:   sp.Terrain,
			Value:     sp.Value,
		})
	}
	return rows, nil
}

// fbm2D sums octaves of 2D OpenSimplex noise at doubling frequency and
// halving amplitude, the same accumulation resource_field.go's fbmTiled
// uses for its 4D field, shifted from OpenSimplex's native [-1, 1] range
// to [0, 1].
func fbm2D(noise opensimplex.Noise, u, v, freq float64, octaves int) float64 {
	sum := 0.0
	amp := 0.5
	f := freq
	for o := 0; o < octaves; o++ {
		n := (noise.Eval2(u*f, v*f) + 1) * 0.5
		sum += amp * n
		f *= 2.0
		amp *= 0.5
	}
	return sum
}
