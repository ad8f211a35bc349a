// Package main is wfcviewer, a raylib window that drives a 2D wave
// function collapse grid one observation at a time and renders its
// collapsing state live, with a raygui panel to seed, step and run it.
package main

import (
	"flag"
	"fmt"
	"hash/fnv"
	"log"
	"log/slog"
	"math/rand"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/wfc/config"
	"github.com/pthm-cable/wfc/terrain"
	"github.com/pthm-cable/wfc/wfc"
	"github.com/pthm-cable/wfc/wfc/grid2d"
)

const panelWidth = 260

// CellView is the single ark component each wave cell's entity carries,
// mirroring game.Game's Position/Organism component split but collapsed
// to one struct since the viewer has nothing else to attach per cell.
type CellView struct {
	X, Y      int32
	Collapsed bool
	Pattern   string
}

func main() {
	cfgPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	catalogPath := flag.String("catalog", "", "Pattern catalog CSV path (overrides config)")
	adjacencyPath := flag.String("adjacency", "", "Adjacency CSV path (empty = permissive/universal)")
	seedFlag := flag.Int64("seed", 0, "Solve seed override (0 keeps config)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := config.Init(*cfgPath); err != nil {
		log.Fatalf("loading config: %v", err)
	}
	cfg := config.Cfg()
	if *catalogPath != "" {
		cfg.Catalog.Path = *catalogPath
	}
	if *seedFlag != 0 {
		cfg.Solve.Seed = *seedFlag
	}
	if cfg.Catalog.Path == "" {
		log.Fatal("--catalog is required (or set catalog.path in config)")
	}

	rule := buildAdjacency(*adjacencyPath)
	identity := func(s string) (string, error) { return s, nil }
	var catalog *terrain.Catalog[string, grid2d.Offset, string]
	var err error
	if cfg.Catalog.NormalizeByTerrain {
		catalog, err = terrain.LoadCSVWithTerrain[string, grid2d.Offset, string](cfg.Catalog.Path, rule.IsLegal, identity, identity)
	} else {
		catalog, err = terrain.LoadCSV[string, grid2d.Offset, string](cfg.Catalog.Path, rule.IsLegal, identity, identity)
	}
	if err != nil {
		log.Fatalf("loading catalog: %v", err)
	}

	v := newViewer(cfg, catalog)
	v.loop()
}

func buildAdjacency(path string) *terrain.AdjacencyRule[grid2d.Offset] {
	if path == "" {
		return terrain.Universal[grid2d.Offset]()
	}
	rule, err := terrain.LoadAdjacencyCSV[grid2d.Offset](path, grid2d.ParseOffset)
	if err != nil {
		log.Fatalf("loading adjacency: %v", err)
	}
	return rule
}

// viewer owns the propagator, the ark world mirroring its cells for
// rendering, and the raygui-driven run/step controls.
type viewer struct {
	cfg     *config.Config
	catalog *terrain.Catalog[string, grid2d.Offset, string]
	prop    *wfc.Propagator[grid2d.Point, grid2d.Offset, string, grid2d.Counter]
	rng     *rand.Rand

	world    *ecs.World
	cellMap  *ecs.Map1[CellView]
	cellFlt  *ecs.Filter1[CellView]
	entities map[grid2d.Point]ecs.Entity

	running bool
	done    bool
	failed  bool
	steps   int
}

func newViewer(cfg *config.Config, catalog *terrain.Catalog[string, grid2d.Offset, string]) *viewer {
	world := ecs.NewWorld()
	v := &viewer{
		cfg:      cfg,
		catalog:  catalog,
		prop:     wfc.NewPropagator[grid2d.Point, grid2d.Offset, string, grid2d.Counter](grid2d.Offsets()),
		rng:      rand.New(rand.NewSource(cfg.Solve.Seed)),
		world:    world,
		cellMap:  ecs.NewMap1[CellView](world),
		cellFlt:  ecs.NewFilter1[CellView](world),
		entities: make(map[grid2d.Point]ecs.Entity),
	}
	v.reset()
	return v
}

// reset rebuilds the propagator and the ark world's cell entities from
// scratch, for the initial grid and for a seed change at runtime.
func (v *viewer) reset() {
	v.prop.FillFrom(v.catalog)
	v.done, v.failed, v.steps = false, false, 0

	for pos, ent := range v.entities {
		v.world.RemoveEntity(ent)
		delete(v.entities, pos)
	}

	for y := int32(0); y < v.cfg.Grid.Height; y++ {
		for x := int32(0); x < v.cfg.Grid.Width; x++ {
			pos := grid2d.Point{X: x, Y: y}
			v.prop.AddCell(pos)
			cell := CellView{X: x, Y: y}
			v.entities[pos] = v.cellMap.NewEntity(&cell)
		}
	}
}

// step performs one observation and syncs every assigned cell's ark
// component from the propagator's wave, the same flush-after-mutate
// shape game.Game uses for its own per-tick ark writes.
func (v *viewer) step() {
	if v.done || v.failed {
		return
	}
	cf, err := v.prop.ObserveRandomCell(v.rng, v.catalog)
	v.steps++
	if err != nil {
		slog.Warn("solve failed", "steps", v.steps, "error", err)
		v.failed = true
		v.running = false
		return
	}
	for _, ap := range v.prop.AssignedPatterns() {
		ent, ok := v.entities[ap.Position]
		if !ok {
			continue
		}
		cell := v.cellMap.Get(ent)
		cell.Collapsed = true
		cell.Pattern = ap.Pattern
	}
	if cf == wfc.Finish {
		v.done = true
		v.running = false
		slog.Info("solve finished", "steps", v.steps)
	}
}

func (v *viewer) loop() {
	width := int32(v.cfg.Viewer.Width)
	height := int32(v.cfg.Viewer.Height)
	rl.InitWindow(width, height, "wfcviewer")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(v.cfg.Viewer.TargetFPS))

	cellPx := v.cfg.Viewer.CellPixels
	if cellPx <= 0 {
		cellPx = 16
	}

	for !rl.WindowShouldClose() {
		stepsPerTick := v.cfg.Viewer.StepsPerTick
		if stepsPerTick <= 0 {
			stepsPerTick = 1
		}
		if v.running {
			for i := 0; i < stepsPerTick; i++ {
				v.step()
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		query := v.cellFlt.Query()
		for query.Next() {
			cell := query.Get()
			color := rl.LightGray
			if cell.Collapsed {
				color = patternColor(cell.Pattern)
			}
			rl.DrawRectangle(cell.X*int32(cellPx), cell.Y*int32(cellPx), int32(cellPx)-1, int32(cellPx)-1, color)
		}

		v.drawPanel(width)

		rl.EndDrawing()
	}
}

func (v *viewer) drawPanel(width int32) {
	panelX := float32(width - panelWidth + 10)
	panelY := float32(10)

	rl.DrawRectangle(width-panelWidth, 0, panelWidth, 9000, rl.Fade(rl.LightGray, 0.3))
	rl.DrawText("wfcviewer", int32(panelX), int32(panelY), 20, rl.DarkGray)
	panelY += 30

	rl.DrawText(fmt.Sprintf("steps: %d", v.steps), int32(panelX), int32(panelY), 16, rl.DarkGray)
	panelY += 22
	status := "running"
	switch {
	case v.done:
		status = "done"
	case v.failed:
		status = "contradiction"
	case !v.running:
		status = "paused"
	}
	rl.DrawText("status: "+status, int32(panelX), int32(panelY), 16, rl.DarkGray)
	panelY += 30

	if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 110, Height: 30}, toggleLabel(v.running)) {
		v.running = !v.running
	}
	if gui.Button(rl.Rectangle{X: panelX + 120, Y: panelY, Width: 100, Height: 30}, "Step") {
		v.step()
	}
	panelY += 40

	if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 220, Height: 30}, "New Seed") {
		v.cfg.Solve.Seed++
		v.rng = rand.New(rand.NewSource(v.cfg.Solve.Seed))
		v.reset()
	}
}

func toggleLabel(running bool) string {
	if running {
		return "Pause"
	}
	return "Run"
}

// patternColor derives a stable color per pattern token via FNV hashing,
// so the same pattern always renders the same color across a run.
func patternColor(pattern string) rl.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(pattern))
	sum := h.Sum32()
	return rl.Color{
		R: uint8(sum),
		G: uint8(sum >> 8),
		B: uint8(sum >> 16),
		A: 255,
	}
}
