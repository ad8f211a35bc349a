// Package config provides configuration loading and access for wfcgen and
// wfcviewer.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all run configuration parameters.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Solve     SolveConfig     `yaml:"solve"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Synth     SynthConfig     `yaml:"synth"`
	Viewer    ViewerConfig    `yaml:"viewer"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Bookmarks BookmarksConfig `yaml:"bookmarks"`

	// Derived values computed after loading.
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds the dimensions of the wave being solved.
type GridConfig struct {
	Width  int32 `yaml:"width"`
	Height int32 `yaml:"height"`
	Depth  int32 `yaml:"depth"` // 0 selects the 2D grid; >0 selects 3D.
}

// SolveConfig holds the propagator's run parameters.
type SolveConfig struct {
	Seed        int64 `yaml:"seed"`
	RetryBudget int   `yaml:"retry_budget"` // total whole-solve attempts, each with a fresh seed
	MaxObserve  int   `yaml:"max_observe"`  // safety cap on ObserveRandomCell calls per attempt
}

// CatalogConfig points at the pattern catalog CSV consumed by
// terrain.LoadCSV / terrain.LoadCSVWithTerrain.
type CatalogConfig struct {
	Path               string `yaml:"path"`
	NormalizeByTerrain bool   `yaml:"normalize_by_terrain"`
}

// SynthConfig holds parameters for wfcgen's -synth catalog synthesis
// mode, which derives pattern frequencies from opensimplex noise rather
// than reading an existing catalog.
type SynthConfig struct {
	Frequency float64 `yaml:"frequency"` // noise sampling frequency
	Octaves   int     `yaml:"octaves"`
	Seed      int64   `yaml:"seed"`
}

// ViewerConfig holds wfcviewer window/render parameters.
type ViewerConfig struct {
	Width        int `yaml:"width"`
	Height       int `yaml:"height"`
	TargetFPS    int `yaml:"target_fps"`
	CellPixels   int `yaml:"cell_pixels"`
	StepsPerTick int `yaml:"steps_per_tick"`
}

// TelemetryConfig holds run statistics output parameters.
type TelemetryConfig struct {
	OutputDir string `yaml:"output_dir"` // empty disables telemetry output
}

// BookmarksConfig holds thresholds for automatic anomaly detection
// across a run's attempts.
type BookmarksConfig struct {
	HistorySize              int     `yaml:"history_size"`
	BacktrackSpikeMultiplier float64 `yaml:"backtrack_spike_multiplier"`
	SlowSolveMultiplier      float64 `yaml:"slow_solve_multiplier"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Is3D     bool // Grid.Depth > 0
	CellArea int32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct: only overwrites fields present
		// in the file.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// computeDerived calculates values derived from the loaded config.
func (c *Config) computeDerived() {
	c.Derived.Is3D = c.Grid.Depth > 0
	c.Derived.CellArea = c.Grid.Width * c.Grid.Height
}

// WriteYAML marshals the config (excluding Derived) and writes it to
// path, for OutputManager to snapshot the run's effective configuration
// alongside its telemetry.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
