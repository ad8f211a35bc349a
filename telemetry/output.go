package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/wfc/config"
)

// csvStream is one header-tracked CSV output file: the first write marshals
// with a header row, every write after that omits it. Folding
// runs.csv/perf.csv/bookmarks.csv through one of these instead of three
// hand-duplicated marshal-or-marshal-without-headers blocks keeps the only
// record-shape-specific code in the call site, not the write mechanics.
type csvStream struct {
	file          *os.File
	headerWritten bool
}

func openCSVStream(dir, name string) (*csvStream, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvStream{file: f}, nil
}

// write marshals records (a slice of one CSV-tagged struct type) to the
// stream, writing a header only on the first call.
func (s *csvStream) write(records interface{}) error {
	if !s.headerWritten {
		if err := gocsv.Marshal(records, s.file); err != nil {
			return err
		}
		s.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, s.file)
}

func (s *csvStream) close() error {
	return s.file.Close()
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir       string
	runs      *csvStream
	perf      *csvStream
	bookmarks *csvStream
}

// NewOutputManager creates a new output manager and initializes the
// output directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	runs, err := openCSVStream(dir, "runs.csv")
	if err != nil {
		return nil, err
	}
	om.runs = runs

	perf, err := openCSVStream(dir, "perf.csv")
	if err != nil {
		om.runs.close()
		return nil, err
	}
	om.perf = perf

	bookmarks, err := openCSVStream(dir, "bookmarks.csv")
	if err != nil {
		om.runs.close()
		om.perf.close()
		return nil, err
	}
	om.bookmarks = bookmarks

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteRunStats writes one attempt's stats to runs.csv.
func (om *OutputManager) WriteRunStats(stats RunStats) error {
	if om == nil {
		return nil
	}
	if err := om.runs.write([]RunStats{stats}); err != nil {
		return fmt.Errorf("writing run stats: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, attempt int) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(attempt)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := om.bookmarks.write([]Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// WriteHallOfFame saves the hall of fame as JSON.
func (om *OutputManager) WriteHallOfFame(hof *HallOfFame) error {
	if om == nil || hof == nil {
		return nil
	}

	hofPath := filepath.Join(om.dir, "hall_of_fame.json")
	data, err := hof.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling hall of fame: %w", err)
	}

	if err := os.WriteFile(hofPath, data, 0644); err != nil {
		return fmt.Errorf("writing hall_of_fame.json: %w", err)
	}

	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, s := range []*csvStream{om.runs, om.perf, om.bookmarks} {
		if s == nil {
			continue
		}
		if err := s.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
