package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/anyweez/glimpse/internal/config"
)

// OutputManager writes per-cycle statistics to cycles.csv in a run directory.
type OutputManager struct {
	dir        string
	cyclesFile *os.File

	headerWritten bool
}

// NewOutputManager creates the output directory and opens cycles.csv.
// Returns nil if dir is empty (output disabled); every method is a no-op on
// a nil manager.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "cycles.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating cycles.csv: %w", err)
	}
	return &OutputManager{dir: dir, cyclesFile: f}, nil
}

// WriteConfig saves the run configuration as YAML next to the CSV.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteCycle appends one row to cycles.csv.
func (om *OutputManager) WriteCycle(stats CycleStats) error {
	if om == nil {
		return nil
	}

	records := []CycleStats{stats}

	if !om.headerWritten {
		if err := gocsv.Marshal(records, om.cyclesFile); err != nil {
			return fmt.Errorf("writing cycle stats: %w", err)
		}
		om.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.cyclesFile); err != nil {
		return fmt.Errorf("writing cycle stats: %w", err)
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

// Close closes cycles.csv.
func (om *OutputManager) Close() error {
	if om == nil || om.cyclesFile == nil {
		return nil
	}
	return om.cyclesFile.Close()
}
