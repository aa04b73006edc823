// Package config provides configuration loading for world generation and
// simulation runs.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/anyweez/glimpse/internal/world"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned when a loaded configuration cannot be used.
var ErrInvalid = errors.New("config: invalid")

// Config holds every tunable parameter.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Ecosystem  EcosystemConfig  `yaml:"ecosystem"`
	Simulation SimulationConfig `yaml:"simulation"`
	Output     OutputConfig     `yaml:"output"`
}

// WorldConfig holds terrain generation parameters.
type WorldConfig struct {
	Size             int     `yaml:"size"` // dim = 2^size + 1
	AquiferDepth     float64 `yaml:"aquifer_depth"`
	AltitudeVariance float64 `yaml:"altitude_variance"`
	Elevation        string  `yaml:"elevation"`
	Seed             int64   `yaml:"seed"`
}

// EcosystemConfig holds population seeding parameters.
type EcosystemConfig struct {
	Sunshine           bool  `yaml:"sunshine"`
	InitialPopulations int   `yaml:"initial_populations"`
	Seed               int64 `yaml:"seed"`
}

// SimulationConfig controls the cycle loop.
type SimulationConfig struct {
	Cycles      int           `yaml:"cycles"`
	Interval    time.Duration `yaml:"interval"`
	ReportEvery int           `yaml:"report_every"`
	SpawnEvery  int           `yaml:"spawn_every"` // 0 disables spawning during the run
}

// OutputConfig names output destinations. Empty paths disable that output.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	WorldFile string `yaml:"worldfile"`
	Database  string `yaml:"database"`
	Image     string `yaml:"image"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("embedded defaults: %v", err))
	}
	return cfg
}

// Load reads the embedded defaults and overlays the YAML file at path, if
// one is given.
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
		// Only keys present in the file overwrite defaults.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside generation.
func (c *Config) Validate() error {
	if c.World.Size < 1 || c.World.Size > 16 {
		return fmt.Errorf("%w: world.size %d outside [1, 16]", ErrInvalid, c.World.Size)
	}
	switch world.ElevationMethod(c.World.Elevation) {
	case world.ElevationFractal, world.ElevationSimplex:
	default:
		return fmt.Errorf("%w: world.elevation %q", ErrInvalid, c.World.Elevation)
	}
	if c.Ecosystem.InitialPopulations < 0 {
		return fmt.Errorf("%w: ecosystem.initial_populations is negative", ErrInvalid)
	}
	if c.Simulation.Cycles < 0 || c.Simulation.ReportEvery < 0 || c.Simulation.SpawnEvery < 0 ||
		c.Simulation.Interval < 0 {
		return fmt.Errorf("%w: simulation values must not be negative", ErrInvalid)
	}
	return nil
}

// GenConfig converts the world section into generator parameters.
func (c *Config) GenConfig() world.GenConfig {
	return world.GenConfig{
		Dim:              world.DimensionForSize(c.World.Size),
		Seed:             c.World.Seed,
		AquiferDepth:     c.World.AquiferDepth,
		AltitudeVariance: c.World.AltitudeVariance,
		Elevation:        world.ElevationMethod(c.World.Elevation),
	}
}

// WriteYAML saves the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
