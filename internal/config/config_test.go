package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/anyweez/glimpse/internal/world"
)

func TestDefaultsMatchWorldDefaults(t *testing.T) {
	cfg := Default()
	if got, want := cfg.GenConfig(), world.DefaultGenConfig(); got != want {
		t.Fatalf("GenConfig() = %+v, want %+v", got, want)
	}
	if !cfg.Ecosystem.Sunshine {
		t.Fatalf("sunshine disabled by default")
	}
	if cfg.Simulation.SpawnEvery != 5 {
		t.Fatalf("spawn_every = %d, want 5", cfg.Simulation.SpawnEvery)
	}
}

func TestLoadOverlaysUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glimpse.yaml")
	data := []byte("world:\n  size: 5\n  seed: 99\nsimulation:\n  interval: 250ms\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.World.Size != 5 || cfg.World.Seed != 99 {
		t.Fatalf("world = %+v", cfg.World)
	}
	if cfg.GenConfig().Dim != 33 {
		t.Fatalf("dim = %d, want 33", cfg.GenConfig().Dim)
	}
	if cfg.Simulation.Interval != 250*time.Millisecond {
		t.Fatalf("interval = %v", cfg.Simulation.Interval)
	}
	// Untouched keys keep their defaults.
	if cfg.World.AquiferDepth != 35 || cfg.Simulation.ReportEvery != 10 {
		t.Fatalf("defaults lost: %+v %+v", cfg.World, cfg.Simulation)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"size":      "world:\n  size: 0\n",
		"elevation": "world:\n  elevation: perlin\n",
		"cycles":    "simulation:\n  cycles: -1\n",
		"spawn":     "simulation:\n  spawn_every: -5\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); !errors.Is(err, ErrInvalid) {
				t.Fatalf("got %v, want ErrInvalid", err)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.World.Size = 6
	cfg.Output.Image = "map.png"

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *cfg {
		t.Fatalf("reloaded %+v, want %+v", got, cfg)
	}
}
