package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anyweez/glimpse/internal/config"
	"github.com/anyweez/glimpse/internal/ecosystem"
	"github.com/anyweez/glimpse/internal/engine"
	"github.com/anyweez/glimpse/internal/entropy"
	"github.com/anyweez/glimpse/internal/persistence"
	"github.com/anyweez/glimpse/internal/world"
)

func TestOptionsApplyOnlySetValues(t *testing.T) {
	cfg := config.Default()
	opts := &options{size: 4, noSunshine: true, image: "map.png"}
	opts.apply(cfg)

	if cfg.World.Size != 4 || cfg.Ecosystem.Sunshine || cfg.Output.Image != "map.png" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.World.AquiferDepth != 35 || cfg.Simulation.Cycles != config.Default().Simulation.Cycles {
		t.Fatalf("unset flags changed the config: %+v", cfg)
	}
}

func TestDensityOverlay(t *testing.T) {
	w, err := world.New(world.SmallTestConfig())
	if err != nil {
		t.Fatal(err)
	}
	eco := ecosystem.New(w, 1)
	eco.Sunshine()
	if density := densityOverlay(eco); density != nil {
		t.Fatalf("renewables alone should not produce an overlay")
	}

	f := &ecosystem.Features{}
	for _, p := range []struct {
		x, y  int
		count float64
	}{{1, 1, 40}, {1, 1, 40}, {2, 2, 20}} {
		if err := eco.Spawn(ecosystem.NewPopulation("", p.count, f), w.At(p.x, p.y)); err != nil {
			t.Fatal(err)
		}
	}

	density := densityOverlay(eco)
	if got := density(w.At(1, 1)); got != 1 {
		t.Fatalf("crowded cell = %v, want 1", got)
	}
	if got := density(w.At(2, 2)); got != 0.25 {
		t.Fatalf("sparse cell = %v, want 0.25", got)
	}
	if got := density(w.At(0, 0)); got != 0 {
		t.Fatalf("empty cell = %v, want 0", got)
	}
}

func TestEcosystemSeed(t *testing.T) {
	w, err := world.New(world.SmallTestConfig())
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()

	cfg.Ecosystem.Seed = 7
	if got := ecosystemSeed(cfg, w); got != 7 {
		t.Fatalf("configured seed: got %d, want 7", got)
	}

	cfg.Ecosystem.Seed = 0
	if got, want := ecosystemSeed(cfg, w), entropy.Derive(w.Config.Seed, 1); got != want {
		t.Fatalf("derived seed: got %d, want %d", got, want)
	}

	// Worlds read from a file carry no seed; each run must still differ.
	w.Config.Seed = 0
	a, b := ecosystemSeed(cfg, w), ecosystemSeed(cfg, w)
	if a == entropy.Derive(0, 1) || a == b {
		t.Fatalf("unseeded world gave seeds %d and %d", a, b)
	}
}

func TestListWorldsShowsLastRun(t *testing.T) {
	db, err := persistence.Open(filepath.Join(t.TempDir(), "worlds.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	w, err := world.Generate(world.SmallTestConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	id, err := db.SaveWorld(w)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := listWorlds(&out, db); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), id) || strings.Contains(out.String(), "last run") {
		t.Fatalf("before any run:\n%s", out.String())
	}

	sim := &engine.Simulation{LastCycle: 12}
	for i := 1; i <= recentEvents+2; i++ {
		sim.Events = append(sim.Events, engine.Event{
			Cycle: uint64(i), Category: "spawn", Description: fmt.Sprintf("event-%02d", i),
		})
	}
	if err := db.SaveRun(id, sim); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := listWorlds(&out, db); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if !strings.Contains(got, fmt.Sprintf("last run: world %s, cycle 12", id)) {
		t.Fatalf("missing last run:\n%s", got)
	}
	if !strings.Contains(got, "event-07") || strings.Contains(got, "event-02") {
		t.Fatalf("want only the %d newest events:\n%s", recentEvents, got)
	}
}
