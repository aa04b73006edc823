package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/anyweez/glimpse/internal/ecosystem"
	"github.com/anyweez/glimpse/internal/telemetry"
	"github.com/anyweez/glimpse/internal/world"
)

func TestRunStopsAtMaxCycles(t *testing.T) {
	e := NewEngine()
	e.MaxCycles = 5
	e.ReportEvery = 2

	var cycles, reports []uint64
	e.OnCycle = func(c uint64) error { cycles = append(cycles, c); return nil }
	e.OnReport = func(c uint64) { reports = append(reports, c) }

	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(cycles, []uint64{1, 2, 3, 4, 5}) {
		t.Fatalf("cycles = %v", cycles)
	}
	// Periodic reports plus a final one for the partial period.
	if !slices.Equal(reports, []uint64{2, 4, 5}) {
		t.Fatalf("reports = %v", reports)
	}
	if e.Running() {
		t.Fatalf("engine still running after Run returned")
	}
}

func TestRunNoDuplicateFinalReport(t *testing.T) {
	e := NewEngine()
	e.MaxCycles = 4
	e.ReportEvery = 2

	var reports []uint64
	e.OnReport = func(c uint64) { reports = append(reports, c) }

	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(reports, []uint64{2, 4}) {
		t.Fatalf("reports = %v", reports)
	}
}

func TestRunStopsOnCycleError(t *testing.T) {
	boom := errors.New("boom")
	e := NewEngine()
	e.OnCycle = func(c uint64) error {
		if c == 3 {
			return boom
		}
		return nil
	}

	if err := e.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if e.Cycle != 3 {
		t.Fatalf("cycle = %d, want 3", e.Cycle)
	}
}

func TestRunHonorsStopAndCancel(t *testing.T) {
	e := NewEngine()
	e.OnCycle = func(c uint64) error {
		if c == 7 {
			e.Stop()
		}
		return nil
	}
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.Cycle != 7 {
		t.Fatalf("Stop: cycle = %d, want 7", e.Cycle)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e = NewEngine()
	e.OnCycle = func(c uint64) error {
		if c == 2 {
			cancel()
		}
		return nil
	}
	if err := e.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if e.Cycle != 2 {
		t.Fatalf("cancel: cycle = %d, want 2", e.Cycle)
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEngine()
	ran := 0
	e.OnCycle = func(uint64) error { ran++; return nil }
	if err := e.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if ran != 0 || e.Cycle != 0 {
		t.Fatalf("ran %d cycles after cancel", ran)
	}
}

type memoryRecorder struct{ rows []telemetry.CycleStats }

func (m *memoryRecorder) RecordCycle(s telemetry.CycleStats) error {
	m.rows = append(m.rows, s)
	return nil
}

func TestSimulationRunsCycles(t *testing.T) {
	w, err := world.Generate(world.SmallTestConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	eco := ecosystem.New(w, 7)
	sim := NewSimulation(w, eco)
	sim.Populate(true, 10)

	if sim.Stats.Populations == 0 {
		t.Fatalf("no active populations after Populate")
	}

	dir := t.TempDir()
	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	rec := &memoryRecorder{}
	sim.Output = out
	sim.Recorder = rec

	e := NewEngine()
	e.MaxCycles = 20
	sim.Attach(e)
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	if sim.LastCycle != 20 || eco.Cycles() != 20 {
		t.Fatalf("last cycle %d, ecosystem cycles %d", sim.LastCycle, eco.Cycles())
	}
	if len(rec.rows) != 20 || rec.rows[19].Cycle != 20 {
		t.Fatalf("recorder got %d rows", len(rec.rows))
	}

	data, err := os.ReadFile(filepath.Join(dir, "cycles.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(strings.TrimSpace(string(data)), "\n") + 1; lines != 21 {
		t.Fatalf("cycles.csv has %d lines, want 21", lines)
	}

	// Every renewable keeps its count no matter what ate from it.
	for _, p := range eco.Populations() {
		if p.Renewable() && p.Count != 10 {
			t.Fatalf("renewable %v changed", p)
		}
	}
}

func TestEventsAreBounded(t *testing.T) {
	sim := &Simulation{}
	for i := 0; i < maxEvents+50; i++ {
		sim.record(uint64(i), "spawn", "x")
	}
	if len(sim.Events) != maxEvents || sim.Events[0].Cycle != 50 {
		t.Fatalf("events = %d, first cycle %d", len(sim.Events), sim.Events[0].Cycle)
	}
}

func TestSimulationSpawnsDuringRun(t *testing.T) {
	w, err := world.Generate(world.SmallTestConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	eco := ecosystem.New(w, 3)
	sim := NewSimulation(w, eco)
	sim.SpawnEvery = 5

	e := NewEngine()
	e.MaxCycles = 10
	sim.Attach(e)
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	var cycles []uint64
	for _, ev := range sim.Events {
		if ev.Category == "spawn" {
			cycles = append(cycles, ev.Cycle)
		}
	}
	if !slices.Equal(cycles, []uint64{5, 10}) {
		t.Fatalf("spawn events at cycles %v, want [5 10]", cycles)
	}
}
