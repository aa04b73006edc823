// Simulation ties the world, the ecosystem, and telemetry together and runs
// them each cycle.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/anyweez/glimpse/internal/ecosystem"
	"github.com/anyweez/glimpse/internal/telemetry"
	"github.com/anyweez/glimpse/internal/world"
)

// maxEvents bounds the event history kept in memory.
const maxEvents = 1000

// CycleRecorder persists per-cycle statistics, e.g. into the world store.
type CycleRecorder interface {
	RecordCycle(stats telemetry.CycleStats) error
}

// Simulation holds the complete run state and wires systems together.
type Simulation struct {
	World     *world.World
	Ecosystem *ecosystem.Ecosystem
	Output    *telemetry.OutputManager // May be nil
	Recorder  CycleRecorder            // May be nil

	// SpawnEvery adds one default population every SpawnEvery cycles, after
	// the cycle runs. Zero disables spawning during the run.
	SpawnEvery uint64

	Events    []Event // Most recent events, oldest first
	LastCycle uint64  // Most recent cycle processed
	Stats     SimStats

	last telemetry.CycleStats
}

// Event is a notable occurrence in the ecosystem.
type Event struct {
	Cycle       uint64 `json:"cycle"`
	Description string `json:"description"`
	Category    string `json:"category"` // "spawn", "extinction", "migration"
}

// SimStats tracks aggregate ecosystem statistics after the latest cycle.
type SimStats struct {
	Populations int     `json:"populations"`
	Members     float64 `json:"members"`
	AvgHealth   float64 `json:"avg_health"`
	Extinctions int     `json:"extinctions"`
	Migrations  int     `json:"migrations"`
}

// NewSimulation creates a Simulation over an already generated world.
func NewSimulation(w *world.World, eco *ecosystem.Ecosystem) *Simulation {
	sim := &Simulation{World: w, Ecosystem: eco}
	sim.last = telemetry.FromCensus(eco.Census(), 0)
	sim.updateStats(sim.last)
	return sim
}

// Populate seeds the ecosystem: sunshine on every cell when enabled, then n
// default populations on random cells.
func (s *Simulation) Populate(sunshine bool, n int) {
	if sunshine {
		placed := s.Ecosystem.Sunshine()
		s.record(0, "spawn", fmt.Sprintf("sunshine reached %d cells", placed))
	}
	for i := 0; i < n; i++ {
		s.spawn(0)
	}
	s.last = telemetry.FromCensus(s.Ecosystem.Census(), 0)
	s.updateStats(s.last)
}

// RunCycle advances the ecosystem by one cycle and records its statistics.
// It matches Engine.OnCycle.
func (s *Simulation) RunCycle(cycle uint64) error {
	start := time.Now()
	if err := s.Ecosystem.Cycle(); err != nil {
		return err
	}
	s.LastCycle = cycle

	if s.SpawnEvery > 0 && cycle%s.SpawnEvery == 0 {
		s.spawn(cycle)
	}

	stats := telemetry.FromCensus(s.Ecosystem.Census(), time.Since(start))

	if n := stats.Extinctions - s.last.Extinctions; n > 0 {
		s.record(cycle, "extinction", fmt.Sprintf("%d populations became part of the earth", n))
	}
	if n := stats.Migrations - s.last.Migrations; n > 0 {
		s.record(cycle, "migration", fmt.Sprintf("%d populations sent out settlers", n))
	}

	if err := s.Output.WriteCycle(stats); err != nil {
		return err
	}
	if s.Recorder != nil {
		if err := s.Recorder.RecordCycle(stats); err != nil {
			return err
		}
	}

	s.last = stats
	s.updateStats(stats)
	return nil
}

// Report logs a summary of the latest cycle. It matches Engine.OnReport.
func (s *Simulation) Report(cycle uint64) {
	eventCounts := make(map[string]int)
	for _, e := range s.Events {
		eventCounts[e.Category]++
	}

	slog.Info("cycle report",
		"cycle", cycle,
		"populations", s.Stats.Populations,
		"members", fmt.Sprintf("%.1f", s.Stats.Members),
		"avg_health", fmt.Sprintf("%.3f", s.Stats.AvgHealth),
		"extinctions", s.Stats.Extinctions,
		"migrations", s.Stats.Migrations,
		"events_spawn", eventCounts["spawn"],
		"events_extinction", eventCounts["extinction"],
		"events_migration", eventCounts["migration"],
	)
}

// Attach installs the simulation's callbacks on an engine.
func (s *Simulation) Attach(e *Engine) {
	e.OnCycle = s.RunCycle
	e.OnReport = s.Report
}

func (s *Simulation) spawn(cycle uint64) {
	p := s.Ecosystem.SpawnNext()
	home := p.Home()
	s.record(cycle, "spawn", fmt.Sprintf("%s#%d settled at (%d,%d) with %.0f members",
		p.Name, p.ID, home.X, home.Y, p.Count))
}

func (s *Simulation) record(cycle uint64, category, description string) {
	s.Events = append(s.Events, Event{Cycle: cycle, Description: description, Category: category})
	// Trim old events to prevent unbounded growth.
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

func (s *Simulation) updateStats(stats telemetry.CycleStats) {
	s.Stats = SimStats{
		Populations: stats.Populations,
		Members:     stats.Members,
		AvgHealth:   stats.HealthMean,
		Extinctions: stats.Extinctions,
		Migrations:  stats.Migrations,
	}
}
