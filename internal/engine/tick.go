// Package engine provides the cycle-based simulation loop.
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Engine drives the simulation forward one cycle at a time.
type Engine struct {
	Cycle       uint64        // Current cycle counter (monotonic, never resets)
	Interval    time.Duration // Minimum wall time per cycle, 0 runs flat out
	MaxCycles   uint64        // Stop after this many cycles, 0 = until stopped
	ReportEvery uint64        // OnReport period in cycles, 0 disables

	// Callbacks populated during setup.
	OnCycle  func(cycle uint64) error // Every cycle; an error stops the loop
	OnReport func(cycle uint64)       // Every ReportEvery cycles and once at exit

	running atomic.Bool
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{ReportEvery: 10}
}

// Run starts the simulation loop. Blocks until MaxCycles is reached, Stop is
// called, ctx is cancelled, or OnCycle fails. Cancellation is only observed
// between cycles.
func (e *Engine) Run(ctx context.Context) error {
	e.running.Store(true)
	defer e.running.Store(false)

	slog.Info("simulation engine started", "cycle", e.Cycle, "max_cycles", e.MaxCycles)
	start := e.Cycle

	var err error
	for e.running.Load() {
		if e.MaxCycles > 0 && e.Cycle-start >= e.MaxCycles {
			break
		}
		if err = ctx.Err(); err != nil {
			break
		}

		began := time.Now()
		if err = e.step(); err != nil {
			break
		}

		// Sleep for the remainder of the cycle interval.
		if wait := e.Interval - time.Since(began); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
	}

	if e.OnReport != nil && e.Cycle > start && (e.ReportEvery == 0 || e.Cycle%e.ReportEvery != 0) {
		e.OnReport(e.Cycle)
	}
	slog.Info("simulation engine stopped", "cycle", e.Cycle)
	return err
}

// Stop halts the simulation loop after the current cycle. It has no effect
// before Run starts; callers that may race with Run should cancel its
// context instead.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// step advances the simulation by one cycle.
func (e *Engine) step() error {
	e.Cycle++

	if e.OnCycle != nil {
		if err := e.OnCycle(e.Cycle); err != nil {
			return err
		}
	}

	if e.ReportEvery > 0 && e.Cycle%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(e.Cycle)
	}
	return nil
}
