package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/anyweez/glimpse/internal/config"
	"github.com/anyweez/glimpse/internal/ecosystem"
	"github.com/anyweez/glimpse/internal/engine"
	"github.com/anyweez/glimpse/internal/entropy"
	"github.com/anyweez/glimpse/internal/persistence"
	"github.com/anyweez/glimpse/internal/progress"
	"github.com/anyweez/glimpse/internal/render"
	"github.com/anyweez/glimpse/internal/telemetry"
	"github.com/anyweez/glimpse/internal/world"
)

func runGenerate(cfg *config.Config, opts *options) error {
	w, err := generate(cfg)
	if err != nil {
		return err
	}

	if path := cfg.Output.WorldFile; path != "" {
		if err := persistence.WriteWorldFile(path, w); err != nil {
			return err
		}
		slog.Info("world file written", "path", path)
	}

	if cfg.Output.Database != "" {
		db, err := persistence.Open(cfg.Output.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if _, err := db.SaveWorld(w); err != nil {
			return fmt.Errorf("save world: %w", err)
		}
	}

	return writeImage(cfg, opts, w, nil)
}

func runSimulate(cfg *config.Config, opts *options) error {
	var db *persistence.DB
	if cfg.Output.Database != "" {
		var err error
		if db, err = persistence.Open(cfg.Output.Database); err != nil {
			return err
		}
		defer db.Close()
	}

	w, worldID, err := loadOrGenerate(cfg, opts, db)
	if err != nil {
		return err
	}

	// ── Ecosystem ─────────────────────────────────────────────────────
	seed := ecosystemSeed(cfg, w)
	eco := ecosystem.New(w, seed)
	sim := engine.NewSimulation(w, eco)
	sim.SpawnEvery = uint64(cfg.Simulation.SpawnEvery)
	sim.Populate(cfg.Ecosystem.Sunshine, cfg.Ecosystem.InitialPopulations)
	slog.Info("ecosystem seeded",
		"seed", seed,
		"populations", humanize.Comma(int64(len(eco.Populations()))),
		"members", humanize.Commaf(sim.Stats.Members),
	)

	// ── Telemetry ─────────────────────────────────────────────────────
	out, err := telemetry.NewOutputManager(cfg.Output.Dir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}
	sim.Output = out
	if db != nil {
		sim.Recorder = db.Recorder(worldID)
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.MaxCycles = uint64(cfg.Simulation.Cycles)
	eng.Interval = cfg.Simulation.Interval
	eng.ReportEvery = uint64(cfg.Simulation.ReportEvery)
	sim.Attach(eng)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	runErr := eng.Run(ctx)
	switch {
	case errors.Is(runErr, context.Canceled):
		runErr = nil
	case errors.Is(runErr, ecosystem.ErrFeedingRunaway):
		slog.Warn("simulation aborted", "cycle", eng.Cycle, "error", runErr)
	}

	slog.Info("simulation finished",
		"cycles", humanize.Comma(int64(eco.Cycles())),
		"elapsed", time.Since(start).Round(time.Millisecond),
		"populations", humanize.Comma(int64(sim.Stats.Populations)),
		"extinctions", humanize.Comma(int64(eco.Extinctions())),
	)

	if db != nil {
		if err := db.SaveRun(worldID, sim); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if err := writeImage(cfg, opts, w, densityOverlay(eco)); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func runRender(cfg *config.Config, opts *options) error {
	if cfg.Output.Image == "" {
		return errors.New("render: --image is required")
	}
	w, err := persistence.ReadWorldFile(cfg.Output.WorldFile)
	if err != nil {
		return err
	}
	return writeImage(cfg, opts, w, nil)
}

func runWorlds(cfg *config.Config) error {
	if cfg.Output.Database == "" {
		return errors.New("worlds: --db is required")
	}
	db, err := persistence.Open(cfg.Output.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	return listWorlds(os.Stdout, db)
}

// recentEvents is how many events of the last run the worlds listing shows.
const recentEvents = 5

// listWorlds prints every stored world, then the last simulation run and its
// most recent events if one was saved.
func listWorlds(out io.Writer, db *persistence.DB) error {
	recs, err := db.ListWorlds()
	if err != nil {
		return fmt.Errorf("list worlds: %w", err)
	}
	for _, r := range recs {
		fmt.Fprintf(out, "%s  %5d×%-5d  seed %-20d  %-8s  %s\n",
			r.ID, r.Dim, r.Dim, r.Seed, r.Elevation,
			humanize.Time(time.Unix(r.CreatedAt, 0)))
	}
	fmt.Fprintf(out, "%s worlds\n", humanize.Comma(int64(len(recs))))

	worldID, err := db.GetMeta("last_world")
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read last run: %w", err)
	}
	cycle, err := db.GetMeta("last_cycle")
	if err != nil {
		return fmt.Errorf("read last run: %w", err)
	}
	fmt.Fprintf(out, "\nlast run: world %s, cycle %s\n", worldID, cycle)

	events, err := db.RecentEvents(worldID, recentEvents)
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	for _, e := range events {
		fmt.Fprintf(out, "  [%6d] %-10s %s\n", e.Cycle, e.Category, e.Description)
	}
	return nil
}

// ecosystemSeed picks the ecosystem seed: the configured one, else one
// derived from the world seed, else a fresh random seed for worlds that
// carry no seed, such as those read from a world file.
func ecosystemSeed(cfg *config.Config, w *world.World) int64 {
	switch {
	case cfg.Ecosystem.Seed != 0:
		return cfg.Ecosystem.Seed
	case w.Config.Seed != 0:
		return entropy.Derive(w.Config.Seed, 1)
	default:
		return entropy.Resolve(0)
	}
}

// generate builds a world from the configuration with progress on stdout.
func generate(cfg *config.Config) (*world.World, error) {
	gen := cfg.GenConfig()
	slog.Info("generating world", "dim", gen.Dim, "cells", humanize.Comma(int64(gen.Dim*gen.Dim)))

	tracker := progress.NewTracker(os.Stdout)
	w, err := world.Generate(gen, tracker.Stage)
	if err != nil {
		return nil, err
	}

	counts := world.TerrainCounts(w)
	for _, t := range world.Labels {
		slog.Info("terrain", "type", t, "count", humanize.Comma(int64(counts[t])))
	}
	slog.Info("world generated", "seed", w.Config.Seed)
	return w, nil
}

// loadOrGenerate returns the world to simulate on and its id in the store,
// if there is one.
func loadOrGenerate(cfg *config.Config, opts *options, db *persistence.DB) (*world.World, string, error) {
	switch {
	case opts.worldID != "":
		if db == nil {
			return nil, "", errors.New("simulate: --world-id needs --db")
		}
		w, err := db.LoadWorld(opts.worldID)
		return w, opts.worldID, err

	case opts.worldFile != "":
		w, err := persistence.ReadWorldFile(opts.worldFile)
		if err != nil {
			return nil, "", err
		}
		return saveIfStore(w, db)
	}

	w, err := generate(cfg)
	if err != nil {
		return nil, "", err
	}
	return saveIfStore(w, db)
}

func saveIfStore(w *world.World, db *persistence.DB) (*world.World, string, error) {
	if db == nil {
		return w, "", nil
	}
	id, err := db.SaveWorld(w)
	if err != nil {
		return nil, "", fmt.Errorf("save world: %w", err)
	}
	return w, id, nil
}

func writeImage(cfg *config.Config, opts *options, w *world.World, overlay func(*world.Cell) float64) error {
	if cfg.Output.Image == "" {
		return nil
	}
	ro := render.Options{Scale: opts.scale, Overlay: overlay}
	if opts.heatmap {
		ro.Mode = render.ModeElevation
	}
	if err := render.WritePNG(cfg.Output.Image, w, ro); err != nil {
		return err
	}
	slog.Info("image written", "path", cfg.Output.Image)
	return nil
}

// densityOverlay tints cells by their share of the most crowded cell's
// members. Renewables are ignored.
func densityOverlay(eco *ecosystem.Ecosystem) func(*world.Cell) float64 {
	members := make([]float64, eco.World.CellCount())
	peak := 0.0
	for _, p := range eco.Populations() {
		if p.Renewable() || p.Count <= 0 {
			continue
		}
		i := p.Home().Index()
		members[i] += p.Count
		peak = max(peak, members[i])
	}
	if peak == 0 {
		return nil
	}
	return func(c *world.Cell) float64 { return members[c.Index()] / peak }
}
