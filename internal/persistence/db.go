// Package persistence stores generated worlds: a portable JSON world file,
// and a SQLite store that keeps many worlds plus the statistics of the runs
// made on them. Population state is never persisted.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/anyweez/glimpse/internal/engine"
	"github.com/anyweez/glimpse/internal/telemetry"
	"github.com/anyweez/glimpse/internal/world"
)

// ErrNotFound is returned when a world id is not in the store.
var ErrNotFound = errors.New("persistence: world not found")

// DB wraps a SQLite connection for world storage.
type DB struct {
	conn *sqlx.DB
}

// WorldRecord is one row of the worlds table.
type WorldRecord struct {
	ID               string  `db:"id"`
	Dim              int     `db:"dim"`
	Seed             int64   `db:"seed"`
	AquiferDepth     float64 `db:"aquifer_depth"`
	AltitudeVariance float64 `db:"altitude_variance"`
	Elevation        string  `db:"elevation"`
	CreatedAt        int64   `db:"created_at"` // Unix seconds
}

// GenConfig returns the parameters the world was generated with.
func (r WorldRecord) GenConfig() world.GenConfig {
	return world.GenConfig{
		Dim:              r.Dim,
		Seed:             r.Seed,
		AquiferDepth:     r.AquiferDepth,
		AltitudeVariance: r.AltitudeVariance,
		Elevation:        world.ElevationMethod(r.Elevation),
	}
}

type cellRow struct {
	Index     int           `db:"idx"`
	Elevation float64       `db:"elevation"`
	Terrain   world.Terrain `db:"terrain"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS worlds (
		id TEXT PRIMARY KEY,
		dim INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		aquifer_depth REAL NOT NULL,
		altitude_variance REAL NOT NULL,
		elevation TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cells (
		world_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		elevation REAL NOT NULL,
		terrain INTEGER NOT NULL,
		PRIMARY KEY (world_id, idx)
	);

	CREATE TABLE IF NOT EXISTS cycle_stats (
		world_id TEXT NOT NULL,
		cycle INTEGER NOT NULL,
		elapsed_ms REAL NOT NULL,
		populations INTEGER NOT NULL,
		members REAL NOT NULL,
		count_mean REAL NOT NULL,
		health_mean REAL NOT NULL,
		extinctions INTEGER NOT NULL,
		spawns INTEGER NOT NULL,
		migrations INTEGER NOT NULL,
		PRIMARY KEY (world_id, cycle)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		world_id TEXT NOT NULL,
		cycle INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_world ON events(world_id, cycle);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveWorld stores a generated world under a new id and returns the id.
func (db *DB) SaveWorld(w *world.World) (string, error) {
	id := uuid.NewString()

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO worlds
		(id, dim, seed, aquifer_depth, altitude_variance, elevation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, w.Dim, w.Config.Seed, w.Config.AquiferDepth, w.Config.AltitudeVariance,
		string(w.Config.Elevation), time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("insert world: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO cells (world_id, idx, elevation, terrain) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, c := range w.Cells() {
		if _, err := stmt.Exec(id, c.Index(), c.Elevation, c.Terrain); err != nil {
			return "", fmt.Errorf("insert cell (%d,%d): %w", c.X, c.Y, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("world saved", "id", id, "dim", w.Dim, "cells", w.CellCount())
	return id, nil
}

// World returns the stored record for id.
func (db *DB) World(id string) (WorldRecord, error) {
	var rec WorldRecord
	err := db.conn.Get(&rec, "SELECT * FROM worlds WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// LoadWorld rebuilds a stored world. Water is derived from the terrain label.
func (db *DB) LoadWorld(id string) (*world.World, error) {
	rec, err := db.World(id)
	if err != nil {
		return nil, err
	}

	w, err := world.New(rec.GenConfig())
	if err != nil {
		return nil, fmt.Errorf("world %s: %w", id, err)
	}

	var rows []cellRow
	if err := db.conn.Select(&rows,
		"SELECT idx, elevation, terrain FROM cells WHERE world_id = ? ORDER BY idx", id,
	); err != nil {
		return nil, fmt.Errorf("load cells: %w", err)
	}
	if len(rows) != w.CellCount() {
		return nil, fmt.Errorf("world %s: %d cells stored, want %d", id, len(rows), w.CellCount())
	}

	cells := w.Cells()
	for _, r := range rows {
		c := &cells[r.Index]
		c.Elevation = r.Elevation
		c.Terrain = r.Terrain
		c.Water = r.Terrain == world.TerrainWater
	}
	return w, nil
}

// ListWorlds returns every stored world, newest first.
func (db *DB) ListWorlds() ([]WorldRecord, error) {
	var recs []WorldRecord
	err := db.conn.Select(&recs, "SELECT * FROM worlds ORDER BY created_at DESC, id")
	return recs, err
}

// SaveCycleStats appends one cycle's statistics for a world.
func (db *DB) SaveCycleStats(worldID string, stats telemetry.CycleStats) error {
	row := struct {
		WorldID string `db:"world_id"`
		telemetry.CycleStats
	}{worldID, stats}

	_, err := db.conn.NamedExec(`INSERT OR REPLACE INTO cycle_stats
		(world_id, cycle, elapsed_ms, populations, members, count_mean, health_mean,
		 extinctions, spawns, migrations)
		VALUES (:world_id, :cycle, :elapsed_ms, :populations, :members, :count_mean, :health_mean,
		 :extinctions, :spawns, :migrations)`, row)
	return err
}

// CycleStats returns the stored statistics for a world in cycle order.
func (db *DB) CycleStats(worldID string) ([]telemetry.CycleStats, error) {
	var stats []telemetry.CycleStats
	err := db.conn.Select(&stats, `SELECT cycle, elapsed_ms, populations, members, count_mean,
		health_mean, extinctions, spawns, migrations
		FROM cycle_stats WHERE world_id = ? ORDER BY cycle`, worldID)
	return stats, err
}

// SaveEvents appends simulation events for a world.
func (db *DB) SaveEvents(worldID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (world_id, cycle, description, category) VALUES (?, ?, ?, ?)",
			worldID, e.Cycle, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events for a world, newest first.
func (db *DB) RecentEvents(worldID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT cycle, description, category FROM events WHERE world_id = ? ORDER BY id DESC LIMIT ?",
		worldID, limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in store metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// SaveRun records the end state of a simulation run on a stored world.
func (db *DB) SaveRun(worldID string, sim *engine.Simulation) error {
	slog.Info("saving run", "world", worldID, "cycle", sim.LastCycle, "events", len(sim.Events))

	if err := db.SaveEvents(worldID, sim.Events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("last_world", worldID); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("last_cycle", strconv.FormatUint(sim.LastCycle, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}

// Recorder returns an engine.CycleRecorder that stores statistics for worldID.
func (db *DB) Recorder(worldID string) engine.CycleRecorder {
	return cycleRecorder{db: db, worldID: worldID}
}

type cycleRecorder struct {
	db      *DB
	worldID string
}

func (r cycleRecorder) RecordCycle(stats telemetry.CycleStats) error {
	return r.db.SaveCycleStats(r.worldID, stats)
}
