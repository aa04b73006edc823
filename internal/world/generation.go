// World generation: fractal elevation, hydrology, and terrain classification.
// The six stages always run in the same order and report after each one so a
// caller can show progress.
package world

import (
	"math"
	"math/rand"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/anyweez/glimpse/internal/entropy"
)

// ElevationMethod selects how the elevation field is synthesized.
type ElevationMethod string

const (
	ElevationFractal ElevationMethod = "fractal" // Midpoint displacement (diamond-square)
	ElevationSimplex ElevationMethod = "simplex" // Layered simplex noise
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Dim              int             // Grid side, must be 2^k+1
	Seed             int64           // Random seed (0 = random)
	AquiferDepth     float64         // Cells below this elevation are flooded
	AltitudeVariance float64         // Initial fractal displacement amplitude
	Elevation        ElevationMethod // Elevation synthesis method
}

// DefaultGenConfig returns the standard configuration (a 1025×1025 world).
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Dim:              DimensionForSize(10),
		Seed:             0,
		AquiferDepth:     35,
		AltitudeVariance: 20,
		Elevation:        ElevationFractal,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Dim = DimensionForSize(4)
	cfg.Seed = 42
	return cfg
}

// Stage identifies one step of the generation pipeline.
type Stage uint8

const (
	StageElevation Stage = iota
	StageAquifer
	StageRainfall
	StageEvaporate
	StageTerrain
	StageSmooth
)

// Stages lists the pipeline in execution order.
var Stages = []Stage{StageElevation, StageAquifer, StageRainfall, StageEvaporate, StageTerrain, StageSmooth}

// String returns the progress label for the stage.
func (s Stage) String() string {
	switch s {
	case StageElevation:
		return "Generating elevations"
	case StageAquifer:
		return "Filling aquifers"
	case StageRainfall:
		return "Rainfall"
	case StageEvaporate:
		return "Evaporation"
	case StageTerrain:
		return "Converting to terrain"
	case StageSmooth:
		return "Smoothing terrain"
	default:
		return "Unknown"
	}
}

// StageEvent is reported once a stage completes.
type StageEvent struct {
	Stage    Stage
	Index    int // 1-based position in Stages
	Total    int
	Affected int // Cells touched (passes run, for StageTerrain)
	Elapsed  time.Duration
}

// Generate creates a world and runs the full generation pipeline on it.
func Generate(cfg GenConfig, report func(StageEvent)) (*World, error) {
	w, err := New(cfg)
	if err != nil {
		return nil, err
	}
	w.Generate(report)
	return w, nil
}

// Generate fills the grid from scratch. report may be nil.
func (w *World) Generate(report func(StageEvent)) {
	w.Config.Seed = entropy.Resolve(w.Config.Seed)
	rng := entropy.NewRand(w.Config.Seed)

	for i := range w.grid {
		w.grid[i].Elevation = 0
		w.grid[i].Water = false
		w.grid[i].Terrain = TerrainUnset
	}

	steps := []func() int{
		func() int { return w.generateElevations(rng) },
		w.aquifer,
		func() int { return w.rainfall(rng) },
		w.evaporate,
		w.terrainify,
		w.smoothTerrain,
	}

	for i, run := range steps {
		start := time.Now()
		affected := run()
		if report != nil {
			report(StageEvent{
				Stage:    Stages[i],
				Index:    i + 1,
				Total:    len(Stages),
				Affected: affected,
				Elapsed:  time.Since(start),
			})
		}
	}
}

// generateElevations seeds the four corners in [0, 100) and runs the
// midpoint displacement, or samples simplex noise when configured.
func (w *World) generateElevations(rng *rand.Rand) int {
	if w.Config.Elevation == ElevationSimplex {
		w.simplexElevations()
		return len(w.grid)
	}

	full := w.Dim - 1
	w.At(0, 0).Elevation = rng.Float64() * 100
	w.At(full, 0).Elevation = rng.Float64() * 100
	w.At(0, full).Elevation = rng.Float64() * 100
	w.At(full, full).Elevation = rng.Float64() * 100

	w.divide(rng, full, w.Config.AltitudeVariance)
	return len(w.grid)
}

// divide runs one square pass and one diamond pass per level, halving the
// step and damping the variance by 0.9 until the half step drops below 1.
func (w *World) divide(rng *rand.Rand, size int, variance float64) {
	full := w.Dim - 1
	for half := size / 2; half >= 1; half = size / 2 {
		for y := half; y < full; y += size {
			for x := half; x < full; x += size {
				w.square(rng, x, y, half, variance)
			}
		}
		for y := 0; y <= full; y += half {
			for x := (y + half) % size; x <= full; x += size {
				w.diamond(rng, x, y, half, variance)
			}
		}
		size /= 2
		variance *= 0.9
	}
}

// square averages the four diagonal corners around (x, y).
func (w *World) square(rng *rand.Rand, x, y, half int, variance float64) {
	avg := w.Find(x-half, y-half).Elevation/4 +
		w.Find(x+half, y-half).Elevation/4 +
		w.Find(x-half, y+half).Elevation/4 +
		w.Find(x+half, y+half).Elevation/4
	w.At(x, y).Elevation = avg + (rng.Float64()-0.5)*variance
}

// diamond averages the four axis points around (x, y).
func (w *World) diamond(rng *rand.Rand, x, y, half int, variance float64) {
	avg := w.Find(x, y-half).Elevation/4 +
		w.Find(x+half, y).Elevation/4 +
		w.Find(x, y+half).Elevation/4 +
		w.Find(x-half, y).Elevation/4
	w.At(x, y).Elevation = avg + (rng.Float64()-0.5)*variance
}

// simplexElevations fills the grid with multi-octave noise scaled to [0, 100].
func (w *World) simplexElevations() {
	noise := opensimplex.NewNormalized(w.Config.Seed)
	frequency := 3.6 / float64(w.Dim)
	for i := range w.grid {
		c := &w.grid[i]
		c.Elevation = octaveNoise(noise, float64(c.X), float64(c.Y), 4, frequency, 0.5) * 100
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// maxTerrainPasses caps terrainify at ⌈√dim⌉ full passes.
func maxTerrainPasses(dim int) int {
	return int(math.Ceil(math.Sqrt(float64(dim))))
}
