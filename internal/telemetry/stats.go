// Package telemetry summarizes ecosystem cycles and writes them out as CSV.
package telemetry

import (
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/anyweez/glimpse/internal/ecosystem"
)

// CycleStats is one row of cycles.csv.
type CycleStats struct {
	Cycle     uint64  `csv:"cycle" db:"cycle"`
	ElapsedMs float64 `csv:"elapsed_ms" db:"elapsed_ms"`

	Populations int     `csv:"populations" db:"populations"`
	Renewables  int     `csv:"renewables" db:"-"`
	Members     float64 `csv:"members" db:"members"`

	CountMean float64 `csv:"count_mean" db:"count_mean"`
	CountStd  float64 `csv:"count_std" db:"-"`
	CountP50  float64 `csv:"count_p50" db:"-"`

	HealthMean float64 `csv:"health_mean" db:"health_mean"`
	HealthStd  float64 `csv:"health_std" db:"-"`
	HealthP10  float64 `csv:"health_p10" db:"-"`
	HealthP90  float64 `csv:"health_p90" db:"-"`

	// Cumulative counters
	Extinctions int `csv:"extinctions" db:"extinctions"`
	Spawns      int `csv:"spawns" db:"spawns"`
	Migrations  int `csv:"migrations" db:"migrations"`
}

// FromCensus computes summary statistics for a census taken after a cycle.
func FromCensus(c ecosystem.Census, elapsed time.Duration) CycleStats {
	s := CycleStats{
		Cycle:       c.Cycle,
		ElapsedMs:   float64(elapsed.Microseconds()) / 1000,
		Populations: c.Populations,
		Renewables:  c.Renewables,
		Extinctions: c.Extinctions,
		Spawns:      c.Spawns,
		Migrations:  c.Migrations,
	}
	if len(c.Counts) == 0 {
		return s
	}

	s.Members = floats.Sum(c.Counts)
	s.CountMean, s.CountStd = meanStd(c.Counts)
	counts := sortedCopy(c.Counts)
	s.CountP50 = Quantile(counts, 0.5)

	s.HealthMean, s.HealthStd = meanStd(c.Health)
	health := sortedCopy(c.Health)
	s.HealthP10 = Quantile(health, 0.1)
	s.HealthP90 = Quantile(health, 0.9)
	return s
}

// Quantile returns the p-quantile of a sorted slice using the empirical
// distribution. Returns 0 if the slice is empty.
func Quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// meanStd returns the mean and unbiased standard deviation. A single sample
// has no spread.
func meanStd(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}

func sortedCopy(x []float64) []float64 {
	s := slices.Clone(x)
	slices.Sort(s)
	return s
}
