package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anyweez/glimpse/internal/config"
	"github.com/anyweez/glimpse/internal/ecosystem"
)

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5}, 0.5, 5},
		{"median odd", []float64{1, 2, 3, 4, 5}, 0.5, 3},
		{"low", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.15, 2},
		{"high", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.85, 9},
		{"max", []float64{1, 2, 3}, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quantile(tt.sorted, tt.p); got != tt.want {
				t.Errorf("Quantile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestFromCensus(t *testing.T) {
	c := ecosystem.Census{
		Cycle:       7,
		Populations: 3,
		Renewables:  4,
		Extinctions: 2,
		Counts:      []float64{30, 10, 20},
		Health:      []float64{0.5, 0.5, 0.5},
	}

	s := FromCensus(c, 1500*time.Microsecond)

	if s.Cycle != 7 || s.Populations != 3 || s.Renewables != 4 || s.Extinctions != 2 {
		t.Fatalf("counters not copied: %+v", s)
	}
	if s.Members != 60 || s.CountMean != 20 || s.CountP50 != 20 {
		t.Fatalf("count stats = %+v", s)
	}
	if math.Abs(s.CountStd-10) > 1e-9 {
		t.Fatalf("count std = %v, want 10", s.CountStd)
	}
	if s.HealthMean != 0.5 || s.HealthStd != 0 {
		t.Fatalf("health stats = %+v", s)
	}
	if s.ElapsedMs != 1.5 {
		t.Fatalf("elapsed = %v, want 1.5", s.ElapsedMs)
	}
}

func TestFromCensusEmpty(t *testing.T) {
	s := FromCensus(ecosystem.Census{Cycle: 1}, 0)
	if s.Members != 0 || s.CountMean != 0 || s.HealthP90 != 0 {
		t.Fatalf("empty census should give zeros: %+v", s)
	}
}

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatal(err)
	}
	for i := uint64(1); i <= 3; i++ {
		if err := om.WriteCycle(CycleStats{Cycle: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "cycles.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "cycle,elapsed_ms,") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if strings.Count(string(data), "cycle,") != 1 {
		t.Fatalf("header written more than once")
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Fatalf("config snapshot missing: %v", err)
	}
}

func TestNilOutputManagerIsNoop(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("got %v, %v; want nil, nil", om, err)
	}
	if err := om.WriteCycle(CycleStats{}); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}
}
