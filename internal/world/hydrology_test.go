package world

import (
	"math/rand"
	"testing"

	"github.com/anyweez/glimpse/internal/entropy"
)

func newRand(seed int64) *rand.Rand { return entropy.NewRand(seed) }

// slopedWorld rises by 10 per step away from the top-left corner.
func slopedWorld(t *testing.T, dim int) *World {
	t.Helper()
	w := newTestWorld(t, dim)
	for i := range w.Cells() {
		c := &w.Cells()[i]
		c.Elevation = float64(10 * (c.X + c.Y))
	}
	return w
}

func TestAquiferFloodsBelowDepth(t *testing.T) {
	w := newTestWorld(t, 5)
	w.Config.AquiferDepth = 35
	for i := range w.Cells() {
		c := &w.Cells()[i]
		c.Elevation = float64(10 * c.X)
	}

	if got := w.aquifer(); got != 20 {
		t.Fatalf("expected 20 flooded cells, got %d", got)
	}
	for _, c := range w.Cells() {
		if want := c.X <= 3; c.Water != want {
			t.Fatalf("cell (%d,%d) elevation %.0f water=%v", c.X, c.Y, c.Elevation, c.Water)
		}
	}
}

func TestDripFindsLocalMinimum(t *testing.T) {
	w := slopedWorld(t, 5)
	if got := w.drip(w.At(4, 4)); got != w.At(0, 0) {
		t.Fatalf("expected drip to end at (0,0), got (%d,%d)", got.X, got.Y)
	}
}

func TestDripSkipsWater(t *testing.T) {
	w := slopedWorld(t, 5)
	w.At(0, 0).Water = true

	// Ties go to the western neighbor, so the drop runs along the bottom row
	// and up the first column until the wet corner blocks it.
	if got := w.drip(w.At(4, 4)); got != w.At(0, 1) {
		t.Fatalf("expected drip to stop at (0,1), got (%d,%d)", got.X, got.Y)
	}
	if got := w.drip(w.At(1, 0)); got != w.At(1, 0) {
		t.Fatalf("a cell whose only lower neighbor is wet should hold the drop, got (%d,%d)", got.X, got.Y)
	}
}

func TestRainfallPoolsWater(t *testing.T) {
	w := slopedWorld(t, 9)
	pooled := w.rainfall(newRand(3))

	if !w.At(0, 0).Water {
		t.Fatal("the lowest corner must collect rain")
	}
	if pooled == 0 || pooled != WaterCount(w) {
		t.Fatalf("pooled=%d but %d cells are wet", pooled, WaterCount(w))
	}
}

func TestEvaporateDriesIsolatedPuddles(t *testing.T) {
	w := newTestWorld(t, 5)
	w.At(2, 2).Water = true
	w.At(0, 0).Water = true
	w.At(1, 0).Water = true

	if got := w.evaporate(); got != 1 {
		t.Fatalf("expected 1 puddle to dry, got %d", got)
	}
	if w.At(2, 2).Water {
		t.Fatal("isolated puddle should evaporate")
	}
	if !w.At(0, 0).Water || !w.At(1, 0).Water {
		t.Fatal("connected water must remain")
	}
}
