package world

// Terrain labels for grid cells. The numeric values are the labels written to
// world files, so they must not be reordered.
type Terrain uint8

const (
	TerrainUnset Terrain = iota // Not yet classified
	TerrainAny                  // Wildcard, only meaningful in habitat lists
	TerrainWater                // Flooded by the aquifer or pooled rainfall
	TerrainSand                 // Low ground touching water or other sand
	TerrainRock                 // High peaks
	TerrainGrass                // Everything else
)

// rule pairs a label with its classification predicate.
type rule struct {
	label Terrain
	match func(w *World, c *Cell) bool
}

// rules are evaluated in order; the first match wins. Grass always matches.
var rules = []rule{
	{TerrainWater, func(w *World, c *Cell) bool { return c.Water }},
	{TerrainSand, isSand},
	{TerrainRock, func(w *World, c *Cell) bool { return c.Elevation > 90 }},
	{TerrainGrass, func(w *World, c *Cell) bool { return true }},
}

// isSand requires a neighbor that is water or already sand, and an elevation
// within 10 of the aquifer depth.
func isSand(w *World, c *Cell) bool {
	if c.Elevation-w.Config.AquiferDepth >= 10 {
		return false
	}
	buf, n := w.neighbors(c)
	for _, nb := range buf[:n] {
		if nb.Water || nb.Terrain == TerrainSand {
			return true
		}
	}
	return false
}

// classify returns the first matching label for c.
func classify(w *World, c *Cell) Terrain {
	for _, r := range rules {
		if r.match(w, c) {
			return r.label
		}
	}
	return TerrainGrass
}

// Labels lists the terrain labels a generated cell can carry.
var Labels = []Terrain{TerrainWater, TerrainSand, TerrainRock, TerrainGrass}

// String returns a lowercase name for the terrain type.
func (t Terrain) String() string {
	switch t {
	case TerrainAny:
		return "any"
	case TerrainWater:
		return "water"
	case TerrainSand:
		return "sand"
	case TerrainRock:
		return "rock"
	case TerrainGrass:
		return "grass"
	default:
		return "unset"
	}
}

// ParseTerrain maps a name produced by String back to its label.
func ParseTerrain(name string) (Terrain, bool) {
	for t := TerrainAny; t <= TerrainGrass; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return TerrainUnset, false
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(w *World) map[Terrain]int {
	counts := make(map[Terrain]int)
	for i := range w.grid {
		counts[w.grid[i].Terrain]++
	}
	return counts
}

// WaterCount returns the number of cells flagged as water.
func WaterCount(w *World) int {
	n := 0
	for i := range w.grid {
		if w.grid[i].Water {
			n++
		}
	}
	return n
}
