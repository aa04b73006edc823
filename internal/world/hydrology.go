package world

import "math/rand"

// aquifer floods every cell below the aquifer depth.
func (w *World) aquifer() int {
	flooded := 0
	for i := range w.grid {
		if w.grid[i].Elevation < w.Config.AquiferDepth {
			w.grid[i].Water = true
			flooded++
		}
	}
	return flooded
}

// rainfall drops dim*5 raindrops on random cells and pools each one where it
// comes to rest. Returns the number of cells that became wet.
func (w *World) rainfall(rng *rand.Rand) int {
	pooled := 0
	for i := 0; i < w.Dim*5; i++ {
		x := rng.Intn(w.Dim)
		y := rng.Intn(w.Dim)

		lowest := w.drip(w.At(x, y))
		if !lowest.Water {
			pooled++
		}
		lowest.Water = true
	}
	return pooled
}

// drip follows the steepest descent from start. Each step moves to the lowest
// neighbor that is strictly lower and not already water; ties keep the first
// neighbor seen. The walk ends on the first cell with no such neighbor.
func (w *World) drip(start *Cell) *Cell {
	current := start
	for {
		lowest := current
		buf, n := w.neighbors(current)
		for _, nb := range buf[:n] {
			if nb.Elevation < lowest.Elevation && !nb.Water {
				lowest = nb
			}
		}
		if lowest == current {
			return current
		}
		current = lowest
	}
}

// evaporate dries any cell with no wet neighbors, removing puddles that never
// joined the aquifer or a larger basin.
func (w *World) evaporate() int {
	dried := 0
	for i := range w.grid {
		c := &w.grid[i]
		if !c.Water {
			continue
		}
		wet := false
		buf, n := w.neighbors(c)
		for _, nb := range buf[:n] {
			if nb.Water {
				wet = true
				break
			}
		}
		if !wet {
			c.Water = false
			dried++
		}
	}
	return dried
}
