package world

// terrainify relabels the whole grid until a full pass changes nothing or
// the pass cap is reached. Labels are updated in place, so sand can creep
// outward from water by more than one cell per pass. Returns passes run.
func (w *World) terrainify() int {
	limit := maxTerrainPasses(w.Dim)
	passes := 0
	for changed := true; changed && passes < limit; passes++ {
		changed = false
		for i := range w.grid {
			c := &w.grid[i]
			label := classify(w, c)
			if c.Terrain != label {
				c.Terrain = label
				changed = true
			}
		}
	}
	return passes
}

// smoothTerrain makes one pass that lets a cell adopt the label shared by all
// of its neighbors. The water flag follows the adopted label. Returns the
// number of cells relabeled.
func (w *World) smoothTerrain() int {
	smoothed := 0
	for i := range w.grid {
		c := &w.grid[i]
		buf, n := w.neighbors(c)
		if n == 0 {
			continue
		}

		common := buf[0].Terrain
		uniform := true
		for _, nb := range buf[1:n] {
			if nb.Terrain != common {
				uniform = false
				break
			}
		}

		if uniform && common != c.Terrain {
			c.Terrain = common
			c.Water = common == TerrainWater
			smoothed++
		}
	}
	return smoothed
}
