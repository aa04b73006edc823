package ecosystem

// Census is a point-in-time summary of the living populations.
type Census struct {
	Cycle       uint64
	Populations int // Active populations only
	Renewables  int
	Extinctions int
	Spawns      int
	Migrations  int

	Counts []float64
	Health []float64
}

// Census snapshots the active populations. Renewables are counted but their
// counts and health are left out of the samples.
func (e *Ecosystem) Census() Census {
	c := Census{
		Cycle:       e.cycle,
		Extinctions: e.extinctions,
		Spawns:      e.spawns,
		Migrations:  e.migrations,
	}
	for _, p := range e.populations {
		if p.renewable {
			c.Renewables++
			continue
		}
		if !p.Active {
			continue
		}
		c.Populations++
		c.Counts = append(c.Counts, p.Count)
		c.Health = append(c.Health, p.Health)
	}
	return c
}

// Total returns the summed member count of the active populations.
func (c Census) Total() float64 {
	var sum float64
	for _, n := range c.Counts {
		sum += n
	}
	return sum
}
