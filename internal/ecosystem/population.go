package ecosystem

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/anyweez/glimpse/internal/world"
)

// DefaultName is given to populations spawned without a family name.
const DefaultName = "Magnus originalis"

// PopulationID uniquely identifies a population within an ecosystem.
type PopulationID uint64

// Population is a group of one family living on a single cell. Count is a
// real number on purpose: growth and decay are fractional.
type Population struct {
	ID       PopulationID
	Name     string
	Count    float64
	Health   float64 // Clamped to [0, 1] at the end of each cycle
	Active   bool    // Inactive populations never step or end
	Features *Features

	home    *world.Cell
	slot    int // Position in the ecosystem registry, -1 when detached
	extinct bool

	// Renewable populations feed others from a stock that refills to Count
	// once per cycle; Count itself never changes.
	renewable bool
	stock     float64
	stockedAt uint64
}

// NewPopulation creates an unregistered, active population at full health.
func NewPopulation(name string, count float64, f *Features) *Population {
	if name == "" {
		name = DefaultName
	}
	return &Population{
		Name:     name,
		Count:    count,
		Health:   1.0,
		Active:   true,
		Features: f,
		slot:     -1,
	}
}

// NewRenewable creates an unregistered population whose count is permanent.
// It never takes part in a cycle's step or end phases.
func NewRenewable(name string, count float64, f *Features) *Population {
	p := NewPopulation(name, count, f)
	p.Active = false
	p.renewable = true
	p.stock = count
	return p
}

// DefaultPopulation creates a new family with default traits and between 0
// and 99 members.
func DefaultPopulation(rng *rand.Rand) *Population {
	count := math.Floor(rng.Float64() * 100)
	return NewPopulation(DefaultName, count, DefaultFeatures(rng))
}

// Home returns the cell the population lives on, or nil when detached.
func (p *Population) Home() *world.Cell { return p.home }

// Renewable reports whether the population is an inexhaustible resource.
func (p *Population) Renewable() bool { return p.renewable }

// Extinct reports whether the population has been extinguished.
func (p *Population) Extinct() bool { return p.extinct }

// String returns a short description for logs.
func (p *Population) String() string {
	return fmt.Sprintf("%s#%d(count=%.2f, health=%.3f)", p.Name, p.ID, p.Count, p.Health)
}

// Kill is a request to remove members from a population. Exactly one of
// Mass or Population must be non-zero.
type Kill struct {
	Mass       float64
	Population float64
}

// Casualties reports what a Die call removed.
type Casualties struct {
	Population   float64
	Mass         float64
	Exterminated bool
}

// Die removes members from the population. A mass request removes
// ceil(mass/unit mass) members; a population request removes that many. Both
// are capped at the members available, and the population never drops below
// zero. Renewable populations draw from their per-cycle stock instead.
func (p *Population) Die(k Kill) (Casualties, error) {
	var want float64
	switch {
	case k.Mass != 0 && k.Population != 0:
		return Casualties{}, fmt.Errorf("%w: %s#%d got both mass and population", ErrInvalidKill, p.Name, p.ID)
	case k.Mass != 0:
		want = math.Ceil(k.Mass / p.Features.Stats.Mass)
	case k.Population != 0:
		want = k.Population
	default:
		return Casualties{}, fmt.Errorf("%w: %s#%d got neither mass nor population", ErrInvalidKill, p.Name, p.ID)
	}

	if p.renewable {
		removed := math.Max(0, math.Min(p.stock, want))
		p.stock -= removed
		return Casualties{
			Population:   removed,
			Mass:         removed * p.Features.Stats.Mass,
			Exterminated: p.stock <= 0,
		}, nil
	}

	removed := math.Max(0, math.Min(p.Count, want))
	p.Count = math.Max(0, p.Count-removed)
	return Casualties{
		Population:   removed,
		Mass:         removed * p.Features.Stats.Mass,
		Exterminated: p.Count <= 0,
	}, nil
}

// restock refills a renewable's stock the first time it is eaten in a cycle.
func (p *Population) restock(cycle uint64) {
	if p.renewable && p.stockedAt != cycle {
		p.stock = p.Count
		p.stockedAt = cycle
	}
}

// clampHealth bounds health to [0, 1].
func (p *Population) clampHealth() {
	p.Health = math.Min(1, math.Max(0, p.Health))
}
