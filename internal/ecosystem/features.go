package ecosystem

import (
	"math"
	"math/rand"
	"slices"

	"github.com/anyweez/glimpse/internal/world"
)

// Kind is the trophic category of a population.
type Kind uint8

const (
	KindWater Kind = iota
	KindEnergy
	KindPlant
	KindAnimal
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindWater:
		return "water"
	case KindEnergy:
		return "energy"
	case KindPlant:
		return "plant"
	case KindAnimal:
		return "animal"
	default:
		return "unknown"
	}
}

// Diet describes what a population eats and how much per head.
type Diet struct {
	Requires []Kind
	ChoiceOf []Kind
	Quantity float64 // Mass eaten per head per cycle
}

// Stats are the physical traits of one member of a population.
type Stats struct {
	Mass         float64 // Mass yielded per member when eaten
	Reproduction float64 // Growth multiplier applied to (health - 0.5)
	Migratory    float64 // Zero disables migration
}

// Features is the trait bundle shared by every population of one spawn
// family. Populations hold a pointer to it; it is never modified after
// construction.
type Features struct {
	Kind         Kind
	Diet         Diet
	Environments []world.Terrain // May include world.TerrainAny
	Stats        Stats
}

// Eats returns true if a population with these features will feed on kind k.
func (f *Features) Eats(k Kind) bool {
	return slices.Contains(f.Diet.Requires, k) || slices.Contains(f.Diet.ChoiceOf, k)
}

// Tolerates returns true if the family can live on terrain t without penalty.
func (f *Features) Tolerates(t world.Terrain) bool {
	return slices.Contains(f.Environments, world.TerrainAny) || slices.Contains(f.Environments, t)
}

// DefaultFeatures returns the trait bundle of a freshly spawned family. Mass
// is drawn from [1, 100) so every member yields something when eaten.
func DefaultFeatures(rng *rand.Rand) *Features {
	return &Features{
		Kind: KindAnimal,
		Diet: Diet{
			Requires: []Kind{KindEnergy, KindWater},
			Quantity: 2,
		},
		Environments: []world.Terrain{world.TerrainGrass, world.TerrainSand},
		Stats: Stats{
			Mass:         1 + math.Floor(rng.Float64()*99),
			Reproduction: 3,
			Migratory:    0.2,
		},
	}
}

// SunshineFeatures is the bundle of the ambient energy supply placed on
// every cell.
func SunshineFeatures() *Features {
	return &Features{
		Kind:         KindEnergy,
		Diet:         Diet{Quantity: 0},
		Environments: []world.Terrain{world.TerrainAny},
		Stats: Stats{
			Mass:         10,
			Reproduction: 3,
		},
	}
}
