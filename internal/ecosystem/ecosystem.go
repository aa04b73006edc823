// Package ecosystem runs the population simulation on a generated world:
// feeding, health, reproduction, migration, and extinction, one cycle at a
// time.
package ecosystem

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"slices"

	"github.com/anyweez/glimpse/internal/entropy"
	"github.com/anyweez/glimpse/internal/world"
)

var (
	// ErrAlreadyHomed is returned when spawning a population that already lives on a cell.
	ErrAlreadyHomed = errors.New("ecosystem: population already has a home")
	// ErrExtinct is returned when spawning a population that was extinguished.
	ErrExtinct = errors.New("ecosystem: population is extinct")
	// ErrInvalidKill is returned by Die when the request names neither (or both) targets.
	ErrInvalidKill = errors.New("ecosystem: die needs exactly one of mass or population")
	// ErrFeedingRunaway is returned when one feeding round never settles.
	ErrFeedingRunaway = errors.New("ecosystem: likely infinite loop while feeding")
)

const (
	maxFeedingAttempts = 1000
	habitatPenalty     = 0.25

	migrationMinimum = 50   // Smallest population that can migrate
	migrationChance  = 0.04 // Per-step chance once large enough
	migrationShare   = 0.02 // Fraction sent to each neighbor
)

// SunshineName is the family name of the ambient energy supply.
const SunshineName = "Brittney of the North"

// Ecosystem owns every population living on a world. Cells do not reference
// populations; resident lists are kept here, indexed by cell.
type Ecosystem struct {
	World *world.World

	rng         *rand.Rand
	populations []*Population
	residents   [][]*Population
	nextID      PopulationID

	cycle       uint64
	extinctions int
	spawns      int
	migrations  int
}

// New creates an empty ecosystem on w. A zero seed is replaced with a random one.
func New(w *world.World, seed int64) *Ecosystem {
	return &Ecosystem{
		World:     w,
		rng:       entropy.NewRand(entropy.Resolve(seed)),
		residents: make([][]*Population, w.CellCount()),
	}
}

// Populations returns the live registry. Callers must not modify it.
func (e *Ecosystem) Populations() []*Population { return e.populations }

// Residents returns the populations living on c. Callers must not modify it.
func (e *Ecosystem) Residents(c *world.Cell) []*Population {
	return e.residents[c.Index()]
}

// Extinctions returns how many populations have been extinguished.
func (e *Ecosystem) Extinctions() int { return e.extinctions }

// Cycles returns how many cycles have run.
func (e *Ecosystem) Cycles() uint64 { return e.cycle }

// Spawn registers p on cell c and in the ecosystem registry.
func (e *Ecosystem) Spawn(p *Population, c *world.Cell) error {
	if p.home != nil {
		return fmt.Errorf("%w: %s#%d at (%d,%d)", ErrAlreadyHomed, p.Name, p.ID, p.home.X, p.home.Y)
	}
	if p.extinct {
		return fmt.Errorf("%w: %s#%d", ErrExtinct, p.Name, p.ID)
	}
	e.attach(p, c)
	return nil
}

func (e *Ecosystem) attach(p *Population, c *world.Cell) {
	if p.ID == 0 {
		e.nextID++
		p.ID = e.nextID
	}
	p.home = c
	p.slot = len(e.populations)
	e.populations = append(e.populations, p)
	e.residents[c.Index()] = append(e.residents[c.Index()], p)
	e.spawns++
}

// Extinguish detaches p from its cell and the registry. It is terminal: an
// extinguished population can never be spawned again.
func (e *Ecosystem) Extinguish(p *Population) {
	if p.home == nil {
		return
	}

	idx := p.home.Index()
	e.residents[idx] = slices.DeleteFunc(e.residents[idx], func(q *Population) bool { return q == p })

	last := len(e.populations) - 1
	moved := e.populations[last]
	e.populations[p.slot] = moved
	moved.slot = p.slot
	e.populations[last] = nil
	e.populations = e.populations[:last]

	slog.Debug("population became part of the earth",
		"name", p.Name, "id", p.ID, "x", p.home.X, "y", p.home.Y)

	p.home = nil
	p.slot = -1
	p.extinct = true
	e.extinctions++
}

// SpawnNext places a default population on a uniformly random cell.
func (e *Ecosystem) SpawnNext() *Population {
	c := e.World.RandomCell(e.rng.Intn)
	p := DefaultPopulation(e.rng)
	e.attach(p, c)

	slog.Debug("spawned population", "name", p.Name, "id", p.ID, "count", p.Count, "x", c.X, "y", c.Y)
	return p
}

// Sunshine places the ambient energy supply on every cell and returns the
// number of populations created. All of them share one feature bundle.
func (e *Ecosystem) Sunshine() int {
	f := SunshineFeatures()
	cells := e.World.Cells()
	for i := range cells {
		e.attach(NewRenewable(SunshineName, 10, f), &cells[i])
	}
	return len(cells)
}

// Cycle advances the ecosystem by one step. Every active population steps in
// a shuffled order, then every active population still registered ends its
// turn in a freshly shuffled order. Extinctions only happen in the second
// phase.
func (e *Ecosystem) Cycle() error {
	e.cycle++

	stepping := e.shuffledActive()
	for _, p := range stepping {
		if err := e.step(p); err != nil {
			return fmt.Errorf("cycle %d: %w", e.cycle, err)
		}
	}

	for _, p := range e.shuffledActive() {
		e.end(p)
	}
	return nil
}

func (e *Ecosystem) shuffledActive() []*Population {
	var active []*Population
	for _, p := range e.populations {
		if p.Active {
			active = append(active, p)
		}
	}
	e.rng.Shuffle(len(active), func(i, j int) {
		active[i], active[j] = active[j], active[i]
	})
	return active
}

// step feeds the population, updates health and size, and may migrate.
func (e *Ecosystem) step(p *Population) error {
	if !p.Active || p.home == nil {
		return nil
	}
	f := p.Features

	// Living outside a tolerated habitat is a hard hit.
	if !f.Tolerates(p.home.Terrain) {
		p.Health -= habitatPenalty
	}

	var edible []*Population
	for _, other := range e.residents[p.home.Index()] {
		if other != p && f.Eats(other.Features.Kind) {
			edible = append(edible, other)
		}
	}

	meal := p.Count * f.Diet.Quantity
	hunger, err := e.feed(p, edible, meal)
	if err != nil {
		return err
	}

	// Consumption is rounded to whole rations before dividing by the head
	// count.
	ratio := 0.0
	if p.Count > 0 && f.Diet.Quantity > 0 {
		consumed := meal - hunger
		ratio = math.Round(consumed/f.Diet.Quantity) / p.Count
	}
	p.Health = p.Health*0.85 + ratio*p.Health*0.15

	// Zero drift at health 0.5, growth above and decay below.
	noise := e.rng.Float64()/5 - 0.1
	p.Count += (noise + p.Health - 0.5) * f.Stats.Reproduction

	if f.Stats.Migratory > 0 {
		e.migrate(p)
	}
	return nil
}

// feed takes a tenth of the remaining hunger from each edible population in
// turn until the population is full or every food source has run out.
// Returns the hunger left over.
func (e *Ecosystem) feed(p *Population, edible []*Population, hunger float64) (float64, error) {
	if len(edible) == 0 {
		return hunger, nil
	}

	exhausted := make([]bool, len(edible))
	remaining := len(edible)
	attempts := 0

	for i := 0; hunger > 0 && remaining > 0; i = (i + 1) % len(edible) {
		attempts++
		if attempts > maxFeedingAttempts {
			return hunger, fmt.Errorf("%w: %s#%d still hungry (%.2f) after %d attempts",
				ErrFeedingRunaway, p.Name, p.ID, hunger, maxFeedingAttempts)
		}

		target := edible[i]
		target.restock(e.cycle)
		got, err := target.Die(Kill{Mass: hunger / 10})
		if err != nil {
			return hunger, err
		}
		hunger -= got.Mass

		if got.Exterminated && !exhausted[i] {
			exhausted[i] = true
			remaining--
		}
	}
	return hunger, nil
}

// migrate sends a share of a large population to every neighboring cell.
// Each neighbor that receives migrants costs the source the full share, so
// the source can go negative; end() then extinguishes it.
func (e *Ecosystem) migrate(p *Population) {
	if p.Count < migrationMinimum || e.rng.Float64() >= migrationChance {
		return
	}
	migrants := math.Ceil(p.Count * migrationShare)

	for _, nb := range e.World.Neighbors(p.home) {
		if existing := e.findByName(nb, p.Name); existing != nil {
			existing.Count += migrants
		} else {
			settler := NewPopulation(p.Name, migrants, p.Features)
			settler.Health = p.Health
			e.attach(settler, nb)
		}
		p.Count -= migrants
	}
	e.migrations++
}

func (e *Ecosystem) findByName(c *world.Cell, name string) *Population {
	for _, q := range e.residents[c.Index()] {
		if q.Name == name {
			return q
		}
	}
	return nil
}

// end extinguishes populations that ran out of members and clamps health.
func (e *Ecosystem) end(p *Population) {
	if !p.Active || p.home == nil {
		return
	}
	if p.Count <= 0 {
		e.Extinguish(p)
		return
	}
	p.clampHealth()
}
