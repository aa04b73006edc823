// Package world provides the square grid, terrain labels, and the generation
// pipeline that fills a grid with elevation, water, and terrain.
package world

import (
	"errors"
	"fmt"
)

// ErrInvalidDimension is returned when a grid dimension is not of the form 2^k+1.
var ErrInvalidDimension = errors.New("world: dimension must be 2^k+1")

// Cell is a single tile of the grid. Cells are created once by New and never
// move; only the generation pipeline mutates elevation, terrain, and water.
type Cell struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Elevation float64 `json:"elevation"` // Centered on [0, 100]; noise may overshoot
	Terrain   Terrain `json:"terrain"`
	Water     bool    `json:"water"`

	index int
}

// Index returns the cell's slot in the row-major grid.
func (c *Cell) Index() int { return c.index }

// Location returns a view of the cell that can be mixed with virtual locations.
func (c *Cell) Location() Location {
	return Location{X: c.X, Y: c.Y, Elevation: c.Elevation, cell: c}
}

// Location is a coordinate with an elevation. Lookups outside the grid return
// a virtual Location that borrows its elevation from a mirrored in-bounds
// cell and has no backing Cell.
type Location struct {
	X         int
	Y         int
	Elevation float64

	cell *Cell
}

// Cell returns the backing cell, or false for a virtual location.
func (l Location) Cell() (*Cell, bool) {
	return l.cell, l.cell != nil
}

// World holds the complete grid state.
type World struct {
	Dim    int
	Config GenConfig

	grid []Cell
}

// New allocates a dim×dim grid (dim taken from cfg). All cells start with zero
// elevation, no water, and TerrainUnset.
func New(cfg GenConfig) (*World, error) {
	if !ValidDimension(cfg.Dim) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, cfg.Dim)
	}
	w := &World{
		Dim:    cfg.Dim,
		Config: cfg,
		grid:   make([]Cell, cfg.Dim*cfg.Dim),
	}
	for y := 0; y < cfg.Dim; y++ {
		for x := 0; x < cfg.Dim; x++ {
			i := y*cfg.Dim + x
			w.grid[i] = Cell{X: x, Y: y, Terrain: TerrainUnset, index: i}
		}
	}
	return w, nil
}

// ValidDimension reports whether dim-1 halves evenly down to 1.
func ValidDimension(dim int) bool {
	full := dim - 1
	return full >= 1 && full&(full-1) == 0
}

// DimensionForSize returns 2^size+1.
func DimensionForSize(size int) int {
	return 1<<size + 1
}

// Cells exposes the backing slice in row-major order.
func (w *World) Cells() []Cell { return w.grid }

// CellCount returns the total number of cells in the grid.
func (w *World) CellCount() int { return len(w.grid) }

// InBounds returns true if (x, y) lies on the grid.
func (w *World) InBounds(x, y int) bool {
	return x >= 0 && x < w.Dim && y >= 0 && y < w.Dim
}

// At returns the cell at (x, y), or nil if out of bounds.
func (w *World) At(x, y int) *Cell {
	if !w.InBounds(x, y) {
		return nil
	}
	return &w.grid[y*w.Dim+x]
}

// Find returns the location at (x, y). Out-of-bounds coordinates are kept
// intact but inherit elevation from a mirrored cell: x<0 reads dim-x, x>=dim
// reads x-dim (then the same for y). This is a reflection, not a toroidal
// wrap, and only exists to keep the fractal well defined at the edges.
func (w *World) Find(x, y int) Location {
	if x < 0 || x >= w.Dim {
		var mirror Location
		if x < 0 {
			mirror = w.Find(w.Dim-x, y)
		} else {
			mirror = w.Find(x-w.Dim, y)
		}
		return Location{X: x, Y: y, Elevation: mirror.Elevation}
	}
	if y < 0 || y >= w.Dim {
		var mirror Location
		if y < 0 {
			mirror = w.Find(x, w.Dim-y)
		} else {
			mirror = w.Find(x, y-w.Dim)
		}
		return Location{X: x, Y: y, Elevation: mirror.Elevation}
	}
	return w.grid[y*w.Dim+x].Location()
}

// Neighbors returns the axis-adjacent cells of c that exist on the grid, in
// west, north, east, south order. There is no wraparound, so edge cells have
// three neighbors and corners two.
func (w *World) Neighbors(c *Cell) []*Cell {
	buf, n := w.neighbors(c)
	out := make([]*Cell, n)
	copy(out, buf[:n])
	return out
}

// neighbors is the allocation-free form used by the generation passes.
func (w *World) neighbors(c *Cell) ([4]*Cell, int) {
	var buf [4]*Cell
	n := 0
	if c.X-1 >= 0 {
		buf[n] = &w.grid[c.index-1]
		n++
	}
	if c.Y-1 >= 0 {
		buf[n] = &w.grid[c.index-w.Dim]
		n++
	}
	if c.X+1 < w.Dim {
		buf[n] = &w.grid[c.index+1]
		n++
	}
	if c.Y+1 < w.Dim {
		buf[n] = &w.grid[c.index+w.Dim]
		n++
	}
	return buf, n
}

// RandomCell returns a uniformly chosen cell.
func (w *World) RandomCell(intn func(int) int) *Cell {
	return &w.grid[intn(len(w.grid))]
}

// String returns a summary of the world.
func (w *World) String() string {
	return fmt.Sprintf("World(dim=%d, cells=%d)", w.Dim, w.CellCount())
}
