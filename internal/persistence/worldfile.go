package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/anyweez/glimpse/internal/world"
)

// ErrMalformed is returned when a world file does not describe a valid grid.
var ErrMalformed = errors.New("persistence: malformed world file")

// worldFile is the on-disk JSON layout: a meta header and one entry per cell
// in row-major order.
type worldFile struct {
	Meta  worldFileMeta   `json:"meta"`
	Cells []worldFileCell `json:"cells"`
}

type worldFileMeta struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type worldFileCell struct {
	X         int           `json:"x"`
	Y         int           `json:"y"`
	Terrain   world.Terrain `json:"terrain"`
	Elevation float64       `json:"elevation"`
}

// EncodeWorld writes w as JSON. Elevations are rounded to three decimals.
func EncodeWorld(out io.Writer, w *world.World) error {
	wf := worldFile{
		Meta:  worldFileMeta{Width: w.Dim, Height: w.Dim},
		Cells: make([]worldFileCell, 0, w.CellCount()),
	}
	for _, c := range w.Cells() {
		wf.Cells = append(wf.Cells, worldFileCell{
			X:         c.X,
			Y:         c.Y,
			Terrain:   c.Terrain,
			Elevation: math.Round(c.Elevation*1000) / 1000,
		})
	}
	return json.NewEncoder(out).Encode(wf)
}

// DecodeWorld reads a world written by EncodeWorld. Only elevation and
// terrain are stored; water is derived from the terrain label.
func DecodeWorld(in io.Reader) (*world.World, error) {
	var wf worldFile
	if err := json.NewDecoder(in).Decode(&wf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if wf.Meta.Width != wf.Meta.Height {
		return nil, fmt.Errorf("%w: %dx%d is not square", ErrMalformed, wf.Meta.Width, wf.Meta.Height)
	}

	cfg := world.DefaultGenConfig()
	cfg.Dim = wf.Meta.Width
	w, err := world.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(wf.Cells) != w.CellCount() {
		return nil, fmt.Errorf("%w: %d cells for dimension %d", ErrMalformed, len(wf.Cells), w.Dim)
	}

	seen := make([]bool, w.CellCount())
	for _, fc := range wf.Cells {
		c := w.At(fc.X, fc.Y)
		if c == nil {
			return nil, fmt.Errorf("%w: cell (%d,%d) out of bounds", ErrMalformed, fc.X, fc.Y)
		}
		// With the count already matched, a repeat means some cell is missing.
		if seen[c.Index()] {
			return nil, fmt.Errorf("%w: cell (%d,%d) listed twice", ErrMalformed, fc.X, fc.Y)
		}
		seen[c.Index()] = true
		if !slices.Contains(world.Labels, fc.Terrain) {
			return nil, fmt.Errorf("%w: cell (%d,%d) has terrain %d", ErrMalformed, fc.X, fc.Y, fc.Terrain)
		}
		c.Elevation = fc.Elevation
		c.Terrain = fc.Terrain
		c.Water = fc.Terrain == world.TerrainWater
	}
	return w, nil
}

// WriteWorldFile saves w to path.
func WriteWorldFile(path string, w *world.World) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create world file: %w", err)
	}
	if err := EncodeWorld(f, w); err != nil {
		f.Close()
		return fmt.Errorf("write world file: %w", err)
	}
	return f.Close()
}

// ReadWorldFile loads a world saved by WriteWorldFile.
func ReadWorldFile(path string) (*world.World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open world file: %w", err)
	}
	defer f.Close()
	return DecodeWorld(f)
}
