package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/anyweez/glimpse/internal/world"
)

// Mode selects the base color of each cell.
type Mode uint8

const (
	ModeTerrain   Mode = iota // Terrain palette
	ModeElevation             // Red to green heat map of elevation
)

// Options controls how a world is drawn.
type Options struct {
	Scale int  // Pixels per cell side, values below 1 mean 1
	Mode  Mode

	// Overlay returns a value in [0, 1] per cell used to tint it red, e.g.
	// population density. Nil draws terrain only.
	Overlay func(c *world.Cell) float64
}

// Image draws w into a new RGBA image.
func Image(w *world.World, opts Options) *image.RGBA {
	scale := max(opts.Scale, 1)
	img := image.NewRGBA(image.Rect(0, 0, w.Dim*scale, w.Dim*scale))

	cells := w.Cells()
	for i := range cells {
		c := &cells[i]
		col := TerrainColor(c)
		if opts.Mode == ModeElevation {
			col = ElevationColor(c.Elevation)
		}
		if opts.Overlay != nil {
			col = tint(col, opts.Overlay(c))
		}
		for dy := 0; dy < scale; dy++ {
			for dx := 0; dx < scale; dx++ {
				img.SetRGBA(c.X*scale+dx, c.Y*scale+dy, col)
			}
		}
	}
	return img
}

// EncodePNG writes w as a PNG image.
func EncodePNG(out io.Writer, w *world.World, opts Options) error {
	return png.Encode(out, Image(w, opts))
}

// WritePNG saves w as a PNG file at path.
func WritePNG(path string, w *world.World, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	if err := EncodePNG(f, w, opts); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
