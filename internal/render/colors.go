// Package render draws generated worlds as images.
package render

import (
	"image/color"
	"math"

	"github.com/anyweez/glimpse/internal/world"
)

var (
	deepWater    = color.RGBA{30, 79, 110, 255}
	water        = color.RGBA{69, 123, 157, 255}
	shallowWater = color.RGBA{112, 162, 194, 255}
	sand         = color.RGBA{248, 252, 111, 255}
	snow         = color.RGBA{232, 232, 232, 255}
	rock         = color.RGBA{166, 162, 162, 255}
	lowGrass     = color.RGBA{119, 207, 60, 255}
	grass        = color.RGBA{97, 179, 41, 255}
	highGrass    = color.RGBA{67, 138, 19, 255}
	unknown      = color.RGBA{255, 0, 255, 255}
)

// TerrainColor returns the map color for a cell. Water and grass are shaded
// by elevation and the highest rock is snow-capped.
func TerrainColor(c *world.Cell) color.RGBA {
	switch c.Terrain {
	case world.TerrainWater:
		switch {
		case c.Elevation < 5:
			return deepWater
		case c.Elevation < 15:
			return water
		default:
			return shallowWater
		}
	case world.TerrainSand:
		return sand
	case world.TerrainRock:
		if c.Elevation > 98 {
			return snow
		}
		return rock
	case world.TerrainGrass:
		switch {
		case c.Elevation < 30:
			return lowGrass
		case c.Elevation < 70:
			return grass
		default:
			return highGrass
		}
	default:
		return unknown
	}
}

// ElevationColor maps elevation in [0, 100] from red at sea floor to green
// at the peaks. Values outside the range are clamped.
func ElevationColor(e float64) color.RGBA {
	e = math.Min(100, math.Max(0, e))
	return color.RGBA{
		R: uint8(math.Round(255 * (100 - e) / 100)),
		G: uint8(math.Round(255 * e / 100)),
		A: 255,
	}
}

// tint blends c toward red by amount in [0, 1].
func tint(c color.RGBA, amount float64) color.RGBA {
	if amount <= 0 {
		return c
	}
	if amount > 1 {
		amount = 1
	}
	mix := func(from, to uint8) uint8 {
		return uint8(float64(from) + (float64(to)-float64(from))*amount)
	}
	return color.RGBA{mix(c.R, 220), mix(c.G, 40), mix(c.B, 40), 255}
}
