// Package raster turns parsed grids into columns standing on the globe.
package raster

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/woozymasta/dzglobe/internal/geo"
	"github.com/woozymasta/dzglobe/internal/grid"
	"github.com/woozymasta/dzglobe/internal/scene"
)

const (
	// DefaultMaxPrimitives is the box budget for one raster layer.
	DefaultMaxPrimitives = 150000

	// Footprint is the box width and depth in world units.
	Footprint = 0.005

	// MinHeight and MaxHeight bound box height; t=0 maps to MinHeight.
	MinHeight = 0.000001
	MaxHeight = 0.03
)

// Options controls aggregation.
type Options struct {
	// Ramp colors boxes; nil selects HSL.
	Ramp Ramp
	// MaxPrimitives bounds the box count; zero or less selects the default.
	MaxPrimitives int
}

// Result is the outcome of aggregating one grid.
type Result struct {
	Boxes []scene.Box
	// Stride is the sampling step used for rows and columns.
	Stride int
	// Visited counts sampled cells, Skipped those that produced no box.
	Visited int
	Skipped int
}

// Stride returns the sampling step that keeps nrows*ncols cells within
// roughly maxPrimitives: max(1, ceil(sqrt(nrows*ncols / maxPrimitives))).
func Stride(nrows, ncols, maxPrimitives int) int {
	if maxPrimitives <= 0 {
		maxPrimitives = DefaultMaxPrimitives
	}

	cells := float64(nrows) * float64(ncols)
	stride := int(math.Ceil(math.Sqrt(cells / float64(maxPrimitives))))
	if stride < 1 {
		return 1
	}

	return stride
}

// Aggregate samples g every Stride rows and columns and emits one box per
// cell holding a non-zero value. The last column is never drawn: it
// duplicates the first across the antimeridian.
func Aggregate(g *grid.Grid, proj *geo.Projector, opts Options) Result {
	ramp := opts.Ramp
	if ramp == nil {
		ramp = HSL{}
	}

	stride := Stride(g.Nrows, g.Ncols, opts.MaxPrimitives)
	res := Result{Stride: stride}

	rows := (g.Nrows + stride - 1) / stride
	cols := (g.Ncols + stride - 1) / stride
	res.Boxes = make([]scene.Box, 0, min(rows*cols, g.Present()))

	for row := 0; row < g.Nrows; row += stride {
		for col := 0; col < g.Ncols; col += stride {
			res.Visited++

			if col == g.Ncols-1 {
				res.Skipped++
				continue
			}

			v, ok := g.Value(row, col)
			if !ok || v == 0 {
				res.Skipped++
				continue
			}

			res.Boxes = append(res.Boxes, cellBox(g, proj, ramp, row, col, v))
		}
	}

	return res
}

func cellBox(g *grid.Grid, proj *geo.Projector, ramp Ramp, row, col int, v float64) scene.Box {
	lat, lon := g.CellCenter(row, col)
	lon = geo.WrapLon(lon)

	t := g.Normalize(v)
	pos := proj.ProjectCell(lat, lon)
	latRot, lonRot := proj.Rotation(proj.SceneLat(lat), lon)

	return scene.Box{
		Position:    pos,
		Normal:      pos.Normalize(),
		Scale:       r3.Vector{X: Footprint, Y: Footprint, Z: geo.Lerp(MinHeight, MaxHeight, t)},
		Color:       scene.FromColorful(ramp.At(t), 1),
		LatRotation: latRot,
		LonRotation: lonRot,
		Lat:         lat,
		Lon:         lon,
		Value:       v,
	}
}
