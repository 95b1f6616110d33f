// Package grid parses ESRI ASCII rasters into immutable value grids.
package grid

import "math"

// DefaultNodata is the sentinel assumed when a header omits NODATA_value.
const DefaultNodata = -9999

// Grid is a parsed raster. Rows run north to south.
// A Grid is read by both the aggregator and the preview renderer and is
// never modified after parsing.
type Grid struct {
	// Values holds Nrows rows of Ncols cells; absent cells are NaN.
	// Callers must not write to it: Min and Max are computed once and
	// would no longer match. Read cells through Value.
	Values [][]float64

	Ncols       int
	Nrows       int
	CellSize    float64
	XllCorner   float64
	YllCorner   float64
	NodataValue float64

	// Min and Max span every present value; both are zero on an empty grid.
	Min float64
	Max float64

	present int
}

// Value returns the cell at (row, col) and whether it holds data.
// Out of range cells report no data.
func (g *Grid) Value(row, col int) (float64, bool) {
	if row < 0 || row >= g.Nrows || col < 0 || col >= g.Ncols {
		return 0, false
	}

	v := g.Values[row][col]
	if math.IsNaN(v) {
		return 0, false
	}

	return v, true
}

// Present returns the number of cells holding data.
func (g *Grid) Present() int {
	return g.present
}

// Empty reports whether no cell holds data.
func (g *Grid) Empty() bool {
	return g.present == 0
}

// Span returns Max-Min, floored to 1 for flat grids.
func (g *Grid) Span() float64 {
	span := g.Max - g.Min
	if span == 0 {
		return 1
	}

	return span
}

// Normalize maps v onto [0, 1] relative to the grid's value range.
func (g *Grid) Normalize(v float64) float64 {
	return (v - g.Min) / g.Span()
}

// CellCenter returns the center of a cell in degrees counted from the
// lower-left corner: lat = yll + (row+0.5)*cellsize, lon likewise from xll.
// The longitude is not wrapped.
func (g *Grid) CellCenter(row, col int) (lat, lon float64) {
	lat = g.YllCorner + (float64(row)+0.5)*g.CellSize
	lon = g.XllCorner + (float64(col)+0.5)*g.CellSize

	return lat, lon
}

// FromValues builds a grid from rows of values, NaN marking absent cells.
// Rows must share one length. The value range is computed as in parsing.
// The grid takes ownership of values.
func FromValues(values [][]float64, cellSize, xll, yll float64) *Grid {
	g := &Grid{
		Values:      values,
		Nrows:       len(values),
		CellSize:    cellSize,
		XllCorner:   xll,
		YllCorner:   yll,
		NodataValue: DefaultNodata,
		Min:         math.Inf(1),
		Max:         math.Inf(-1),
	}
	if len(values) > 0 {
		g.Ncols = len(values[0])
	}

	for _, row := range values {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			g.present++
			g.Min = math.Min(g.Min, v)
			g.Max = math.Max(g.Max, v)
		}
	}
	if g.present == 0 {
		g.Min, g.Max = 0, 0
	}

	return g
}
