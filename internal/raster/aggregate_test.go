package raster

import (
	"math"
	"testing"

	"github.com/woozymasta/dzglobe/internal/geo"
	"github.com/woozymasta/dzglobe/internal/grid"
)

func filled(nrows, ncols int, v float64) *grid.Grid {
	values := make([][]float64, nrows)
	for r := range values {
		values[r] = make([]float64, ncols)
		for c := range values[r] {
			values[r][c] = v + float64(r*ncols+c)
		}
	}

	return grid.FromValues(values, 360/float64(ncols), -180, -90)
}

func TestStride(t *testing.T) {
	tests := []struct {
		nrows, ncols, max int
		want              int
	}{
		{10, 10, 150000, 1},
		{100, 100, 150000, 1},
		{1000, 1000, 150000, 3},
		{10000, 10000, 150000, 26},
		{387, 388, 150000, 2},
		{10, 10, 25, 2},
		{10, 10, 0, 1},
		{0, 0, 100, 1},
	}

	for _, tt := range tests {
		if got := Stride(tt.nrows, tt.ncols, tt.max); got != tt.want {
			t.Errorf("Stride(%d, %d, %d) = %d, want %d", tt.nrows, tt.ncols, tt.max, got, tt.want)
		}
	}
}

func TestAggregateBudget(t *testing.T) {
	const budget = 150000
	proj := geo.NewProjector(geo.DefaultCalibration())

	for _, side := range []int{10, 100, 1000} {
		g := filled(side, side, 1)
		res := Aggregate(g, proj, Options{MaxPrimitives: budget})

		if len(res.Boxes) > budget {
			t.Errorf("%dx%d grid: %d boxes exceed budget %d", side, side, len(res.Boxes), budget)
		}
		if res.Visited-res.Skipped != len(res.Boxes) {
			t.Errorf("%dx%d grid: visited %d skipped %d boxes %d", side, side, res.Visited, res.Skipped, len(res.Boxes))
		}
		if side <= 100 && len(res.Boxes) != side*(side-1) {
			t.Errorf("%dx%d grid at stride 1: %d boxes, want %d", side, side, len(res.Boxes), side*(side-1))
		}
	}

	// tighter budgets: ceil(n/stride) samples per axis, stride >= n/sqrt(budget)
	g := filled(300, 300, 1)
	for _, budget := range []int{10, 1000, 5000} {
		res := Aggregate(g, proj, Options{MaxPrimitives: budget})
		bound := math.Pow(math.Sqrt(float64(budget))+1, 2)
		if float64(len(res.Boxes)) > bound {
			t.Errorf("budget %d: got %d boxes, bound %.0f", budget, len(res.Boxes), bound)
		}
	}
}

func TestAggregateSkips(t *testing.T) {
	nan := math.NaN()
	g := grid.FromValues([][]float64{
		{1, 0, 5},
		{nan, 2, 3},
	}, 1, 0, 0)

	res := Aggregate(g, geo.NewProjector(geo.DefaultCalibration()), Options{})

	if res.Stride != 1 {
		t.Fatalf("Stride = %d, want 1", res.Stride)
	}
	if len(res.Boxes) != 2 {
		t.Fatalf("got %d boxes, want 2", len(res.Boxes))
	}
	if res.Boxes[0].Value != 1 || res.Boxes[1].Value != 2 {
		t.Errorf("values = %v, %v, want 1, 2", res.Boxes[0].Value, res.Boxes[1].Value)
	}
	if res.Visited != 6 || res.Skipped != 4 {
		t.Errorf("visited %d skipped %d, want 6 and 4", res.Visited, res.Skipped)
	}
}

func TestAggregateBox(t *testing.T) {
	g := grid.FromValues([][]float64{
		{10, 20, 1},
		{30, 50, 1},
	}, 90, 135, -90)

	proj := geo.NewProjector(geo.DefaultCalibration())
	res := Aggregate(g, proj, Options{})

	if len(res.Boxes) != 4 {
		t.Fatalf("got %d boxes, want 4", len(res.Boxes))
	}

	// row 1, col 1: lat = -90 + 1.5*90 = 45, lon = 135 + 1.5*90 = 270 -> -90
	b := res.Boxes[3]
	if b.Lat != 45 || b.Lon != -90 {
		t.Errorf("cell center = (%v, %v), want (45, -90)", b.Lat, b.Lon)
	}
	if want := proj.Project(proj.SceneLat(45), -90); b.Position != want {
		t.Errorf("Position = %v, want %v", b.Position, want)
	}
	if math.Abs(b.Normal.Norm()-1) > 1e-12 {
		t.Errorf("Normal not unit: %v", b.Normal)
	}
	if b.Scale.X != Footprint || b.Scale.Y != Footprint {
		t.Errorf("footprint = %v x %v", b.Scale.X, b.Scale.Y)
	}
	if math.Abs(b.Scale.Z-MaxHeight) > 1e-15 {
		t.Errorf("max cell height = %v, want %v", b.Scale.Z, MaxHeight)
	}

	// min value 1 sits in the skipped last column, so 10 is not the floor
	first := res.Boxes[0]
	wantT := (10.0 - 1) / (50 - 1)
	if math.Abs(first.Scale.Z-geo.Lerp(MinHeight, MaxHeight, wantT)) > 1e-15 {
		t.Errorf("height = %v, want lerp at t=%v", first.Scale.Z, wantT)
	}

	_, _, z := b.Basis()
	if z.Sub(b.Normal).Norm() > 1e-9 {
		t.Errorf("box +Z %v does not follow normal %v", z, b.Normal)
	}
}

func TestAggregateFlatGrid(t *testing.T) {
	g := grid.FromValues([][]float64{{4, 4, 4}}, 1, 0, 0)

	res := Aggregate(g, geo.NewProjector(geo.DefaultCalibration()), Options{})
	if len(res.Boxes) != 2 {
		t.Fatalf("got %d boxes, want 2", len(res.Boxes))
	}
	if res.Boxes[0].Scale.Z != MinHeight {
		t.Errorf("flat grid height = %v, want %v", res.Boxes[0].Scale.Z, MinHeight)
	}
}

func TestAggregateRampColor(t *testing.T) {
	ramp, err := NewLinear("#000000", "#ffffff")
	if err != nil {
		t.Fatal(err)
	}
	g := grid.FromValues([][]float64{{1, 3, 2}}, 1, 0, 0)

	res := Aggregate(g, geo.NewProjector(geo.DefaultCalibration()), Options{Ramp: ramp})
	if len(res.Boxes) != 2 {
		t.Fatalf("got %d boxes, want 2", len(res.Boxes))
	}
	if c := res.Boxes[0].Color; c.R != 0 || c.A != 1 {
		t.Errorf("min color = %+v, want black", c)
	}
	if c := res.Boxes[1].Color; c.R != 1 || c.G != 1 || c.B != 1 {
		t.Errorf("max color = %+v, want white", c)
	}
}

func TestAggregateMatchesBoundaryProjection(t *testing.T) {
	// 1 degree global grid, rows north to south: row 10 is 79.5N, col 100 is 79.5W
	values := make([][]float64, 180)
	for r := range values {
		values[r] = make([]float64, 360)
	}
	values[10][100] = 7
	g := grid.FromValues(values, 1, -180, -90)

	proj := geo.NewProjector(geo.DefaultCalibration())
	res := Aggregate(g, proj, Options{})
	if len(res.Boxes) != 1 {
		t.Fatalf("got %d boxes, want 1", len(res.Boxes))
	}

	box := res.Boxes[0]
	vertex := proj.ProjectGeoJSON(-79.5, 79.5)
	if d := box.Position.Sub(vertex).Norm(); d > 1e-12 {
		t.Errorf("raster box and boundary vertex for the same place are %v apart", d)
	}

	_, _, z := box.Basis()
	if z.Sub(vertex.Normalize()).Norm() > 1e-9 {
		t.Errorf("box axis %v does not point at %v", z, vertex.Normalize())
	}
}
