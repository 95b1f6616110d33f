package grid

import (
	"errors"
	"math"
	"strings"
	"testing"
)

const sample = `ncols 3
nrows 2
xllcorner 0
yllcorner 0
cellsize 1
NODATA_value -9999
1 2 -9999
4 5 6
`

func TestParseSample(t *testing.T) {
	g, err := Parse([]byte(sample), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if g.Ncols != 3 || g.Nrows != 2 {
		t.Fatalf("dims = %dx%d, want 3x2", g.Ncols, g.Nrows)
	}
	if g.Min != 1 || g.Max != 6 {
		t.Errorf("range = [%v, %v], want [1, 6]", g.Min, g.Max)
	}
	if v, ok := g.Value(1, 2); !ok || v != 6 {
		t.Errorf("Value(1, 2) = %v, %v, want 6, true", v, ok)
	}
	if _, ok := g.Value(0, 2); ok {
		t.Error("Value(0, 2) should be nodata")
	}
	if g.Present() != 5 {
		t.Errorf("Present() = %d, want 5", g.Present())
	}
	if len(g.Values) != g.Nrows {
		t.Errorf("len(Values) = %d, want %d", len(g.Values), g.Nrows)
	}
	for i, row := range g.Values {
		if len(row) != g.Ncols {
			t.Errorf("row %d has %d cells, want %d", i, len(row), g.Ncols)
		}
	}
}

func TestParseCenterToCorner(t *testing.T) {
	text := "ncols 2\nnrows 1\nxllcenter 10\nyllcenter 20\nxllcorner 99\ncellsize 2\n1 2\n"

	g, err := Parse([]byte(text), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if g.XllCorner != 9 || g.YllCorner != 19 {
		t.Errorf("corner = (%v, %v), want (9, 19)", g.XllCorner, g.YllCorner)
	}
}

func TestParseHeaderVariants(t *testing.T) {
	text := "\ufeffNCOLS 1\r\nNROWS 3\r\n\r\nXLLCORNER -180\r\nYLLCORNER -90\r\nCELLSIZE 0.5\r\n7\r\n\r\nfoo\r\n9\r\n"

	g, err := Parse([]byte(text), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if g.NodataValue != DefaultNodata {
		t.Errorf("NodataValue = %v, want %v", g.NodataValue, DefaultNodata)
	}
	if g.XllCorner != -180 || g.YllCorner != -90 || g.CellSize != 0.5 {
		t.Errorf("header = %+v", g)
	}
	if _, ok := g.Value(1, 0); ok {
		t.Error("non-numeric token should be absent")
	}
	if g.Min != 7 || g.Max != 9 {
		t.Errorf("range = [%v, %v], want [7, 9]", g.Min, g.Max)
	}
}

func TestParseNodataToken(t *testing.T) {
	text := "ncols 4\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\nnodata_value -3.4e38\n-3.4e38 -3.40e+38 nan 2\n"

	g, err := Parse([]byte(text), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if g.Present() != 1 {
		t.Errorf("Present() = %d, want 1", g.Present())
	}
	if g.Min != 2 || g.Max != 2 {
		t.Errorf("range = [%v, %v], want [2, 2]", g.Min, g.Max)
	}
	if g.Span() != 1 {
		t.Errorf("Span() = %v, want 1 for a flat grid", g.Span())
	}
}

func TestParseEmptyGrid(t *testing.T) {
	text := "ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n-9999 -9999\n"

	g, err := Parse([]byte(text), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !g.Empty() || g.Min != 0 || g.Max != 0 {
		t.Errorf("empty grid: Empty=%v Min=%v Max=%v", g.Empty(), g.Min, g.Max)
	}
}

func TestParseErrors(t *testing.T) {
	header := "ncols 3\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n"

	tests := []struct {
		name  string
		text  string
		field string
	}{
		{"non-numeric ncols", "ncols abc\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n", "ncols"},
		{"zero nrows", "ncols 3\nnrows 0\nxllcorner 0\nyllcorner 0\ncellsize 1\n", "nrows"},
		{"negative ncols", "ncols -1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n", "ncols"},
		{"fractional nrows", "ncols 3\nnrows 1.5\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n", "nrows"},
		{"missing cellsize", "ncols 3\nnrows 1\nxllcorner 0\nyllcorner 0\n1 2 3\n", "cellsize"},
		{"zero cellsize", "ncols 3\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 0\n1 2 3\n", "cellsize"},
		{"missing corner", "ncols 3\nnrows 1\ncellsize 1\n1 2 3\n", "xllcorner"},
		{"missing y corner", "ncols 3\nnrows 1\nxllcorner 0\ncellsize 1\n1 2 3\n", "yllcorner"},
		{"bad nodata", "ncols 3\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\nnodata_value x\n1 2 3\n", "nodata_value"},
		{"too few rows", header + "1 2 3\n", ""},
		{"too many rows", header + "1 2 3\n4 5 6\n7 8 9\n", ""},
		{"short row", header + "1 2 3\n4 5\n", ""},
		{"long row", header + "1 2 3 4\n4 5 6\n", ""},
		{"header only", header, ""},
		{"huge ncols", "ncols 100000000000000\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n", "ncols"},
		{"too many cells", "ncols 1048576\nnrows 1048576\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n", "nrows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.text), Options{})
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if perr.Field != tt.field {
				t.Errorf("Field = %q, want %q (%v)", perr.Field, tt.field, perr)
			}
		})
	}
}

func TestParseLenient(t *testing.T) {
	text := "ncols 3\nnrows 3\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2\n3 4 5 6\n"

	g, err := Parse([]byte(text), Options{Lenient: true})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(g.Values) != 3 {
		t.Fatalf("len(Values) = %d, want 3", len(g.Values))
	}
	for i, row := range g.Values {
		if len(row) != 3 {
			t.Errorf("row %d has %d cells", i, len(row))
		}
	}
	if _, ok := g.Value(0, 2); ok {
		t.Error("padded cell should be absent")
	}
	if v, _ := g.Value(1, 2); v != 5 {
		t.Errorf("Value(1, 2) = %v, want 5", v)
	}
	if g.Max != 5 {
		t.Errorf("Max = %v, want 5 (surplus value dropped)", g.Max)
	}
	for _, v := range g.Values[2] {
		if !math.IsNaN(v) {
			t.Errorf("missing row should be absent, got %v", v)
		}
	}
}

func TestParseLenientOversized(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field string
	}{
		{"ncols", "ncols 100000000000000\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n", "ncols"},
		{"nrows", "ncols 1\nnrows 1e300\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n", "nrows"},
		{"cell product", "ncols 65536\nnrows 65536\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n", "nrows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.text), Options{Lenient: true})
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if perr.Field != tt.field {
				t.Errorf("Field = %q, want %q (%v)", perr.Field, tt.field, perr)
			}
		})
	}
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{Line: 4, Field: "ncols", Reason: "missing"}
	if !strings.Contains(err.Error(), "line 4") || !strings.Contains(err.Error(), "ncols") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestCellCenter(t *testing.T) {
	g := &Grid{CellSize: 2, XllCorner: -180, YllCorner: -90}

	lat, lon := g.CellCenter(0, 0)
	if lat != -89 || lon != -179 {
		t.Errorf("CellCenter(0, 0) = (%v, %v), want (-89, -179)", lat, lon)
	}
	lat, lon = g.CellCenter(3, 5)
	if lat != -83 || lon != -169 {
		t.Errorf("CellCenter(3, 5) = (%v, %v), want (-83, -169)", lat, lon)
	}
}
