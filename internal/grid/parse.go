package grid

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const bom = "\ufeff"

// maxLine bounds a single raster row; wide global grids run to megabytes.
const maxLine = 64 << 20

// Header limits. Lenient parsing pads missing rows, so the declared size is
// allocated even when the body is short.
const (
	maxDimension = 1 << 20
	maxCells     = 1 << 28
)

// Options tune parsing.
type Options struct {
	// Lenient pads short rows and missing rows with absent cells and drops
	// surplus values and rows instead of failing.
	Lenient bool
}

// Parse parses an ESRI ASCII raster held in memory.
func Parse(data []byte, opts Options) (*Grid, error) {
	return ParseReader(bytes.NewReader(data), opts)
}

// ParseReader parses an ESRI ASCII raster: "key value" header lines followed
// by nrows lines of ncols whitespace separated values.
func ParseReader(r io.Reader, opts Options) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	p := &parser{
		opts:       opts,
		header:     make(map[string]string),
		headerLine: make(map[string]int),
	}
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, bom)
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if p.grid == nil {
			if isHeaderLine(fields) {
				p.header[strings.ToLower(fields[0])] = fields[1]
				p.headerLine[strings.ToLower(fields[0])] = lineNo
				continue
			}
			if err := p.finishHeader(); err != nil {
				return nil, err
			}
		}

		if err := p.row(lineNo, fields); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}

	if p.grid == nil {
		if err := p.finishHeader(); err != nil {
			return nil, err
		}
	}

	return p.finish()
}

type parser struct {
	grid       *Grid
	header     map[string]string
	headerLine map[string]int
	nodataText string
	rows       int
	opts       Options
}

// isHeaderLine reports a "key value" pair. Numeric first tokens are data,
// which keeps rasters of one or two columns parseable.
func isHeaderLine(fields []string) bool {
	if len(fields) != 2 {
		return false
	}
	_, err := strconv.ParseFloat(fields[0], 64)

	return err != nil
}

func (p *parser) float(key string) (float64, bool, error) {
	s, ok := p.header[key]
	if !ok {
		return 0, false, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true, &ParseError{Line: p.headerLine[key], Field: key, Reason: fmt.Sprintf("not a number: %q", s)}
	}

	return v, true, nil
}

func (p *parser) dimension(key string) (int, error) {
	v, ok, err := p.float(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &ParseError{Field: key, Reason: "missing"}
	}
	if v != math.Trunc(v) || v <= 0 {
		return 0, &ParseError{Line: p.headerLine[key], Field: key, Reason: fmt.Sprintf("must be a positive integer, got %v", v)}
	}
	if v > maxDimension {
		return 0, &ParseError{Line: p.headerLine[key], Field: key, Reason: fmt.Sprintf("%v exceeds limit %d", v, maxDimension)}
	}

	return int(v), nil
}

// origin resolves one axis of the lower-left corner. Center keys win over
// corner keys and are shifted by half a cell.
func (p *parser) origin(axis string, cellSize float64) (float64, error) {
	center, ok, err := p.float(axis + "llcenter")
	if err != nil {
		return 0, err
	}
	if ok {
		return center - cellSize*0.5, nil
	}

	corner, ok, err := p.float(axis + "llcorner")
	if err != nil {
		return 0, err
	}
	if ok {
		return corner, nil
	}

	return 0, &ParseError{Field: axis + "llcorner", Reason: "missing (no corner or center key)"}
}

func (p *parser) finishHeader() error {
	ncols, err := p.dimension("ncols")
	if err != nil {
		return err
	}
	nrows, err := p.dimension("nrows")
	if err != nil {
		return err
	}
	if ncols*nrows > maxCells {
		return &ParseError{Line: p.headerLine["nrows"], Field: "nrows", Reason: fmt.Sprintf("%d x %d cells exceeds limit %d", ncols, nrows, maxCells)}
	}

	cellSize, ok, err := p.float("cellsize")
	if err != nil {
		return err
	}
	if !ok {
		return &ParseError{Field: "cellsize", Reason: "missing"}
	}
	if cellSize <= 0 {
		return &ParseError{Line: p.headerLine["cellsize"], Field: "cellsize", Reason: fmt.Sprintf("must be positive, got %v", cellSize)}
	}

	xll, err := p.origin("x", cellSize)
	if err != nil {
		return err
	}
	yll, err := p.origin("y", cellSize)
	if err != nil {
		return err
	}

	nodata, ok, err := p.float("nodata_value")
	if err != nil {
		return err
	}
	if !ok {
		nodata = DefaultNodata
	}
	p.nodataText = p.header["nodata_value"]

	p.grid = &Grid{
		Ncols:       ncols,
		Nrows:       nrows,
		CellSize:    cellSize,
		XllCorner:   xll,
		YllCorner:   yll,
		NodataValue: nodata,
		Values:      make([][]float64, 0, min(nrows, 1<<16)),
		Min:         math.Inf(1),
		Max:         math.Inf(-1),
	}

	return nil
}

func (p *parser) row(lineNo int, fields []string) error {
	g := p.grid

	if p.rows == g.Nrows {
		if p.opts.Lenient {
			return nil
		}
		return &ParseError{Line: lineNo, Reason: fmt.Sprintf("more than %d rows", g.Nrows)}
	}

	if len(fields) != g.Ncols && !p.opts.Lenient {
		return &ParseError{Line: lineNo, Reason: fmt.Sprintf("row has %d values, want %d", len(fields), g.Ncols)}
	}

	values := make([]float64, g.Ncols)
	for i := range values {
		values[i] = math.NaN()
		if i >= len(fields) {
			continue
		}

		tok := fields[i]
		if tok == p.nodataText {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || v == g.NodataValue || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}

		values[i] = v
		g.present++
		if v < g.Min {
			g.Min = v
		}
		if v > g.Max {
			g.Max = v
		}
	}

	g.Values = append(g.Values, values)
	p.rows++

	return nil
}

func (p *parser) finish() (*Grid, error) {
	g := p.grid

	if p.rows < g.Nrows {
		if !p.opts.Lenient {
			return nil, &ParseError{Reason: fmt.Sprintf("got %d rows, header declares %d", p.rows, g.Nrows)}
		}
		for p.rows < g.Nrows {
			values := make([]float64, g.Ncols)
			for i := range values {
				values[i] = math.NaN()
			}
			g.Values = append(g.Values, values)
			p.rows++
		}
	}

	if g.present == 0 {
		g.Min, g.Max = 0, 0
	}

	return g, nil
}
