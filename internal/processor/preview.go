package processor

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/chai2010/webp"
	"github.com/woozymasta/dzglobe/internal/grid"
	"github.com/woozymasta/dzglobe/internal/raster"
	xdraw "golang.org/x/image/draw"
)

// DefaultPreviewWidth is used when a layer sets no preview width.
const DefaultPreviewWidth = 1024

const (
	previewQuality = 85
	// WebP stores each dimension in 14 bits.
	maxWebPDimension = 16383
)

// RenderPreview draws g as a flat image colored by ramp, scaled to width
// and encoded as lossy WebP. The grid is sampled at the same stride the
// aggregator uses for maxPrimitives. Absent and zero cells are transparent.
// Higher rows are drawn nearer the top. Both image dimensions are clamped
// to what WebP can store, keeping the grid's aspect ratio.
func RenderPreview(g *grid.Grid, ramp raster.Ramp, width, maxPrimitives int) ([]byte, error) {
	if g.Ncols == 0 || g.Nrows == 0 {
		return nil, errors.New("preview: empty grid")
	}
	if ramp == nil {
		ramp = raster.HSL{}
	}
	if width <= 0 {
		width = DefaultPreviewWidth
	}

	src := previewSource(g, ramp, raster.Stride(g.Nrows, g.Ncols, maxPrimitives))

	w, h := previewSize(g.Ncols, g.Nrows, width)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, dst, &webp.Options{Lossless: false, Quality: previewQuality}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// previewSource paints one pixel per sampled cell.
func previewSource(g *grid.Grid, ramp raster.Ramp, stride int) *image.NRGBA {
	cols := (g.Ncols + stride - 1) / stride
	rows := (g.Nrows + stride - 1) / stride

	src := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		row := (rows - 1 - y) * stride
		for x := 0; x < cols; x++ {
			v, ok := g.Value(row, x*stride)
			if !ok || v == 0 {
				continue
			}

			r, gr, b := ramp.At(g.Normalize(v)).Clamped().RGB255()
			src.SetNRGBA(x, y, color.NRGBA{R: r, G: gr, B: b, A: 255})
		}
	}

	return src
}

// previewSize scales a cols x rows grid to width, shrinking both sides when
// either exceeds maxWebPDimension. Neither side drops below one pixel.
func previewSize(cols, rows, width int) (int, int) {
	w := int64(min(width, maxWebPDimension))
	h := w * int64(rows) / int64(cols)

	if h > maxWebPDimension {
		w = w * maxWebPDimension / h
		h = maxWebPDimension
	}

	return int(max(w, 1)), int(max(h, 1))
}
