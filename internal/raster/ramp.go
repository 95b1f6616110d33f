package raster

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/woozymasta/dzglobe/internal/geo"
)

// Ramp maps a normalized value t in [0, 1] to a color.
type Ramp interface {
	At(t float64) colorful.Color
}

// Linear blends two colors component-wise in RGB.
type Linear struct {
	From colorful.Color
	To   colorful.Color
}

// NewLinear builds a two-color ramp from hex strings such as "#ff8800".
func NewLinear(from, to string) (Linear, error) {
	a, err := colorful.Hex(from)
	if err != nil {
		return Linear{}, fmt.Errorf("ramp start %q: %w", from, err)
	}
	b, err := colorful.Hex(to)
	if err != nil {
		return Linear{}, fmt.Errorf("ramp end %q: %w", to, err)
	}

	return Linear{From: a, To: b}, nil
}

// At returns From at t <= 0, To at t >= 1 and the RGB blend in between.
func (l Linear) At(t float64) colorful.Color {
	switch {
	case t <= 0:
		return l.From
	case t >= 1:
		return l.To
	}

	return l.From.BlendRgb(l.To, t)
}

// HSL is the fallback ramp: hue sweeps from blue towards green while
// lightness rises with t.
type HSL struct{}

// At implements Ramp.
func (HSL) At(t float64) colorful.Color {
	t = clamp01(t)
	hue := geo.Lerp(0.7, 0.3, t) * 360
	lightness := geo.Lerp(0.4, 1.0, t)

	return colorful.Hsl(hue, 1, lightness).Clamped()
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}

	return t
}
