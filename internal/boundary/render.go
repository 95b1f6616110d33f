// Package boundary renders GeoJSON polygon outlines as closed line strips
// on the globe.
package boundary

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/dzglobe/internal/geo"
	"github.com/woozymasta/dzglobe/internal/scene"
)

const (
	// HoleOpacity scales the opacity of interior rings.
	HoleOpacity = 0.4
	// HaloScale enlarges the second outline pass drawn for a glow.
	HaloScale = 1.03
)

// GeometryError marks an empty or degenerate ring or an unsupported
// geometry. Such input renders nothing.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string {
	return "geometry: " + e.Reason
}

// Style is the look of one outline pass.
type Style struct {
	Color   colorful.Color
	Opacity float64
	// Scale multiplies every vertex; zero means 1.
	Scale float64
}

// DefaultStyle is an opaque white outline at surface scale.
func DefaultStyle() Style {
	return Style{Color: colorful.Color{R: 1, G: 1, B: 1}, Opacity: 1, Scale: 1}
}

// HaloPasses returns base followed by the same style at HaloScale.
func HaloPasses(base Style) []Style {
	halo := base
	halo.Scale = HaloScale

	return []Style{base, halo}
}

// Renderer projects boundary rings with a fixed projector.
type Renderer struct {
	proj *geo.Projector
}

// NewRenderer returns a renderer using proj.
func NewRenderer(proj *geo.Projector) *Renderer {
	return &Renderer{proj: proj}
}

// RenderRing projects a ring of [lon, lat] points and closes it when the
// last point differs from the first.
func (r *Renderer) RenderRing(ring orb.Ring, style Style, hole bool) (scene.LineStrip, error) {
	if len(ring) == 0 {
		return scene.LineStrip{}, &GeometryError{Reason: "empty ring"}
	}
	if len(ring) < 2 {
		return scene.LineStrip{}, &GeometryError{Reason: fmt.Sprintf("ring has %d point", len(ring))}
	}

	scale := style.Scale
	if scale == 0 {
		scale = 1
	}

	closed := ring[0] == ring[len(ring)-1]
	n := len(ring)
	if !closed {
		n++
	}

	points := make([]r3.Vector, 0, n)
	for _, p := range ring {
		points = append(points, r.proj.ProjectGeoJSON(p.Lon(), p.Lat()).Mul(scale))
	}
	if !closed {
		points = append(points, points[0])
	}

	opacity := style.Opacity
	if hole {
		opacity *= HoleOpacity
	}

	return scene.LineStrip{
		Points: points,
		Color:  scene.FromColorful(style.Color, opacity),
		Hole:   hole,
	}, nil
}

// RenderPolygon emits the outer ring and one strip per hole.
// Degenerate rings are skipped and counted.
func (r *Renderer) RenderPolygon(poly orb.Polygon, style Style) ([]scene.LineStrip, int) {
	strips := make([]scene.LineStrip, 0, len(poly))
	skipped := 0

	for i, ring := range poly {
		strip, err := r.RenderRing(ring, style, i > 0)
		if err != nil {
			log.Debug().Err(err).Int("ring", i).Msg("Ring skipped")
			skipped++
			continue
		}
		strips = append(strips, strip)
	}

	return strips, skipped
}

// RenderFeature walks a Polygon or MultiPolygon. Other geometry types and
// degenerate rings render nothing; the second result counts them.
func (r *Renderer) RenderFeature(g orb.Geometry, style Style) ([]scene.LineStrip, int) {
	switch geom := g.(type) {
	case orb.Polygon:
		return r.RenderPolygon(geom, style)

	case orb.MultiPolygon:
		var strips []scene.LineStrip
		skipped := 0
		for _, poly := range geom {
			s, n := r.RenderPolygon(poly, style)
			strips = append(strips, s...)
			skipped += n
		}
		return strips, skipped

	case orb.Ring:
		strip, err := r.RenderRing(geom, style, false)
		if err != nil {
			log.Debug().Err(err).Msg("Ring skipped")
			return nil, 1
		}
		return []scene.LineStrip{strip}, 0

	default:
		err := &GeometryError{Reason: fmt.Sprintf("unsupported type %T", g)}
		log.Debug().Err(err).Msg("Feature skipped")
		return nil, 1
	}
}

// Render draws every feature once per style, tagging strips with the
// feature name.
func (r *Renderer) Render(features []geo.Feature, styles ...Style) ([]scene.LineStrip, int) {
	if len(styles) == 0 {
		styles = []Style{DefaultStyle()}
	}

	var strips []scene.LineStrip
	skipped := 0

	for _, style := range styles {
		for _, f := range features {
			s, n := r.RenderFeature(f.Geometry, style)
			for i := range s {
				s[i].Feature = f.Name
			}
			strips = append(strips, s...)
			skipped += n
		}
	}

	return strips, skipped
}
