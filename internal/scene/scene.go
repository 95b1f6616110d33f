// Package scene holds the renderable geometry produced for the globe:
// oriented boxes for rasters and line strips for boundaries.
package scene

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"
)

// Layer kinds.
const (
	KindRaster   = "raster"
	KindBoundary = "boundary"
)

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// FromColorful converts a colorful color with the given alpha.
func FromColorful(c colorful.Color, alpha float64) Color {
	return Color{R: c.R, G: c.G, B: c.B, A: alpha}
}

// Box is one raster cell drawn as a column standing on the globe.
type Box struct {
	// Position is the base point on the sphere.
	Position r3.Vector `json:"position"`
	// Normal is the outward unit direction the box extends along.
	Normal r3.Vector `json:"normal"`
	// Scale is footprint (X, Y) and height (Z) in world units.
	Scale r3.Vector `json:"scale"`
	Color Color     `json:"color"`

	// LatRotation (about X) and LonRotation (about Y), radians, orient the
	// box's local +Z along Normal: R = Ry(LonRotation)·Rx(LatRotation).
	LatRotation float64 `json:"lat_rotation"`
	LonRotation float64 `json:"lon_rotation"`

	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Value float64 `json:"value"`
}

// Basis returns the box's local X, Y and Z axes in world space.
func (b Box) Basis() (x, y, z r3.Vector) {
	sinA, cosA := math.Sincos(b.LatRotation)
	sinB, cosB := math.Sincos(b.LonRotation)

	x = r3.Vector{X: cosB, Y: 0, Z: -sinB}
	y = r3.Vector{X: sinA * sinB, Y: cosA, Z: sinA * cosB}
	z = r3.Vector{X: cosA * sinB, Y: -sinA, Z: cosA * cosB}

	return x, y, z
}

// LineStrip is a connected polyline on the globe. Boundary rings are closed:
// the last point equals the first.
type LineStrip struct {
	Feature string      `json:"feature,omitempty"`
	Points  []r3.Vector `json:"points"`
	Color   Color       `json:"color"`
	Hole    bool        `json:"hole,omitempty"`
}

// Closed reports whether the strip ends where it began.
func (l LineStrip) Closed() bool {
	return len(l.Points) > 1 && l.Points[0] == l.Points[len(l.Points)-1]
}

// Layer is the geometry built from one source.
type Layer struct {
	Name  string      `json:"name"`
	Kind  string      `json:"kind"`
	Boxes []Box       `json:"boxes,omitempty"`
	Lines []LineStrip `json:"lines,omitempty"`

	// Stride is the raster sampling step; zero for boundaries.
	Stride int `json:"stride,omitempty"`
	// Skipped counts cells or rings that produced no primitive.
	Skipped int `json:"skipped"`
}

// Primitives returns the number of boxes and line strips.
func (l *Layer) Primitives() int {
	return len(l.Boxes) + len(l.Lines)
}

// Scene is an ordered set of layers.
type Scene struct {
	Layers []Layer `json:"layers"`
}

// Primitives returns the primitive count across all layers.
func (s *Scene) Primitives() int {
	n := 0
	for i := range s.Layers {
		n += s.Layers[i].Primitives()
	}

	return n
}
