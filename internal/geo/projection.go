// Package geo handles geographic data structures and coordinate conversions
// between latitude/longitude and the 3D globe.
package geo

import (
	"math"

	"github.com/golang/geo/r3"
)

// Calibration holds the fixed offsets that align projected points with
// the globe's base texture.
type Calibration struct {
	// LonFudge is added to the longitude rotation (radians).
	LonFudge float64 `yaml:"lon_fudge" json:"lon_fudge"`
	// LatFudge is added to the latitude rotation (radians).
	LatFudge float64 `yaml:"lat_fudge" json:"lat_fudge"`
	// GeoJSONLatOffset is applied to negated GeoJSON latitudes (degrees).
	GeoJSONLatOffset float64 `yaml:"geojson_lat_offset" json:"geojson_lat_offset"`
	// Surface is the distance of projected points from the center,
	// a hair above the unit globe mesh.
	Surface float64 `yaml:"surface" json:"surface" validate:"gt=0"`
}

// DefaultCalibration returns the calibration of the stock base texture.
func DefaultCalibration() Calibration {
	return Calibration{
		LonFudge:         math.Pi * 0.5,
		LatFudge:         math.Pi * -0.135,
		GeoJSONLatOffset: 25,
		Surface:          1.01,
	}
}

// Projector converts latitude/longitude into points on the globe.
// It is immutable and safe for concurrent use.
type Projector struct {
	cal Calibration
}

// NewProjector returns a projector bound to the given calibration.
func NewProjector(cal Calibration) *Projector {
	return &Projector{cal: cal}
}

// Calibration returns the projector's calibration.
func (p *Projector) Calibration() Calibration {
	return p.cal
}

// Rotation returns the two composed rotation angles (radians) for a position:
// latRot about the X axis and lonRot about the Y axis. A point displaced along
// +Z and rotated by Ry(lonRot)·Rx(latRot) lands on the globe.
func (p *Projector) Rotation(lat, lon float64) (latRot, lonRot float64) {
	latRot = DegToRad(lat) + p.cal.LatFudge
	lonRot = DegToRad(NormalizeLon(lon)) + p.cal.LonFudge

	return latRot, lonRot
}

// Project returns the point for (lat, lon) at the calibrated surface distance.
//
// The point is (0, 0, Surface) rotated about X by latRot, then about Y by
// lonRot, written out in closed form.
func (p *Projector) Project(lat, lon float64) r3.Vector {
	a, b := p.Rotation(lat, lon)
	r := p.cal.Surface

	sinA, cosA := math.Sincos(a)
	sinB, cosB := math.Sincos(b)

	return r3.Vector{
		X: r * cosA * sinB,
		Y: -r * sinA,
		Z: r * cosA * cosB,
	}
}

// SceneLat shifts a latitude by GeoJSONLatOffset. Raster cell latitudes,
// which count up from the lower edge of north-to-south rows, and negated
// GeoJSON latitudes both pass through it so the two layer kinds line up.
func (p *Projector) SceneLat(lat float64) float64 {
	return p.cal.GeoJSONLatOffset + lat
}

// ProjectCell projects a raster cell center given in grid coordinates.
func (p *Projector) ProjectCell(lat, lon float64) r3.Vector {
	return p.Project(p.SceneLat(lat), lon)
}

// ProjectGeoJSON projects a GeoJSON position given in [lon, lat] order.
// The latitude is negated and shifted by GeoJSONLatOffset first.
func (p *Projector) ProjectGeoJSON(lon, lat float64) r3.Vector {
	return p.Project(p.SceneLat(-lat), lon)
}

// Unproject recovers latitude and longitude in degrees from a direction,
// using the plain polar inversion with Y as the polar axis. The origin maps
// to (0, 0). Used for picking; it does not undo the calibration offsets.
func Unproject(v r3.Vector) (lat, lon float64) {
	r := v.Norm()
	if r == 0 {
		return 0, 0
	}

	cos := v.Y / r
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}

	lat = 90 - RadToDeg(math.Acos(cos))
	lon = NormalizeLon(RadToDeg(math.Atan2(v.Z, v.X)))

	return lat, lon
}
