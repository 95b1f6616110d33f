package geo

import (
	"math"

	"github.com/golang/geo/s1"
)

// NormalizeLon brings a longitude into [-180, 180] by whole turns,
// stepping 360 degrees at a time. 180 and -180 are both left untouched.
// Projection uses this form.
func NormalizeLon(lon float64) float64 {
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return math.NaN()
	}

	// Mod is exact, keeps the stepping loops short for far-out values
	if math.Abs(lon) > 3600 {
		lon = math.Mod(lon, 360)
	}

	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}

	return lon
}

// WrapLon maps a longitude into [-180, 180) with modular arithmetic.
// 180 wraps to -180. Raster cell centers use this form so the seam
// at the antimeridian falls on one side only.
func WrapLon(lon float64) float64 {
	return math.Mod(math.Mod(lon+180, 360)+360, 360) - 180
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return (s1.Angle(deg) * s1.Degree).Radians()
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return s1.Angle(rad).Degrees()
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
