package raster

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/woozymasta/dzglobe/internal/geo"
	"github.com/woozymasta/dzglobe/internal/grid"
)

// Features samples g at the aggregation stride for maxFeatures and returns
// one Point per present cell, longitude wrapped to [-180, 180), with the
// cell value in the "value" property. Unlike Aggregate, zero values and the
// last column are kept.
func Features(g *grid.Grid, maxFeatures int) *geojson.FeatureCollection {
	stride := Stride(g.Nrows, g.Ncols, maxFeatures)
	fc := geojson.NewFeatureCollection()

	for row := 0; row < g.Nrows; row += stride {
		for col := 0; col < g.Ncols; col += stride {
			v, ok := g.Value(row, col)
			if !ok {
				continue
			}

			lat, lon := g.CellCenter(row, col)
			f := geojson.NewFeature(orb.Point{geo.WrapLon(lon), lat})
			f.Properties["value"] = v
			fc.Append(f)
		}
	}

	return fc
}
