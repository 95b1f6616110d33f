package geo

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrNoFeatures is returned when a GeoJSON document holds no geometry.
var ErrNoFeatures = errors.New("no features found")

// Feature is a single boundary feature loaded from GeoJSON.
type Feature struct {
	Geometry   orb.Geometry
	Properties map[string]interface{}
	Name       string
}

// nameKeys are property names probed, in order, for a feature label.
var nameKeys = []string{"name", "NAME", "ADMIN", "admin", "name_en", "NAME_EN"}

// LoadFeatures decodes a GeoJSON Feature, FeatureCollection or bare geometry.
// Features without geometry are dropped.
func LoadFeatures(data []byte) ([]Feature, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	var features []Feature

	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		for _, f := range fc.Features {
			if f == nil || f.Geometry == nil {
				continue
			}
			features = append(features, newFeature(f))
		}

	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		if f.Geometry != nil {
			features = append(features, newFeature(f))
		}

	case "":
		return nil, errors.New("invalid geojson: missing type")

	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
		if geom := g.Geometry(); geom != nil {
			features = append(features, Feature{Geometry: geom})
		}
	}

	if len(features) == 0 {
		return nil, ErrNoFeatures
	}

	return features, nil
}

func newFeature(f *geojson.Feature) Feature {
	feature := Feature{
		Geometry:   f.Geometry,
		Properties: map[string]interface{}(f.Properties),
	}

	for _, key := range nameKeys {
		if s, ok := f.Properties[key].(string); ok && s != "" {
			feature.Name = s
			break
		}
	}
	if feature.Name == "" && f.ID != nil {
		feature.Name = fmt.Sprint(f.ID)
	}

	return feature
}
