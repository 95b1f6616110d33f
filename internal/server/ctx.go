package server

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/dzglobe/assets"
	"github.com/woozymasta/dzglobe/internal/geo"
	"github.com/woozymasta/dzglobe/internal/processor"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Output    string
	Manifest  *processor.Manifest
	Projector *geo.Projector
	IndexHTML []byte
	Favicon   []byte

	layers map[string]processor.LayerInfo
}

// NewServerContext loads the manifest from output and keeps the layers
// whose geometry is on disk. A missing manifest yields an empty layer list.
func NewServerContext(output string) *ServerContext {
	manifestPath := filepath.Join(output, processor.ManifestFile)
	log.Info().Str("manifest", manifestPath).Msg("Initializing server context")

	manifest, err := processor.ReadManifest(manifestPath)
	if err != nil {
		log.Warn().
			Err(err).
			Str("path", manifestPath).
			Msg("Manifest not loaded, serving no layers")
		manifest = &processor.Manifest{Calibration: geo.DefaultCalibration()}
	}

	layers := make(map[string]processor.LayerInfo, len(manifest.Layers))
	valid := make([]processor.LayerInfo, 0, len(manifest.Layers))

	for _, layer := range manifest.Layers {
		geometry := filepath.Join(output, layer.Name, processor.GeometryFile)
		if _, err := os.Stat(geometry); err != nil {
			log.Warn().
				Str("layer", layer.Name).
				Str("path", geometry).
				Msg("Skipping layer: geometry not found")
			continue
		}

		log.Debug().
			Str("layer", layer.Name).
			Str("kind", layer.Kind).
			Int("primitives", layer.Primitives).
			Msg("Layer validated and added to context")

		layers[layer.Name] = layer
		valid = append(valid, layer)
	}

	processor.SortLayers(valid)
	manifest.Layers = valid

	log.Info().
		Int("layers", len(valid)).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Output:    output,
		Manifest:  manifest,
		Projector: geo.NewProjector(manifest.Calibration),
		IndexHTML: assets.Index,
		Favicon:   assets.Favicon,
		layers:    layers,
	}
}
