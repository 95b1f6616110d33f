package processor

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/dzglobe/internal/geo"
)

// Artifact file names inside a layer directory.
const (
	GeometryFile = "geometry.json"
	MeshFile     = "mesh.json"
	PreviewFile  = "preview.webp"
	InfoFile     = "info.json"
	ManifestFile = "manifest.json"
)

// LayerInfo describes one built layer.
type LayerInfo struct {
	Index      *int      `json:"index,omitempty"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	Opacity    float64   `json:"opacity"`
	Primitives int       `json:"primitives"`
	Skipped    int       `json:"skipped"`
	Stride     int       `json:"stride,omitempty"`
	Files      []string  `json:"files"`
	BuiltAt    time.Time `json:"built_at"`
}

// HasFile reports whether the layer produced the named artifact.
func (l LayerInfo) HasFile(name string) bool {
	for _, f := range l.Files {
		if f == name {
			return true
		}
	}

	return false
}

// Manifest lists every layer available for serving.
type Manifest struct {
	Calibration geo.Calibration `json:"calibration"`
	Layers      []LayerInfo     `json:"layers"`
}

// SortLayers orders layers by index, unindexed last, then by name.
func SortLayers(layers []LayerInfo) {
	sort.Slice(layers, func(i, j int) bool {
		idxI, idxJ := 999999, 999999
		if layers[i].Index != nil {
			idxI = *layers[i].Index
		}
		if layers[j].Index != nil {
			idxJ = *layers[j].Index
		}
		if idxI != idxJ {
			return idxI < idxJ
		}

		return layers[i].Name < layers[j].Name
	})
}

// ReadManifest loads a manifest written by the loader.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	return &m, nil
}

func readInfo(path string) (LayerInfo, error) {
	var info LayerInfo

	data, err := os.ReadFile(path)
	if err != nil {
		return info, err
	}

	err = json.Unmarshal(data, &info)
	return info, err
}

// writeJSON marshals v and writes it to path, creating parent directories.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	// We care about write errors on close
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
		}
	}()

	return json.NewEncoder(f).Encode(v)
}
