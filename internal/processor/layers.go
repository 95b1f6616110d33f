package processor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/dzglobe/internal/boundary"
	"github.com/woozymasta/dzglobe/internal/config"
	"github.com/woozymasta/dzglobe/internal/geo"
	"github.com/woozymasta/dzglobe/internal/grid"
	"github.com/woozymasta/dzglobe/internal/metrics"
	"github.com/woozymasta/dzglobe/internal/raster"
	"github.com/woozymasta/dzglobe/internal/scene"
)

// Pipeline stages reported by BuildError.
const (
	StageFetch    = "fetch"
	StageParse    = "parse"
	StageGeometry = "geometry"
	StageWrite    = "io"
	StagePanic    = "panic"
)

// BuildError reports the stage a layer failed in.
type BuildError struct {
	Layer string
	Stage string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("layer %s: %s: %v", e.Layer, e.Stage, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Result is the outcome of building one layer.
type Result struct {
	Layer config.Layer
	Info  LayerInfo
	// Primitives is the number of boxes or line strips written.
	Primitives int
	// Cached is set when existing artifacts were reused.
	Cached bool
	Err    error
}

// BuildRaster aggregates g into a raster layer.
func BuildRaster(name string, g *grid.Grid, proj *geo.Projector, opts raster.Options) scene.Layer {
	res := raster.Aggregate(g, proj, opts)

	return scene.Layer{
		Name:    name,
		Kind:    scene.KindRaster,
		Boxes:   res.Boxes,
		Stride:  res.Stride,
		Skipped: res.Skipped,
	}
}

// BuildBoundary renders features into a boundary layer, with a second
// enlarged pass when halo is set.
func BuildBoundary(name string, features []geo.Feature, proj *geo.Projector, style boundary.Style, halo bool) scene.Layer {
	styles := []boundary.Style{style}
	if halo {
		styles = boundary.HaloPasses(style)
	}

	lines, skipped := boundary.NewRenderer(proj).Render(features, styles...)

	return scene.Layer{
		Name:    name,
		Kind:    scene.KindBoundary,
		Lines:   lines,
		Skipped: skipped,
	}
}

// ProcessLayers builds the configured layers concurrently and writes the
// manifest. Layers are independent: one failing leaves the others intact
// and is left out of the manifest. When only is non-empty, other layers
// are not rebuilt but stay in the manifest if previously built.
func ProcessLayers(ctx context.Context, client *http.Client, cfg *config.Config, concurrency int, force bool, only ...string) []Result {
	if concurrency <= 0 {
		concurrency = 1
	}

	selected := make(map[string]bool, len(only))
	for _, name := range only {
		selected[name] = true
	}

	proj := geo.NewProjector(cfg.Calibration)
	results := make([]Result, len(cfg.Layers))
	queued := make([]bool, len(cfg.Layers))

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for i, layer := range cfg.Layers {
		if len(selected) > 0 && !selected[layer.Name] {
			continue
		}
		queued[i] = true

		wg.Add(1)
		sem <- struct{}{}

		go func(i int, layer config.Layer) {
			defer wg.Done()
			defer func() { <-sem }()

			results[i] = processLayer(ctx, client, cfg, proj, layer, force)
		}(i, layer)
	}
	wg.Wait()

	manifest := Manifest{Calibration: cfg.Calibration}
	processed := make([]Result, 0, len(cfg.Layers))

	for i, layer := range cfg.Layers {
		if !queued[i] {
			info, err := readInfo(filepath.Join(cfg.Output, layer.Name, InfoFile))
			if err == nil {
				manifest.Layers = append(manifest.Layers, info)
			}
			continue
		}

		res := results[i]
		processed = append(processed, res)
		if res.Err == nil {
			manifest.Layers = append(manifest.Layers, res.Info)
		}
	}

	SortLayers(manifest.Layers)

	manifestPath := filepath.Join(cfg.Output, ManifestFile)
	if err := writeJSON(manifestPath, manifest); err != nil {
		log.Error().Err(err).Str("path", manifestPath).Msg("Failed to write manifest")
	} else {
		log.Info().
			Int("layers", len(manifest.Layers)).
			Str("path", manifestPath).
			Msg("Manifest written")
	}

	return processed
}

func processLayer(ctx context.Context, client *http.Client, cfg *config.Config, proj *geo.Projector, l config.Layer, force bool) (res Result) {
	res = Result{Layer: l}

	defer func() {
		if r := recover(); r != nil {
			err := &BuildError{Layer: l.Name, Stage: StagePanic, Err: fmt.Errorf("%v", r)}
			metrics.RecordLayerBuild(l.Name, l.Type, 0, 0, 0, StagePanic, err)
			log.Error().
				Err(err).
				Str("layer", l.Name).
				Bytes("stack", debug.Stack()).
				Msg("Layer build panicked")

			res = Result{Layer: l, Err: err}
		}
	}()

	dir := filepath.Join(cfg.Output, l.Name)
	infoPath := filepath.Join(dir, InfoFile)

	if !force {
		if info, err := readInfo(infoPath); err == nil && artifactsExist(dir, info) {
			log.Debug().Str("layer", l.Name).Msg("Layer artifacts exist, skipping")
			res.Info = info
			res.Primitives = info.Primitives
			res.Cached = true
			return res
		}
	}

	start := time.Now()
	info, err := buildLayer(ctx, client, cfg, proj, l, dir)
	duration := time.Since(start)

	stage := ""
	var berr *BuildError
	if errors.As(err, &berr) {
		stage = berr.Stage
	}
	metrics.RecordLayerBuild(l.Name, l.Type, duration, info.Primitives, info.Skipped, stage, err)

	if err != nil {
		// keep the failed layer out of later manifests
		_ = os.Remove(infoPath)

		log.Error().
			Err(err).
			Str("layer", l.Name).
			Str("stage", stage).
			Msg("Failed to build layer")

		res.Err = err
		return res
	}

	log.Info().
		Str("layer", l.Name).
		Str("kind", l.Type).
		Int("primitives", info.Primitives).
		Int("skipped", info.Skipped).
		Dur("duration", duration).
		Msg("Layer built")

	res.Info = info
	res.Primitives = info.Primitives
	return res
}

func buildLayer(ctx context.Context, client *http.Client, cfg *config.Config, proj *geo.Projector, l config.Layer, dir string) (LayerInfo, error) {
	info := LayerInfo{
		Index:   l.Index,
		Name:    l.Name,
		Kind:    l.Type,
		Opacity: 1,
	}
	if l.Opacity != nil {
		info.Opacity = *l.Opacity
	}

	fail := func(stage string, err error) (LayerInfo, error) {
		return info, &BuildError{Layer: l.Name, Stage: stage, Err: err}
	}

	log.Info().Str("layer", l.Name).Str("source", l.Source).Msg("Building layer")

	data, err := Fetch(ctx, client, l.Source)
	if err != nil {
		return fail(StageFetch, err)
	}
	if err := ctx.Err(); err != nil {
		return fail(StageFetch, err)
	}

	var layer scene.Layer

	if l.IsRaster() {
		g, err := grid.Parse(data, grid.Options{Lenient: l.Lenient})
		if err != nil {
			return fail(StageParse, err)
		}

		var ramp raster.Ramp = raster.HSL{}
		if len(l.Ramp) == 2 {
			linear, err := raster.NewLinear(l.Ramp[0], l.Ramp[1])
			if err != nil {
				return fail(StageParse, err)
			}
			ramp = linear
		}

		layer = BuildRaster(l.Name, g, proj, raster.Options{Ramp: ramp, MaxPrimitives: l.Budget(cfg.MaxPrimitives)})

		mesh := scene.MergeBoxes(layer.Boxes)
		if err := writeJSON(filepath.Join(dir, MeshFile), mesh); err != nil {
			return fail(StageWrite, err)
		}
		info.Files = append(info.Files, MeshFile)

		if err := writePreview(filepath.Join(dir, PreviewFile), g, ramp, l.PreviewWidth, l.Budget(cfg.MaxPrimitives)); err != nil {
			log.Warn().Err(err).Str("layer", l.Name).Msg("Preview not written")
		} else {
			info.Files = append(info.Files, PreviewFile)
		}
	} else {
		features, err := geo.LoadFeatures(data)
		if err != nil {
			return fail(StageParse, err)
		}

		style := boundary.DefaultStyle()
		style.Opacity = info.Opacity
		if l.Color != "" {
			c, err := colorful.Hex(l.Color)
			if err != nil {
				return fail(StageParse, err)
			}
			style.Color = c
		}

		layer = BuildBoundary(l.Name, features, proj, style, l.Halo)
		if len(layer.Lines) == 0 {
			return fail(StageGeometry, &boundary.GeometryError{Reason: "no renderable rings"})
		}
	}

	if err := writeJSON(filepath.Join(dir, GeometryFile), layer); err != nil {
		return fail(StageWrite, err)
	}
	info.Files = append([]string{GeometryFile}, info.Files...)

	info.Primitives = layer.Primitives()
	info.Skipped = layer.Skipped
	info.Stride = layer.Stride
	info.BuiltAt = time.Now().UTC()

	if err := writeJSON(filepath.Join(dir, InfoFile), info); err != nil {
		return fail(StageWrite, err)
	}

	return info, nil
}

// writePreview replaces the preview at path. A failed render removes any
// older preview so the layer never lists a stale image.
func writePreview(path string, g *grid.Grid, ramp raster.Ramp, width, maxPrimitives int) error {
	preview, err := RenderPreview(g, ramp, width, maxPrimitives)
	if err == nil {
		err = os.WriteFile(path, preview, 0644)
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}

	return nil
}

func artifactsExist(dir string, info LayerInfo) bool {
	if len(info.Files) == 0 {
		return false
	}

	for _, name := range info.Files {
		st, err := os.Stat(filepath.Join(dir, name))
		if err != nil || st.Size() == 0 {
			return false
		}
	}

	return true
}
