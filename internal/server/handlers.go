// Package server handles HTTP requests and middleware.
package server

import (
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/golang/geo/r3"
	"github.com/woozymasta/dzglobe/internal/geo"
	"github.com/woozymasta/dzglobe/internal/processor"
)

const etagCap = 64

// layerFiles maps servable artifacts to their content types.
var layerFiles = map[string]string{
	processor.GeometryFile: "application/json",
	processor.MeshFile:     "application/json",
	processor.PreviewFile:  "image/webp",
}

// ProjectResponse is a projected point with the rotations that orient
// geometry placed there.
type ProjectResponse struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	LatRotation float64 `json:"lat_rotation"`
	LonRotation float64 `json:"lon_rotation"`
}

// UnprojectResponse is the geographic position of a picked point.
type UnprojectResponse struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HandleLayersList serves the manifest of available layers.
func (s *ServerContext) HandleLayersList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Manifest)
}

// HandleProject converts a geographic ?lat=&lon= into the globe position
// shared by raster and boundary layers.
func (s *ServerContext) HandleProject(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := queryFloat(q.Get("lat"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lat")
		return
	}
	lon, err := queryFloat(q.Get("lon"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lon")
		return
	}

	v := s.Projector.ProjectGeoJSON(lon, lat)
	resp := ProjectResponse{Lat: lat, Lon: lon, X: v.X, Y: v.Y, Z: v.Z}
	resp.LatRotation, resp.LonRotation = s.Projector.Rotation(s.Projector.SceneLat(-lat), lon)

	writeJSON(w, http.StatusOK, resp)
}

// HandleUnproject converts ?x=&y=&z= back to latitude and longitude.
func (s *ServerContext) HandleUnproject(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var coords [3]float64
	for i, key := range []string{"x", "y", "z"} {
		v, err := queryFloat(q.Get(key))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+key)
			return
		}
		coords[i] = v
	}

	lat, lon := geo.Unproject(r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]})
	writeJSON(w, http.StatusOK, UnprojectResponse{Lat: lat, Lon: lon})
}

// HandleLayerFile serves a built artifact of a known layer.
func (s *ServerContext) HandleLayerFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	file := chi.URLParam(r, "file")

	layer, ok := s.layers[name]
	if !ok {
		http.NotFound(w, r)
		return
	}

	// allow only known artifacts to prevent path probing
	contentType, ok := layerFiles[file]
	if !ok || !layer.HasFile(file) {
		http.NotFound(w, r)
		return
	}

	if !s.serveFile(w, r, filepath.Join(s.Output, layer.Name, file), contentType) {
		http.NotFound(w, r)
	}
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleIndex serves the viewer page.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && strings.Contains(r.URL.Path, ".") {
		http.NotFound(w, r)
		return
	}

	etag := `"` + strconv.FormatUint(xxhash.Sum64(s.IndexHTML), 16) + `"`

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// serveFile tries to serve a file from disk with ETag generation.
// It returns true if the file was found and served (or 304).
func (s *ServerContext) serveFile(w http.ResponseWriter, r *http.Request, path string, contentType string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	// check If-None-Match (client sent ETag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	http.ServeFile(w, r, path)
	return true
}

// queryFloat parses a finite number.
func queryFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}

	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
