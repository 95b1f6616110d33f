package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the API, layer files, metrics and the viewer page.
func NewRouter(s *ServerContext) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	r.Use(PrometheusMetrics)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/layers", s.HandleLayersList)
		r.Get("/project", s.HandleProject)
		r.Get("/unproject", s.HandleUnproject)
	})

	r.Get("/layers/{name}/{file}", s.HandleLayerFile)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/favicon.ico", s.HandleFavicon)
	r.Get("/*", s.HandleIndex)

	return r
}
