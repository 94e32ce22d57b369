// Package httpapi wires the ArtifactGraph engine onto the HTTP surface
// conda-style package managers expect: a path-templated repodata route
// plus a handful of operator routes, built on go-chi/chi the way the
// pack's chi-based services shape their routers.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/regro/metachannel/pkg/artifactgraph"
	"github.com/regro/metachannel/pkg/buildinfo"
	"github.com/regro/metachannel/pkg/filter"
)

// Server bundles everything a request handler needs.
type Server struct {
	Graph        *artifactgraph.ArtifactGraph
	Blacklists   filter.BlacklistLoader
	Logger       *log.Logger
	DebugViz     bool
	StartedAt    time.Time
}

// New constructs the server with the routes registered.
func New(graph *artifactgraph.ArtifactGraph, blacklists filter.BlacklistLoader, logger *log.Logger, debugViz bool) *Server {
	return &Server{
		Graph:      graph,
		Blacklists: blacklists,
		Logger:     logger,
		DebugViz:   debugViz,
		StartedAt:  time.Now(),
	}
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequest)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/version", s.handleVersion)
	r.Get("/debug/stats", s.handleStats)
	if s.DebugViz {
		r.Get("/debug/graph.svg", s.handleGraphSVG)
	}
	r.Get("/{channels}/{arch}/{artifact}", s.handleRepodataNoConstraints)
	r.Get("/{channels}/{constraints}/{arch}/{artifact}", s.handleRepodata)

	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", w.Header().Get("X-Request-Id"),
		)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("metachannel: a virtual package-index proxy\n"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(struct {
		Version string `json:"version"`
	}{buildinfo.Version})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
