package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/regro/metachannel/pkg/artifactgraph"
	"github.com/regro/metachannel/pkg/channel"
	apierr "github.com/regro/metachannel/pkg/errors"
	"github.com/regro/metachannel/pkg/repodata"
	"github.com/regro/metachannel/pkg/visualize"
)

// handleGraphSVG renders the fused, constrained dependency graph for a
// single channel/arch/constraint combination as an SVG, gated behind
// --debug-viz since Graphviz rendering is not cheap enough to expose
// unauthenticated on a production proxy.
func (s *Server) handleGraphSVG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	channels, err := channel.ParseRef(q.Get("channel"))
	if err != nil {
		writeError(w, err)
		return
	}
	arch, err := channel.ParseArch(q.Get("arch"))
	if err != nil {
		writeError(w, err)
		return
	}
	constraints := channel.ParseConstraints(q.Get("constraint"))

	result, err := s.Graph.Derived.Get(r.Context(), channels, arch, constraints, repodata.VariantFull)
	if err != nil {
		writeError(w, err)
		return
	}

	seeds := make(map[string]bool, len(constraints.Packages))
	for _, p := range constraints.Packages {
		seeds[p] = true
	}

	svg, err := artifactgraph.Do(s.Graph.Pool, func() ([]byte, error) {
		return visualize.RenderSVG(r.Context(), result.Graph, seeds)
	})
	if err != nil {
		writeError(w, apierr.Wrap(apierr.CodeInternal, err, "render graph"))
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

// handleStats reports lightweight operational counters for the status
// CLI and operator dashboards to poll.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.StartedAt).Seconds())
	fmt.Fprintf(w, "derived_cache_entries %d\n", s.Graph.Derived.Len())
}
