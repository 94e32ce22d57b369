package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/regro/metachannel/pkg/channel"
	apierr "github.com/regro/metachannel/pkg/errors"
	"github.com/regro/metachannel/pkg/repodata"
)

// handleRepodataNoConstraints serves /<channels>/<arch>/<artifact> — the
// unconstrained shorthand equivalent to an empty constraint segment.
func (s *Server) handleRepodataNoConstraints(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, chi.URLParam(r, "channels"), "", chi.URLParam(r, "arch"), chi.URLParam(r, "artifact"))
}

// handleRepodata serves /<channels>/<constraints>/<arch>/<artifact>.
func (s *Server) handleRepodata(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, chi.URLParam(r, "channels"), chi.URLParam(r, "constraints"), chi.URLParam(r, "arch"), chi.URLParam(r, "artifact"))
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, rawChannels, rawConstraints, rawArch, artifact string) {
	channels, err := channel.ParseRef(rawChannels)
	if err != nil {
		writeError(w, err)
		return
	}
	arch, err := channel.ParseArch(rawArch)
	if err != nil {
		writeError(w, err)
		return
	}
	constraints := channel.ParseConstraints(rawConstraints)

	switch {
	case artifact == "repodata.json":
		body, err := s.Graph.RepodataJSON(r.Context(), channels, arch, constraints, repodata.VariantFull)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)

	case artifact == "repodata.json.bz2":
		body, err := s.Graph.RepodataJSONBzip(r.Context(), channels, arch, constraints, repodata.VariantFull)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/x-bzip2")
		w.Write(body)

	case artifact == "current_repodata.json":
		body, err := s.Graph.RepodataJSON(r.Context(), channels, arch, constraints, repodata.VariantCurrent)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)

	case strings.HasSuffix(artifact, ".json"):
		writeError(w, apierr.New(apierr.CodeNotFound, "unsupported repodata document %q", artifact))

	default:
		url, err := s.Graph.LookupURL(r.Context(), channels, arch, constraints, repodata.VariantFull, artifact)
		if err != nil {
			writeError(w, err)
			return
		}
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
	}
}

// writeError maps the proxy's error taxonomy onto an HTTP status at this
// single boundary.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apierr.GetCode(err) {
	case apierr.CodeUpstreamUnavailable:
		status = http.StatusBadGateway
	case apierr.CodeNotFound:
		status = http.StatusNotFound
	case apierr.CodeMalformedRequest:
		status = http.StatusBadRequest
	case apierr.CodeDecode, apierr.CodeParse:
		status = http.StatusBadGateway
	}
	http.Error(w, apierr.UserMessage(err), status)
}
