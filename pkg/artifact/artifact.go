// Package artifact defines the immutable record type for a single
// downloadable package file plus its metadata, as found under the
// "packages" map of an upstream repodata document.
package artifact

import (
	"encoding/json"
	"maps"
	"sort"
	"strconv"
	"strings"
)

// Artifact is an immutable record keyed by its filename. Fields not
// recognized by this type are preserved in Extra and re-emitted verbatim
// on serialization, so that downstream clients see upstream-compatible
// output even for fields this proxy does not interpret.
//
// Artifacts are never mutated after insertion into a graph; filters
// produce new Artifact values by copy.
type Artifact struct {
	Filename      string   `json:"-"`
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Build         string   `json:"build"`
	BuildNumber   *int64   `json:"build_number,omitempty"`
	Depends       []string `json:"depends,omitempty"`
	Features      string   `json:"features,omitempty"`
	TrackFeatures string   `json:"track_features,omitempty"`
	URL           string   `json:"url,omitempty"`

	// Extra holds any JSON fields not named above, keyed by field name.
	Extra map[string]json.RawMessage `json:"-"`
}

// knownFields lists the struct tags already handled by Artifact so that
// UnmarshalJSON can route everything else into Extra.
var knownFields = map[string]bool{
	"name": true, "version": true, "build": true, "build_number": true,
	"depends": true, "features": true, "track_features": true, "url": true,
}

// UnmarshalJSON decodes an artifact record, capturing unrecognized fields
// in Extra so they round-trip through MarshalJSON unchanged.
func (a *Artifact) UnmarshalJSON(data []byte) error {
	type alias Artifact
	aux := (*alias)(a)
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	extra := make(map[string]json.RawMessage)
	for k, v := range raw {
		if !knownFields[k] {
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		a.Extra = extra
	}
	return nil
}

// MarshalJSON re-emits known fields plus anything captured in Extra.
// Known fields take precedence if a key collides with Extra (it shouldn't,
// since UnmarshalJSON excludes known keys from Extra).
func (a Artifact) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(a.Extra)+8)
	for k, v := range a.Extra {
		out[k] = v
	}

	type alias Artifact
	known, err := json.Marshal(alias(a))
	if err != nil {
		return nil, err
	}
	var knownMap map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownMap); err != nil {
		return nil, err
	}
	maps.Copy(out, knownMap)

	return json.Marshal(out)
}

// Clone returns a deep copy safe for independent mutation by a filter.
func (a Artifact) Clone() Artifact {
	clone := a
	if a.BuildNumber != nil {
		n := *a.BuildNumber
		clone.BuildNumber = &n
	}
	if a.Depends != nil {
		clone.Depends = append([]string(nil), a.Depends...)
	}
	if a.Extra != nil {
		clone.Extra = maps.Clone(a.Extra)
	}
	return clone
}

// DependencyNames returns the bare package name of each dependency spec,
// taking only the leading token before the first whitespace run — the
// only part significant to the graph builder.
func (a Artifact) DependencyNames() []string {
	names := make([]string, 0, len(a.Depends))
	for _, dep := range a.Depends {
		if name := firstToken(dep); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// FeatureTokens splits Features on whitespace.
func (a Artifact) FeatureTokens() []string {
	return strings.Fields(a.Features)
}

// BuildStemAndNumber splits Build at the last underscore. ok is false
// when the suffix after the last underscore is not purely numeric, in
// which case the whole build string should be treated as an opaque stem
// (e.g. "blas" mutex packages like "mkl") per the build-number pruning
// rule.
func (a Artifact) BuildStemAndNumber() (stem string, number int64, ok bool) {
	idx := strings.LastIndexByte(a.Build, '_')
	if idx < 0 {
		return a.Build, 0, false
	}
	suffix := a.Build[idx+1:]
	n, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return a.Build, 0, false
	}
	return a.Build[:idx], n, true
}

// Map is a filename -> Artifact mapping, the per-arch payload attached
// to a graph node and the top-level shape of a repodata "packages" field.
type Map map[string]Artifact

// Clone returns a shallow copy of the map with deep-copied Artifact
// values, suitable as the basis for a copy-on-write filter step.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// Merge returns a new Map containing every entry of m plus every entry of
// other whose filename is not already present in m — i.e. m wins on
// collision. This implements the "earliest channel wins" precedence rule
// used by graph fusion.
func (m Map) Merge(other Map) Map {
	out := make(Map, len(m)+len(other))
	for k, v := range other {
		out[k] = v
	}
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SortedFilenames returns the map's keys in lexicographic order, giving
// callers a stable iteration order for deterministic serialization.
func (m Map) SortedFilenames() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func firstToken(spec string) string {
	spec = strings.TrimSpace(spec)
	if i := strings.IndexFunc(spec, func(r rune) bool { return r == ' ' || r == '\t' }); i >= 0 {
		return spec[:i]
	}
	return spec
}
