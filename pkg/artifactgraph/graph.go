package artifactgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/dsnet/compress/bzip2"

	"github.com/regro/metachannel/pkg/artifact"
	"github.com/regro/metachannel/pkg/cachestore"
	"github.com/regro/metachannel/pkg/channel"
	apierr "github.com/regro/metachannel/pkg/errors"
	"github.com/regro/metachannel/pkg/repodata"
	"github.com/regro/metachannel/pkg/store"
)

// repodataDocument is the wire shape of a synthesized repodata.json: a
// single "packages" map, matching what downstream package managers expect
// to read.
type repodataDocument struct {
	Packages artifact.Map `json:"packages"`
}

// serialization is what the ArtifactGraph memoizes per resolved request:
// the JSON text and its bzip2-compressed form, computed once and served
// verbatim on every cache hit.
type serialization struct {
	json []byte
	bz2  []byte
}

// ArtifactGraph is the request-facing façade: it resolves (channels,
// arch, constraints, variant) through the derived tier and serves the
// four operations spec.md assigns it, memoizing serialized bytes so a
// repeated request for the same resolved key never re-marshals or
// re-compresses.
type ArtifactGraph struct {
	Derived       *store.DerivedTier
	Serialized    cachestore.Cache[*serialization]
	SerializedTTL time.Duration

	// Pool bounds concurrent CPU-bound work (JSON marshaling, bzip2
	// compression, Graphviz rendering) so a burst of requests can't all
	// run it at once on their own goroutines.
	Pool *Pool
}

// New returns an ArtifactGraph backed by derived, memoizing serialized
// bytes in an in-process cache with the given TTL.
func New(derived *store.DerivedTier, ttl time.Duration) *ArtifactGraph {
	return &ArtifactGraph{
		Derived:       derived,
		Serialized:    cachestore.NewMemoryCache[*serialization](time.Minute),
		SerializedTTL: ttl,
		Pool:          NewPool(defaultPoolSize),
	}
}

// RepodataJSONDict returns the constrained, filtered packages map for the
// request — the Go equivalent of spec's repodata_json_dict().
func (a *ArtifactGraph) RepodataJSONDict(ctx context.Context, channels channel.Ref, arch channel.Arch, constraints channel.Constraints, variant repodata.Variant) (artifact.Map, error) {
	result, err := a.Derived.Get(ctx, channels, arch, constraints, variant)
	if err != nil {
		return nil, err
	}
	return result.Packages, nil
}

// RepodataJSON returns the dict serialized as JSON text.
func (a *ArtifactGraph) RepodataJSON(ctx context.Context, channels channel.Ref, arch channel.Arch, constraints channel.Constraints, variant repodata.Variant) ([]byte, error) {
	s, err := a.serialize(ctx, channels, arch, constraints, variant)
	if err != nil {
		return nil, err
	}
	return s.json, nil
}

// RepodataJSONBzip returns the JSON text bzip2-compressed at level 1.
func (a *ArtifactGraph) RepodataJSONBzip(ctx context.Context, channels channel.Ref, arch channel.Arch, constraints channel.Constraints, variant repodata.Variant) ([]byte, error) {
	s, err := a.serialize(ctx, channels, arch, constraints, variant)
	if err != nil {
		return nil, err
	}
	return s.bz2, nil
}

// LookupURL returns the upstream url attribute for filename within the
// request's current repodata_json_dict, or CodeNotFound.
func (a *ArtifactGraph) LookupURL(ctx context.Context, channels channel.Ref, arch channel.Arch, constraints channel.Constraints, variant repodata.Variant, filename string) (string, error) {
	dict, err := a.RepodataJSONDict(ctx, channels, arch, constraints, variant)
	if err != nil {
		return "", err
	}
	art, ok := dict[filename]
	if !ok {
		return "", apierr.New(apierr.CodeNotFound, "artifact %q not present in the computed repodata", filename)
	}
	return art.URL, nil
}

func (a *ArtifactGraph) serialize(ctx context.Context, channels channel.Ref, arch channel.Arch, constraints channel.Constraints, variant repodata.Variant) (*serialization, error) {
	key := string(variant) + "|" + channels.Key() + "|" + string(arch) + "|" + constraints.SortedKey()

	if cached, ok, err := a.Serialized.Get(ctx, key); err != nil {
		return nil, err
	} else if ok {
		return cached, nil
	}

	dict, err := a.RepodataJSONDict(ctx, channels, arch, constraints, variant)
	if err != nil {
		return nil, err
	}

	s, err := Do(a.Pool, func() (*serialization, error) {
		jsonBytes, err := json.Marshal(repodataDocument{Packages: dict})
		if err != nil {
			return nil, apierr.Wrap(apierr.CodeInternal, err, "marshal repodata document")
		}
		bz2Bytes, err := compressBzip2Level1(jsonBytes)
		if err != nil {
			return nil, err
		}
		return &serialization{json: jsonBytes, bz2: bz2Bytes}, nil
	})
	if err != nil {
		return nil, err
	}

	if err := a.Serialized.Set(ctx, key, s, a.SerializedTTL); err != nil {
		return nil, err
	}
	return s, nil
}

func compressBzip2Level1(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: 1})
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, err, "open bzip2 writer")
	}
	if _, err := w.Write(data); err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, err, "bzip2 compress repodata document")
	}
	if err := w.Close(); err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, err, "close bzip2 writer")
	}
	return buf.Bytes(), nil
}
