package cli

import (
	"bytes"
	"context"
	"encoding/gob"
	"time"

	"github.com/regro/metachannel/internal/config"
	"github.com/regro/metachannel/pkg/artifact"
	"github.com/regro/metachannel/pkg/audit"
	"github.com/regro/metachannel/pkg/channel"
	"github.com/regro/metachannel/pkg/depgraph"
	"github.com/regro/metachannel/pkg/repodata"
	"github.com/regro/metachannel/pkg/store"
)

// rawRepoDataCodec serializes RawRepoData for the optional Redis-backed
// raw tier. A fetched document is flattened back to its source packages
// map and rebuilt through depgraph.Build on decode, so the wire format
// never needs to track the graph's internal edge indices.
type rawRepoDataCodec struct{}

type rawRepoDataWire struct {
	Key       repodata.Key
	Packages  map[string]artifact.Artifact
	URLPrefix string
	FetchedAt time.Time
}

func (rawRepoDataCodec) Encode(v *repodata.RawRepoData) ([]byte, error) {
	packages := make(map[string]artifact.Artifact)
	for _, name := range v.Graph.Nodes() {
		node, _ := v.Graph.Node(name)
		for filename, a := range node.Packages[v.Key.Arch] {
			packages[filename] = a
		}
	}

	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(rawRepoDataWire{
		Key:       v.Key,
		Packages:  packages,
		URLPrefix: v.URLPrefix,
		FetchedAt: v.FetchedAt,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (rawRepoDataCodec) Decode(data []byte) (*repodata.RawRepoData, error) {
	var wire rawRepoDataWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return nil, err
	}
	graph := depgraph.Build(depgraph.Document{Packages: wire.Packages}, wire.Key.Arch, wire.URLPrefix)
	return &repodata.RawRepoData{Key: wire.Key, Graph: graph, URLPrefix: wire.URLPrefix, FetchedAt: wire.FetchedAt}, nil
}

// derivedResultCodec serializes store.DerivedResult for the optional
// Redis-backed derived tier. The fused graph is flattened back to its
// per-arch source packages, the same trick rawRepoDataCodec uses, and
// rebuilt through depgraph.Build plus depgraph.Compose on decode. The
// empty urlPrefix on rebuild is harmless: visualize.RenderSVG (the only
// reader of a decoded Graph) never looks at Artifact.URL, and the
// output Packages map — the one repodata.json is actually served from —
// is carried verbatim rather than rebuilt.
type derivedResultCodec struct{}

type derivedResultWire struct {
	Packages      map[string]artifact.Artifact
	GraphPackages map[channel.Arch]map[string]artifact.Artifact
}

func (derivedResultCodec) Encode(v *store.DerivedResult) ([]byte, error) {
	graphPackages := make(map[channel.Arch]map[string]artifact.Artifact)
	for _, name := range v.Graph.Nodes() {
		node, _ := v.Graph.Node(name)
		for arch, pkgs := range node.Packages {
			m, ok := graphPackages[arch]
			if !ok {
				m = make(map[string]artifact.Artifact)
				graphPackages[arch] = m
			}
			for filename, a := range pkgs {
				m[filename] = a
			}
		}
	}

	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(derivedResultWire{
		Packages:      v.Packages,
		GraphPackages: graphPackages,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (derivedResultCodec) Decode(data []byte) (*store.DerivedResult, error) {
	var wire derivedResultWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return nil, err
	}

	graphs := make([]*depgraph.Graph, 0, len(wire.GraphPackages))
	for arch, pkgs := range wire.GraphPackages {
		graphs = append(graphs, depgraph.Build(depgraph.Document{Packages: pkgs}, arch, ""))
	}

	return &store.DerivedResult{Graph: depgraph.Compose(graphs...), Packages: wire.Packages}, nil
}

// buildAuditSink returns a MongoDB-backed audit sink when cfg.MongoURI is
// set, or (nil, nil) when the operator has not configured one.
func buildAuditSink(cfg *config.Config) (store.AuditSink, error) {
	if cfg.MongoURI == "" {
		return nil, nil
	}
	return audit.Connect(context.Background(), cfg.MongoURI, "metachannel", "warm_cycles")
}
