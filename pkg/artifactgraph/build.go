// Package artifactgraph is the request-facing orchestrator: given a
// channel list, an architecture, and parsed constraints, it fetches and
// fuses the relevant raw graphs, restricts them to the requested
// dependency closure, applies the filter pipeline, and serializes the
// result in the shapes a downstream package manager expects.
package artifactgraph

import (
	"context"

	"github.com/regro/metachannel/pkg/artifact"
	"github.com/regro/metachannel/pkg/channel"
	"github.com/regro/metachannel/pkg/depgraph"
	apierr "github.com/regro/metachannel/pkg/errors"
	"github.com/regro/metachannel/pkg/filter"
	"github.com/regro/metachannel/pkg/repodata"
	"github.com/regro/metachannel/pkg/store"
)

// NewBuilder returns a store.DerivedBuilder that implements the
// construction steps: fetch the fused graph for the request arch, fetch
// the fused graph for the auxiliary arch (noarch, or linux-64 when the
// request itself is for noarch), compose them, restrict to the closure
// when package constraints are present, and run the filter pipeline over
// the per-node artifact maps for the request arch only.
func NewBuilder(raw *store.RawTier, loader filter.BlacklistLoader) store.DerivedBuilder {
	pool := NewPool(defaultPoolSize)
	return func(ctx context.Context, channels channel.Ref, arch channel.Arch, constraints channel.Constraints, variant repodata.Variant) (*store.DerivedResult, error) {
		return Do(pool, func() (*store.DerivedResult, error) {
			g, err := fetchFused(ctx, raw, channels, arch, variant)
			if err != nil {
				return nil, err
			}

			auxArch := channel.NoArch
			if arch == channel.NoArch {
				auxArch = channel.NoArchFallback
			}
			gAux, err := fetchFused(ctx, raw, channels, auxArch, variant)
			if err != nil {
				return nil, err
			}

			combined := depgraph.Compose(g, gAux)

			constrained := combined
			if !constraints.Empty() {
				closure := depgraph.Closure(combined, constraints.Packages, nil)
				constrained = depgraph.Induced(combined, closure)
			}

			packages, err := filterPackages(constrained, arch, channels, constraints, loader)
			if err != nil {
				return nil, err
			}

			return &store.DerivedResult{Graph: constrained, Packages: packages}, nil
		})
	}
}

// fetchFused fetches and composes the raw graph for every channel in
// channels at the given arch, earliest channel winning on collision.
func fetchFused(ctx context.Context, raw *store.RawTier, channels channel.Ref, arch channel.Arch, variant repodata.Variant) (*depgraph.Graph, error) {
	graphs := make([]*depgraph.Graph, 0, len(channels))
	for _, ch := range channels {
		data, err := raw.Get(ctx, repodata.Key{Channel: ch, Arch: arch, Variant: variant})
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, data.Graph)
	}
	return depgraph.Compose(graphs...), nil
}

// filterPackages pulls each node's packages for arch (never the auxiliary
// arch's maps), runs the filter pipeline over each, and unions the
// results. Nodes are visited in Graph.Nodes() order (lexicographic by
// package name); on a filename collision across nodes, the
// later-visited node wins, matching spec's "later writes win" rule with
// a deterministic iteration order.
func filterPackages(g *depgraph.Graph, arch channel.Arch, channels channel.Ref, constraints channel.Constraints, loader filter.BlacklistLoader) (artifact.Map, error) {
	union := artifact.Map{}
	for _, name := range g.Nodes() {
		node, ok := g.Node(name)
		if !ok {
			continue
		}
		pkgs := node.Packages[arch]
		if len(pkgs) == 0 {
			continue
		}

		filtered, err := filter.Apply(pkgs, arch, channels, constraints, loader)
		if err != nil {
			return nil, apierr.Wrap(apierr.CodeInternal, err, "filter pipeline for node %s", name)
		}
		union = filtered.Merge(union)
	}
	return union, nil
}
