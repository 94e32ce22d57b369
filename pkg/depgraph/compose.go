package depgraph

import (
	"github.com/regro/metachannel/pkg/artifact"
	"github.com/regro/metachannel/pkg/channel"
)

// Fused is the composed result of folding an ordered list of single-arch
// graphs (one per channel, same arch) into one virtual namespace. It
// retains the originating channel list because the filter pipeline's
// blacklist step needs it to locate each channel's blacklist files.
type Fused struct {
	Graph    *Graph
	Channels channel.Ref
}

// NewFused composes graphs in the given order (earliest wins on
// collision) and pairs the result with the channel list that produced it.
func NewFused(channels channel.Ref, graphs ...*Graph) *Fused {
	return &Fused{Graph: Compose(graphs...), Channels: channels}
}

// Compose folds graphs left to right: the first graph has the highest
// precedence. For every node present in more than one input graph, arch
// sets are unioned and, per arch, artifact maps are unioned with the
// earlier graph's entries winning on filename collision. Compose never
// mutates its inputs; it always returns a new Graph.
func Compose(graphs ...*Graph) *Graph {
	if len(graphs) == 0 {
		return New()
	}

	acc := graphs[0]
	for _, g := range graphs[1:] {
		acc = merge(acc, g)
	}
	return acc
}

// merge returns a new Graph containing every node and edge of a and b,
// with a's per-node attributes taking precedence over b's on collision.
func merge(a, b *Graph) *Graph {
	out := &Graph{
		nodes:        make(map[string]Node, len(a.nodes)+len(b.nodes)),
		predecessors: unionAdjacency(a.predecessors, b.predecessors),
		successors:   unionAdjacency(a.successors, b.successors),
	}

	for name, node := range a.nodes {
		out.nodes[name] = node
	}
	for name, incoming := range b.nodes {
		if existing, ok := out.nodes[name]; ok {
			out.nodes[name] = mergeNode(existing, incoming)
		} else {
			out.nodes[name] = incoming
		}
	}

	return out
}

// mergeNode unions two nodes of the same name, letting existing's
// per-arch artifact entries win over incoming's on filename collision.
func mergeNode(existing, incoming Node) Node {
	arches := make(map[channel.Arch]bool, len(existing.Arches)+len(incoming.Arches))
	for a := range existing.Arches {
		arches[a] = true
	}
	for a := range incoming.Arches {
		arches[a] = true
	}

	merged := mergePackages(existing.Packages, incoming.Packages)

	return Node{Name: existing.Name, Arches: arches, Packages: merged}
}

// mergePackages unions per-arch artifact maps, letting existing's
// entries win on filename collision within a shared arch.
func mergePackages(existing, incoming map[channel.Arch]artifact.Map) map[channel.Arch]artifact.Map {
	out := make(map[channel.Arch]artifact.Map, len(existing)+len(incoming))
	for arch, m := range existing {
		out[arch] = m
	}
	for arch, m := range incoming {
		if have, ok := out[arch]; ok {
			out[arch] = have.Merge(m)
		} else {
			out[arch] = m
		}
	}
	return out
}

func unionAdjacency(a, b map[string]map[string]bool) map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(a)+len(b))
	for k, set := range a {
		out[k] = cloneSet(set)
	}
	for k, set := range b {
		if existing, ok := out[k]; ok {
			for v := range set {
				existing[v] = true
			}
		} else {
			out[k] = cloneSet(set)
		}
	}
	return out
}

func cloneSet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}
