// Package depgraph implements the artifact-graph engine's graph model:
// building a per-(channel, arch) dependency graph from parsed repodata,
// composing several such graphs with precedence, and computing
// reverse-reachability closures over the result.
//
// The graph is a labelled multimap rather than a mutable object graph:
// Node values are immutable once returned from a Graph, and composition
// (Compose) always returns a new Graph instead of mutating its inputs.
// This avoids the class of bug where a naive node union silently drops
// one side's per-arch attributes.
package depgraph
