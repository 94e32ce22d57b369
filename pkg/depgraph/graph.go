package depgraph

import (
	"sort"

	"github.com/regro/metachannel/pkg/artifact"
	"github.com/regro/metachannel/pkg/channel"
)

// Node is the immutable, public view of a graph vertex: a package name
// plus the set of arches it was observed under and, per arch, the
// artifact filenames that belong to it.
type Node struct {
	Name     string
	Arches   map[channel.Arch]bool
	Packages map[channel.Arch]artifact.Map
}

// HasArtifacts reports whether the node carries any artifacts at all
// (bare nodes inserted only to satisfy a dependency edge have none).
func (n Node) HasArtifacts() bool {
	for _, m := range n.Packages {
		if len(m) > 0 {
			return true
		}
	}
	return false
}

// Graph is a directed graph of package names. Edges run dep -> dependent,
// so a node's Predecessors are the packages it depends on (its ancestors
// in closure terms) and its Successors are the packages that depend on it.
//
// A Graph is immutable once returned by Build or Compose: callers must
// not mutate the maps reachable from it. This makes a Graph safe to share
// across concurrent readers without synchronization.
type Graph struct {
	nodes        map[string]Node
	predecessors map[string]map[string]bool // dependent -> set of deps
	successors   map[string]map[string]bool // dep -> set of dependents
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:        make(map[string]Node),
		predecessors: make(map[string]map[string]bool),
		successors:   make(map[string]map[string]bool),
	}
}

// HasNode reports whether name is present in the graph.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Node returns the node data for name, if present.
func (g *Graph) Node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns all node names in lexicographic order.
func (g *Graph) Nodes() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Predecessors returns the names of packages that name directly depends
// on (name requires them to build/install).
func (g *Graph) Predecessors(name string) []string {
	return setKeys(g.predecessors[name])
}

// Successors returns the names of packages that directly depend on name.
func (g *Graph) Successors(name string) []string {
	return setKeys(g.successors[name])
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// builder is the mutable scratch space used while constructing a Graph.
// It is never exposed; callers only ever see the finished immutable Graph.
type builder struct {
	g *Graph
}

func newBuilder() *builder {
	return &builder{g: New()}
}

func (b *builder) ensureNode(name string) {
	if _, ok := b.g.nodes[name]; ok {
		return
	}
	b.g.nodes[name] = Node{
		Name:     name,
		Arches:   make(map[channel.Arch]bool),
		Packages: make(map[channel.Arch]artifact.Map),
	}
}

func (b *builder) addArch(name string, arch channel.Arch) {
	b.ensureNode(name)
	b.g.nodes[name].Arches[arch] = true
}

func (b *builder) addArtifact(name string, arch channel.Arch, filename string, a artifact.Artifact) {
	b.ensureNode(name)
	node := b.g.nodes[name]
	m, ok := node.Packages[arch]
	if !ok {
		m = make(artifact.Map)
		node.Packages[arch] = m
	}
	m[filename] = a
}

func (b *builder) addEdge(dep, dependent string) {
	b.ensureNode(dep)
	b.ensureNode(dependent)

	if b.g.predecessors[dependent] == nil {
		b.g.predecessors[dependent] = make(map[string]bool)
	}
	b.g.predecessors[dependent][dep] = true

	if b.g.successors[dep] == nil {
		b.g.successors[dep] = make(map[string]bool)
	}
	b.g.successors[dep][dependent] = true
}

func setKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
