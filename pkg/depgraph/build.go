package depgraph

import (
	"github.com/regro/metachannel/pkg/artifact"
	"github.com/regro/metachannel/pkg/channel"
)

// Document is the subset of an upstream repodata document this proxy
// interprets: a filename -> artifact map. Other top-level fields (info,
// repodata_version, removed, ...) are not needed by the core and are
// dropped on ingestion; only artifact-level unknown fields are preserved
// (see artifact.Artifact.Extra).
type Document struct {
	Packages map[string]artifact.Artifact `json:"packages"`
}

// Build converts one parsed repodata document into a Graph: every
// artifact becomes a node (keyed by its package name) carrying the
// artifact under packages_<arch>, and every dependency spec becomes an
// edge from the dependency's name to the depending package's name. A
// dependency name not otherwise present in the document is inserted as
// a bare node with no artifacts, satisfying the invariant that every
// edge endpoint is a node.
//
// Build is a pure function: the same inputs always produce an
// equivalent graph (equal up to map iteration order, which is never
// observed because callers always read graphs through sorted accessors).
func Build(doc Document, arch channel.Arch, urlPrefix string) *Graph {
	b := newBuilder()

	for filename, a := range doc.Packages {
		a.Filename = filename
		a.URL = urlPrefix + "/" + filename

		b.addArch(a.Name, arch)
		b.addArtifact(a.Name, arch, filename, a)

		for _, depName := range a.DependencyNames() {
			b.addEdge(depName, a.Name)
		}
	}

	return b.g
}
