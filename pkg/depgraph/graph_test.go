package depgraph

import (
	"testing"

	"github.com/regro/metachannel/pkg/artifact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docWith(entries map[string]artifact.Artifact) Document {
	return Document{Packages: entries}
}

func TestBuildInsertsBareNodesForUnknownDeps(t *testing.T) {
	doc := docWith(map[string]artifact.Artifact{
		"python-3.11.0-h0.tar.bz2": {
			Name: "python", Version: "3.11.0", Build: "h0_0",
			Depends: []string{"libffi >=3.4", "openssl >=3.0"},
		},
	})

	g := Build(doc, "linux-64", "https://example.org/conda-forge/linux-64")

	assert.ElementsMatch(t, []string{"python", "libffi", "openssl"}, g.Nodes())

	libffi, ok := g.Node("libffi")
	require.True(t, ok)
	assert.False(t, libffi.HasArtifacts(), "bare dependency node should carry no artifacts")

	python, ok := g.Node("python")
	require.True(t, ok)
	require.True(t, python.HasArtifacts())
	art := python.Packages["linux-64"]["python-3.11.0-h0.tar.bz2"]
	assert.Equal(t, "https://example.org/conda-forge/linux-64/python-3.11.0-h0.tar.bz2", art.URL)
}

func TestBuildEdgeDirectionMatchesPredecessorSemantics(t *testing.T) {
	doc := docWith(map[string]artifact.Artifact{
		"flask-2.0-0.tar.bz2":  {Name: "flask", Depends: []string{"python"}},
		"python-3.11-0.tar.bz2": {Name: "python"},
	})
	g := Build(doc, "noarch", "https://x/noarch")

	assert.Equal(t, []string{"python"}, g.Predecessors("flask"))
	assert.Equal(t, []string{"flask"}, g.Successors("python"))
	assert.Empty(t, g.Predecessors("python"))
}

func TestEveryArtifactNameMatchesItsNode(t *testing.T) {
	doc := docWith(map[string]artifact.Artifact{
		"zlib-1.2-0.tar.bz2": {Name: "zlib"},
	})
	g := Build(doc, "linux-64", "https://x/linux-64")
	node, _ := g.Node("zlib")
	for arch, m := range node.Packages {
		for filename, a := range m {
			assert.Equal(t, "zlib", a.Name, "artifact %s under arch %s", filename, arch)
		}
	}
}
