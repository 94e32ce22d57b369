package depgraph

import (
	"testing"

	"github.com/regro/metachannel/pkg/artifact"
	"github.com/regro/metachannel/pkg/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposePrecedenceOnFilenameCollision(t *testing.T) {
	a := Build(docWith(map[string]artifact.Artifact{
		"f.tar.bz2": {Name: "foo", Version: "1.0"},
	}), "linux-64", "https://a/linux-64")

	b := Build(docWith(map[string]artifact.Artifact{
		"f.tar.bz2": {Name: "foo", Version: "2.0"},
		"g.tar.bz2": {Name: "bar", Version: "1.0"},
	}), "linux-64", "https://b/linux-64")

	fused := NewFused(channel.Ref{"a", "b"}, a, b)

	fooNode, ok := fused.Graph.Node("foo")
	require.True(t, ok)
	assert.Equal(t, "1.0", fooNode.Packages["linux-64"]["f.tar.bz2"].Version, "earlier channel must win on collision")

	barNode, ok := fused.Graph.Node("bar")
	require.True(t, ok)
	assert.Equal(t, "1.0", barNode.Packages["linux-64"]["g.tar.bz2"].Version, "unique filenames from later channel survive")

	assert.Equal(t, channel.Ref{"a", "b"}, fused.Channels)
}

func TestComposePreservesAttributesOnBothSides(t *testing.T) {
	// Regression guard: a naive node union that only merges presence
	// (not per-arch attributes) would drop one side's artifacts here.
	a := Build(docWith(map[string]artifact.Artifact{
		"foo-1-linux.tar.bz2": {Name: "foo", Version: "1"},
	}), "linux-64", "https://a/linux-64")

	b := Build(docWith(map[string]artifact.Artifact{
		"foo-1-osx.tar.bz2": {Name: "foo", Version: "1"},
	}), "osx-64", "https://b/osx-64")

	merged := Compose(a, b)

	node, ok := merged.Node("foo")
	require.True(t, ok)
	assert.True(t, node.Arches["linux-64"])
	assert.True(t, node.Arches["osx-64"])
	assert.Contains(t, node.Packages["linux-64"], "foo-1-linux.tar.bz2")
	assert.Contains(t, node.Packages["osx-64"], "foo-1-osx.tar.bz2")
}

func TestComposeUnionsEdgesAcrossGraphs(t *testing.T) {
	a := Build(docWith(map[string]artifact.Artifact{
		"flask-1.tar.bz2": {Name: "flask", Depends: []string{"python"}},
	}), "noarch", "https://a/noarch")

	b := Build(docWith(map[string]artifact.Artifact{
		"python-1.tar.bz2": {Name: "python"},
	}), "linux-64", "https://b/linux-64")

	merged := Compose(a, b)
	assert.Equal(t, []string{"python"}, merged.Predecessors("flask"))
}

func TestComposeEmptyReturnsEmptyGraph(t *testing.T) {
	g := Compose()
	assert.Equal(t, 0, g.Len())
}
