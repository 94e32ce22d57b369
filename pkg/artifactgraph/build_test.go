package artifactgraph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regro/metachannel/pkg/artifact"
	"github.com/regro/metachannel/pkg/cachestore"
	"github.com/regro/metachannel/pkg/channel"
	"github.com/regro/metachannel/pkg/depgraph"
	"github.com/regro/metachannel/pkg/repodata"
	"github.com/regro/metachannel/pkg/store"
)

// fixtureFetcher serves pre-built graphs for a small set of (channel,
// arch) keys, simulating an upstream without touching the network.
type fixtureFetcher struct {
	graphs map[repodata.Key]*depgraph.Graph
}

func (f *fixtureFetcher) Fetch(ctx context.Context, key repodata.Key) (*repodata.RawRepoData, error) {
	g, ok := f.graphs[key]
	if !ok {
		g = depgraph.New()
	}
	return &repodata.RawRepoData{Key: key, Graph: g, FetchedAt: time.Now()}, nil
}

func buildGraph(entries map[string]artifact.Artifact, arch channel.Arch) *depgraph.Graph {
	return depgraph.Build(depgraph.Document{Packages: entries}, arch, "https://example.org/x/"+string(arch))
}

type noopLoader struct{}

func (noopLoader) Lookup(ch, name string, arch channel.Arch) (map[string]bool, error) {
	return nil, nil
}

func newTestGraphFixture() *fixtureFetcher {
	return &fixtureFetcher{graphs: map[repodata.Key]*depgraph.Graph{
		{Channel: "conda-forge", Arch: "linux-64", Variant: repodata.VariantFull}: buildGraph(map[string]artifact.Artifact{
			"flask-2.0-0.tar.bz2": {Name: "flask", Version: "2.0", Build: "0", Depends: []string{"python", "click"}},
		}, "linux-64"),
		{Channel: "conda-forge", Arch: "noarch", Variant: repodata.VariantFull}: buildGraph(map[string]artifact.Artifact{
			"click-8.0-0.tar.bz2": {Name: "click", Version: "8.0", Build: "0"},
		}, "noarch"),
	}}
}

func newTestBuilder(fetcher *fixtureFetcher) store.DerivedBuilder {
	raw := store.NewRawTier(cachestore.NewMemoryCache[*repodata.RawRepoData](0), fetcher, time.Minute)
	return NewBuilder(raw, noopLoader{})
}

func TestBuilderComposesRequestArchWithNoarch(t *testing.T) {
	builder := newTestBuilder(newTestGraphFixture())
	result, err := builder(context.Background(), channel.Ref{"conda-forge"}, "linux-64", channel.Constraints{Functional: map[string][]string{}}, repodata.VariantFull)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"flask", "python", "click"}, result.Graph.Nodes())
}

func TestBuilderOnlyEmitsRequestArchPackages(t *testing.T) {
	builder := newTestBuilder(newTestGraphFixture())
	result, err := builder(context.Background(), channel.Ref{"conda-forge"}, "linux-64", channel.Constraints{Functional: map[string][]string{}}, repodata.VariantFull)
	require.NoError(t, err)

	assert.Contains(t, result.Packages, "flask-2.0-0.tar.bz2")
	assert.NotContains(t, result.Packages, "click-8.0-0.tar.bz2", "noarch artifacts surface only via their own arch=noarch request")
}

func TestBuilderRestrictsToClosureWhenConstrained(t *testing.T) {
	fetcher := &fixtureFetcher{graphs: map[repodata.Key]*depgraph.Graph{
		{Channel: "conda-forge", Arch: "linux-64", Variant: repodata.VariantFull}: buildGraph(map[string]artifact.Artifact{
			"flask-1.tar.bz2":  {Name: "flask", Depends: []string{"python"}},
			"python-1.tar.bz2": {Name: "python"},
			"numpy-1.tar.bz2":  {Name: "numpy"},
		}, "linux-64"),
		{Channel: "conda-forge", Arch: "noarch", Variant: repodata.VariantFull}: depgraph.New(),
	}}
	builder := newTestBuilder(fetcher)

	constraints := channel.ParseConstraints("python")
	result, err := builder(context.Background(), channel.Ref{"conda-forge"}, "linux-64", constraints, repodata.VariantFull)
	require.NoError(t, err)

	assert.Contains(t, result.Packages, "python-1.tar.bz2")
	assert.NotContains(t, result.Packages, "numpy-1.tar.bz2", "unconstrained sibling package must be excluded from the closure")
}

func TestBuilderNoarchRequestUsesLinuxFallback(t *testing.T) {
	fetcher := &fixtureFetcher{graphs: map[repodata.Key]*depgraph.Graph{
		{Channel: "conda-forge", Arch: "noarch", Variant: repodata.VariantFull}: buildGraph(map[string]artifact.Artifact{
			"six-1.0-0.tar.bz2": {Name: "six", Version: "1.0", Build: "0"},
		}, "noarch"),
		{Channel: "conda-forge", Arch: "linux-64", Variant: repodata.VariantFull}: buildGraph(map[string]artifact.Artifact{
			"zlib-1.0-0.tar.bz2": {Name: "zlib", Version: "1.0", Build: "0"},
		}, "linux-64"),
	}}
	builder := newTestBuilder(fetcher)

	result, err := builder(context.Background(), channel.Ref{"conda-forge"}, "noarch", channel.Constraints{Functional: map[string][]string{}}, repodata.VariantFull)
	require.NoError(t, err)

	assert.Contains(t, result.Packages, "six-1.0-0.tar.bz2")
	assert.ElementsMatch(t, []string{"six", "zlib"}, result.Graph.Nodes(), "linux-64 is fetched as the auxiliary when the request arch is itself noarch")
}
