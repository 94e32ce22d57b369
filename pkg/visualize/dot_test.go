package visualize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/regro/metachannel/pkg/artifact"
	"github.com/regro/metachannel/pkg/depgraph"
)

func chainGraph() *depgraph.Graph {
	return depgraph.Build(depgraph.Document{Packages: map[string]artifact.Artifact{
		"flask-1.tar.bz2":  {Name: "flask", Depends: []string{"python"}},
		"python-1.tar.bz2": {Name: "python"},
	}}, "linux-64", "https://x/linux-64")
}

func TestToDOTIncludesEveryNodeAndEdge(t *testing.T) {
	dot := ToDOT(chainGraph(), nil)
	assert.Contains(t, dot, `"flask"`)
	assert.Contains(t, dot, `"python"`)
	assert.Contains(t, dot, `"flask" -> "python"`)
}

func TestToDOTHighlightsSeeds(t *testing.T) {
	dot := ToDOT(chainGraph(), map[string]bool{"flask": true})
	assert.Contains(t, dot, "lightblue")
}
