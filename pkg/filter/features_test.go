package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/regro/metachannel/pkg/artifact"
)

func TestUntrackFeaturesExpandsKnownTokens(t *testing.T) {
	pkgs := artifact.Map{
		"numpy-1.0-0.tar.bz2": {
			Name: "numpy", Version: "1.0",
			Features:      "blas_openblas nomkl",
			TrackFeatures: "vc14",
			Depends:       []string{"python"},
		},
	}

	out := UntrackFeatures(pkgs)
	a := out["numpy-1.0-0.tar.bz2"]

	assert.Equal(t, "nomkl", a.Features, "known token is dropped, unknown token is retained")
	assert.Contains(t, a.Depends, "blas * openblas")
	assert.Empty(t, a.TrackFeatures, "known track_features value is cleared")
}

func TestUntrackFeaturesLeavesUnrelatedArtifactsAlone(t *testing.T) {
	pkgs := artifact.Map{
		"zlib-1.0-0.tar.bz2": {Name: "zlib", Version: "1.0"},
	}
	out := UntrackFeatures(pkgs)
	assert.Equal(t, pkgs["zlib-1.0-0.tar.bz2"].Depends, out["zlib-1.0-0.tar.bz2"].Depends)
}

func TestUntrackFeaturesDoesNotMutateInput(t *testing.T) {
	pkgs := artifact.Map{
		"a-1.0-0.tar.bz2": {Name: "a", Features: "vc9", Depends: []string{"x"}},
	}
	_ = UntrackFeatures(pkgs)
	assert.Equal(t, "vc9", pkgs["a-1.0-0.tar.bz2"].Features, "original map must be untouched")
	assert.Equal(t, []string{"x"}, pkgs["a-1.0-0.tar.bz2"].Depends)
}
