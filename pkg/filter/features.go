package filter

import (
	"strings"

	"github.com/regro/metachannel/pkg/artifact"
)

// virtualFeatureDepends is the fixed rewrite map for feature untracking:
// a feature token expands to an extra dependency spec and is dropped from
// both the "features" and "track_features" fields.
var virtualFeatureDepends = map[string]string{
	"blas_openblas": "blas * openblas",
	"blas_mkl":      "blas * mkl",
	"blas_nomkl":    "blas * nomkl",
	"vc9":           "vs2008_runtime",
	"vc10":          "vs2010_runtime",
	"vc14":          "vs2015_runtime",
}

// UntrackFeatures rewrites every artifact's features/track_features against
// the fixed virtual-feature map: a matching feature token is dropped from
// "features" and its expansion is appended to "depends"; a matching
// track_features value clears that field entirely.
func UntrackFeatures(pkgs artifact.Map) artifact.Map {
	out := make(artifact.Map, len(pkgs))
	for filename, a := range pkgs {
		out[filename] = untrackOne(a)
	}
	return out
}

func untrackOne(a artifact.Artifact) artifact.Artifact {
	clone := a.Clone()

	var remaining []string
	for _, tok := range clone.FeatureTokens() {
		if expansion, ok := virtualFeatureDepends[tok]; ok {
			clone.Depends = append(clone.Depends, expansion)
			continue
		}
		remaining = append(remaining, tok)
	}
	clone.Features = strings.Join(remaining, " ")

	if _, ok := virtualFeatureDepends[clone.TrackFeatures]; ok {
		clone.TrackFeatures = ""
	}

	return clone
}
