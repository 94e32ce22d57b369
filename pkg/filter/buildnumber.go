package filter

import "github.com/regro/metachannel/pkg/artifact"

type buildGroupKey struct {
	name      string
	version   string
	buildStem string
}

// PruneBuildNumbers groups artifacts by (name, version, build_stem) and
// keeps only the artifact with the maximum build number in each group.
// Artifacts whose build string has a non-numeric suffix (e.g. the "blas"
// mutex package) are kept unconditionally — they never entered a group.
// Ties on the maximum build number are broken by the lexicographically
// smallest filename.
func PruneBuildNumbers(pkgs artifact.Map) artifact.Map {
	groups := make(map[buildGroupKey][]string) // key -> filenames in the group
	kept := make(artifact.Map, len(pkgs))

	for filename, a := range pkgs {
		stem, _, ok := a.BuildStemAndNumber()
		if !ok {
			kept[filename] = a
			continue
		}
		key := buildGroupKey{name: a.Name, version: a.Version, buildStem: stem}
		groups[key] = append(groups[key], filename)
	}

	for _, filenames := range groups {
		best := bestInGroup(pkgs, filenames)
		kept[best] = pkgs[best]
	}

	return kept
}

// bestInGroup returns the filename with the highest build number, breaking
// ties on the lexicographically smallest filename.
func bestInGroup(pkgs artifact.Map, filenames []string) string {
	best := filenames[0]
	_, bestNumber, _ := pkgs[best].BuildStemAndNumber()

	for _, filename := range filenames[1:] {
		_, number, _ := pkgs[filename].BuildStemAndNumber()
		switch {
		case number > bestNumber:
			best, bestNumber = filename, number
		case number == bestNumber && filename < best:
			best = filename
		}
	}
	return best
}
