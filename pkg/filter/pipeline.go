// Package filter applies the per-node, per-arch artifact transformations
// requested via functional constraints: build-number pruning, feature
// untracking, and blacklist removal. Every filter returns a new
// artifact.Map; inputs are never mutated.
package filter

import (
	"github.com/regro/metachannel/pkg/artifact"
	"github.com/regro/metachannel/pkg/channel"
)

// BlacklistLoader resolves the filename set to drop for a given channel
// and blacklist name, scoped to one architecture. Implementations memoize
// aggressively since blacklist files are static configuration.
type BlacklistLoader interface {
	Lookup(ch string, name string, arch channel.Arch) (map[string]bool, error)
}

// Apply runs the fixed filter pipeline — build-number pruning, then
// feature untracking, then blacklist removal — over pkgs. Each stage is
// skipped when its corresponding constraint is absent.
func Apply(pkgs artifact.Map, arch channel.Arch, channels channel.Ref, c channel.Constraints, loader BlacklistLoader) (artifact.Map, error) {
	out := pkgs

	if _, ok := c.MaxBuildNo(); ok {
		out = PruneBuildNumbers(out)
	}

	if c.UntrackFeatures() {
		out = UntrackFeatures(out)
	}

	for _, name := range c.Blacklists() {
		filtered, err := RemoveBlacklisted(out, channels, name, arch, loader)
		if err != nil {
			return nil, err
		}
		out = filtered
	}

	return out, nil
}
