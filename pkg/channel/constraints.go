package channel

import (
	"sort"
	"strings"
)

// Constraints is the parsed form of a request's constraint path segment:
// bare package names seed the dependency closure, while "--flag[=value]"
// entries select functional filters.
type Constraints struct {
	// Packages are the bare package names the closure must include.
	Packages []string
	// Functional maps option name (e.g. "--max-build-no") to the set of
	// argument values supplied for it (e.g. {"0"} or blacklist names).
	Functional map[string][]string
}

// ParseConstraints splits a comma-separated constraint list into package
// names and functional flags, in the order they appear.
func ParseConstraints(raw string) Constraints {
	c := Constraints{Functional: make(map[string][]string)}
	for _, tok := range splitNonEmpty(raw, ',') {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if strings.HasPrefix(tok, "--") {
			name, value, _ := strings.Cut(tok, "=")
			if value != "" {
				c.Functional[name] = append(c.Functional[name], value)
			} else {
				c.Functional[name] = append(c.Functional[name], "")
			}
			continue
		}
		c.Packages = append(c.Packages, tok)
	}
	return c
}

// Empty reports whether the constraint set seeds no closure at all
// (no bare package names). Per the closure engine's documented edge
// case, an empty seed set is interpreted by the caller as "no
// constraints" and should return the whole graph.
func (c Constraints) Empty() bool {
	return len(c.Packages) == 0
}

// SortedKey returns a stable string encoding the full constraint set,
// suitable as part of a derived-tier cache key: same inputs must produce
// the same key regardless of constraint ordering on the wire.
func (c Constraints) SortedKey() string {
	pkgs := append([]string(nil), c.Packages...)
	sort.Strings(pkgs)

	flags := make([]string, 0, len(c.Functional))
	for name, values := range c.Functional {
		vs := append([]string(nil), values...)
		sort.Strings(vs)
		flags = append(flags, name+"="+strings.Join(vs, "|"))
	}
	sort.Strings(flags)

	return strings.Join(pkgs, ",") + ";" + strings.Join(flags, ",")
}

// MaxBuildNo reports the --max-build-no functional constraint, if present.
func (c Constraints) MaxBuildNo() (value string, ok bool) {
	vs, present := c.Functional["--max-build-no"]
	if !present || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// UntrackFeatures reports whether --untrack-features was requested.
func (c Constraints) UntrackFeatures() bool {
	_, ok := c.Functional["--untrack-features"]
	return ok
}

// Blacklists returns the set of blacklist names requested via
// --blacklist=<name> (the flag may repeat).
func (c Constraints) Blacklists() []string {
	return c.Functional["--blacklist"]
}
