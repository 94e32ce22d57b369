package filter

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/regro/metachannel/pkg/artifact"
	"github.com/regro/metachannel/pkg/channel"
	apierr "github.com/regro/metachannel/pkg/errors"
)

// FileBlacklistLoader reads blacklist YAML files from a directory tree
// laid out as blacklists/<channel>/<name>.yml, where each file maps arch
// strings to a sequence of filenames. Results are memoized permanently:
// blacklist files are static configuration and are never expected to
// change underneath a running process.
type FileBlacklistLoader struct {
	Root string
	once sync.Map // cacheKey -> *cachedEntry
}

type cachedEntry struct {
	byArch map[string][]string
	err    error
}

// NewFileBlacklistLoader returns a loader rooted at root (typically
// "blacklists").
func NewFileBlacklistLoader(root string) *FileBlacklistLoader {
	return &FileBlacklistLoader{Root: root}
}

// Lookup returns the set of filenames blacklisted for (ch, name, arch). A
// missing file is treated as an empty set, per the blacklist file format's
// documented "missing file => empty set" rule.
func (l *FileBlacklistLoader) Lookup(ch string, name string, arch channel.Arch) (map[string]bool, error) {
	cacheKey := ch + "/" + name
	entry, err := l.load(cacheKey, ch, name)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(entry.byArch[string(arch)]))
	for _, filename := range entry.byArch[string(arch)] {
		set[filename] = true
	}
	return set, nil
}

func (l *FileBlacklistLoader) load(cacheKey, ch, name string) (*cachedEntry, error) {
	if cached, ok := l.once.Load(cacheKey); ok {
		entry := cached.(*cachedEntry)
		return entry, entry.err
	}

	path := fmt.Sprintf("%s/%s/%s.yml", l.Root, ch, name)
	data, err := os.ReadFile(path)
	entry := &cachedEntry{}
	switch {
	case os.IsNotExist(err):
		entry.byArch = map[string][]string{}
	case err != nil:
		entry.err = apierr.Wrap(apierr.CodeInternal, err, "read blacklist file %s", path)
	default:
		var byArch map[string][]string
		if yamlErr := yaml.Unmarshal(data, &byArch); yamlErr != nil {
			entry.err = apierr.Wrap(apierr.CodeInternal, yamlErr, "parse blacklist file %s", path)
		} else {
			entry.byArch = byArch
		}
	}

	actual, _ := l.once.LoadOrStore(cacheKey, entry)
	stored := actual.(*cachedEntry)
	return stored, stored.err
}

// RemoveBlacklisted unions the blacklisted filename sets across every
// channel in channels for the given blacklist name and arch, then drops
// any artifact whose filename appears in the union. If no entries
// accumulate, pkgs is returned unchanged (no copy).
func RemoveBlacklisted(pkgs artifact.Map, channels channel.Ref, name string, arch channel.Arch, loader BlacklistLoader) (artifact.Map, error) {
	union := make(map[string]bool)
	for _, ch := range channels {
		set, err := loader.Lookup(ch, name, arch)
		if err != nil {
			return nil, err
		}
		for filename := range set {
			union[filename] = true
		}
	}

	if len(union) == 0 {
		return pkgs, nil
	}

	out := make(artifact.Map, len(pkgs))
	for filename, a := range pkgs {
		if union[filename] {
			continue
		}
		out[filename] = a
	}
	return out, nil
}
