package store

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/regro/metachannel/pkg/artifact"
	"github.com/regro/metachannel/pkg/cachestore"
	"github.com/regro/metachannel/pkg/channel"
	"github.com/regro/metachannel/pkg/depgraph"
	"github.com/regro/metachannel/pkg/repodata"
)

// DerivedResult is the fully resolved output of one (channels, arch,
// constraints, variant) request: the fused graph restricted to the
// closure and the filter pipeline's output packages map, ready to
// serialize.
type DerivedResult struct {
	Graph    *depgraph.Graph
	Packages artifact.Map
}

// DerivedBuilder constructs a DerivedResult for one request. It is
// supplied by pkg/artifactgraph, which knows how to fetch, compose,
// close, and filter.
type DerivedBuilder func(ctx context.Context, channels channel.Ref, arch channel.Arch, constraints channel.Constraints, variant repodata.Variant) (*DerivedResult, error)

// DerivedTier memoizes the fully resolved result of one request.
type DerivedTier struct {
	cache cachestore.Cache[*DerivedResult]
	build DerivedBuilder
	ttl   time.Duration
	group singleflight.Group
}

// NewDerivedTier returns a DerivedTier that builds misses through build
// and caches results in cache for ttl.
func NewDerivedTier(cache cachestore.Cache[*DerivedResult], build DerivedBuilder, ttl time.Duration) *DerivedTier {
	return &DerivedTier{cache: cache, build: build, ttl: ttl}
}

// Get returns the cached DerivedResult for the given request shape,
// building it on a miss. Concurrent callers for the same resolved key
// block on a single in-flight build.
func (t *DerivedTier) Get(ctx context.Context, channels channel.Ref, arch channel.Arch, constraints channel.Constraints, variant repodata.Variant) (*DerivedResult, error) {
	cacheKey := derivedCacheKey(channels, arch, constraints, variant)

	if data, ok, err := t.cache.Get(ctx, cacheKey); err != nil {
		return nil, err
	} else if ok {
		return data, nil
	}

	result, err, _ := t.group.Do(cacheKey, func() (any, error) {
		data, err := t.build(ctx, channels, arch, constraints, variant)
		if err != nil {
			return nil, err
		}
		if setErr := t.cache.Set(ctx, cacheKey, data, t.ttl); setErr != nil {
			return nil, setErr
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*DerivedResult), nil
}

// Len reports the number of live derived entries, for debug/status reporting.
func (t *DerivedTier) Len() int { return t.cache.Len() }

func derivedCacheKey(channels channel.Ref, arch channel.Arch, constraints channel.Constraints, variant repodata.Variant) string {
	return string(variant) + "|" + channels.Key() + "|" + string(arch) + "|" + constraints.SortedKey()
}
