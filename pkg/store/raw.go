// Package store provides the two memoized tiers in front of the
// repodata fetcher and the artifact-graph builder: a raw tier keyed by
// (channel, arch, variant), and a derived tier keyed by the fully
// resolved (channels, arch, constraints, variant) request. Both tiers
// are fronted by a singleflight group so that concurrent misses on the
// same key trigger exactly one build; every other caller blocks on that
// result instead of duplicating the work.
package store

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/regro/metachannel/pkg/cachestore"
	"github.com/regro/metachannel/pkg/repodata"
)

// RawTier memoizes one upstream (channel, arch, variant) fetch.
type RawTier struct {
	cache   cachestore.Cache[*repodata.RawRepoData]
	fetcher repodata.Fetcher
	ttl     time.Duration
	group   singleflight.Group
}

// NewRawTier returns a RawTier that fetches misses through fetcher and
// caches results in cache for ttl.
func NewRawTier(cache cachestore.Cache[*repodata.RawRepoData], fetcher repodata.Fetcher, ttl time.Duration) *RawTier {
	return &RawTier{cache: cache, fetcher: fetcher, ttl: ttl}
}

// Get returns the cached RawRepoData for key, fetching it on a miss.
// Concurrent callers requesting the same key block on a single in-flight
// fetch rather than each issuing their own upstream request.
func (t *RawTier) Get(ctx context.Context, key repodata.Key) (*repodata.RawRepoData, error) {
	cacheKey := rawCacheKey(key)

	if data, ok, err := t.cache.Get(ctx, cacheKey); err != nil {
		return nil, err
	} else if ok {
		return data, nil
	}

	result, err, _ := t.group.Do(cacheKey, func() (any, error) {
		data, err := t.fetcher.Fetch(ctx, key)
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
	return result.(*repodata.RawRepoData), nil
}

// Len reports the number of live raw entries, for debug/status reporting.
func (t *RawTier) Len() int { return t.cache.Len() }

func rawCacheKey(key repodata.Key) string {
	return string(key.Variant) + "|" + key.Channel + "|" + string(key.Arch)
}
