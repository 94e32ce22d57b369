package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regro/metachannel/pkg/cachestore"
	"github.com/regro/metachannel/pkg/depgraph"
	"github.com/regro/metachannel/pkg/repodata"
)

type countingFetcher struct {
	calls int32
	delay time.Duration
}

func (f *countingFetcher) Fetch(ctx context.Context, key repodata.Key) (*repodata.RawRepoData, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return &repodata.RawRepoData{Key: key, Graph: depgraph.New(), FetchedAt: time.Now()}, nil
}

func TestRawTierCachesAcrossCalls(t *testing.T) {
	fetcher := &countingFetcher{}
	tier := NewRawTier(cachestore.NewMemoryCache[*repodata.RawRepoData](0), fetcher, time.Minute)
	key := repodata.Key{Channel: "conda-forge", Arch: "linux-64", Variant: repodata.VariantFull}

	_, err := tier.Get(context.Background(), key)
	require.NoError(t, err)
	_, err = tier.Get(context.Background(), key)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls), "second call must hit the cache, not the fetcher")
}

func TestRawTierSingleFlightsConcurrentMisses(t *testing.T) {
	fetcher := &countingFetcher{delay: 20 * time.Millisecond}
	tier := NewRawTier(cachestore.NewMemoryCache[*repodata.RawRepoData](0), fetcher, time.Minute)
	key := repodata.Key{Channel: "conda-forge", Arch: "linux-64", Variant: repodata.VariantFull}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tier.Get(context.Background(), key)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls), "concurrent misses on the same key must trigger exactly one fetch")
}
