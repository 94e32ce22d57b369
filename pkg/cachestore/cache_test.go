package cachestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache[string](0)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestMemoryCacheMissOnUnknownKey(t *testing.T) {
	c := NewMemoryCache[string](0)
	defer c.Close()

	_, ok, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheExpiresLazily(t *testing.T) {
	c := NewMemoryCache[int](0)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 42, time.Nanosecond))
	time.Sleep(time.Millisecond)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry past its TTL must be treated as a miss on access")
	assert.Equal(t, 0, c.Len(), "lazy expiry removes the stale entry from the map")
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewMemoryCache[int](0)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1, 0))
	time.Sleep(time.Millisecond)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCacheSweepRemovesExpiredEntries(t *testing.T) {
	c := NewMemoryCache[int](5 * time.Millisecond)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1, time.Nanosecond))

	assert.Eventually(t, func() bool {
		return c.Len() == 0
	}, 200*time.Millisecond, 5*time.Millisecond, "background sweep should drop the expired entry even without a Get")
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache[int](0)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, ok, _ := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestNullCacheAlwaysMisses(t *testing.T) {
	c := NewNullCache[string]()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
