package cachestore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Codec converts a cached value to and from its wire representation for
// the Redis-backed tier. The in-memory tier needs no codec since values
// stay as live Go objects; Redis only ever sees bytes.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// RedisCache is a Cache[V] backed by a shared Redis instance, for
// multi-instance deployments where the in-process map would be
// invisible to other replicas. Keys are namespaced under prefix so
// multiple tiers can share one Redis database.
type RedisCache[V any] struct {
	client *redis.Client
	codec  Codec[V]
	prefix string
}

// NewRedisCache returns a Cache[V] backed by client, namespacing every
// key under prefix.
func NewRedisCache[V any](client *redis.Client, codec Codec[V], prefix string) *RedisCache[V] {
	return &RedisCache[V]{client: client, codec: codec, prefix: prefix}
}

func (c *RedisCache[V]) key(k string) string { return c.prefix + k }

func (c *RedisCache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return zero, false, nil
	case err != nil:
		return zero, false, err
	}

	v, err := c.codec.Decode(data)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (c *RedisCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := c.codec.Encode(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

func (c *RedisCache[V]) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

// Len reports the number of keys under this tier's prefix. It is O(n) in
// the size of the keyspace and intended for debug/status reporting, not
// the hot path.
func (c *RedisCache[V]) Len() int {
	ctx := context.Background()
	var count int
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count
}

func (c *RedisCache[V]) Close() error {
	return c.client.Close()
}

// Ensure RedisCache implements Cache.
var _ Cache[int] = (*RedisCache[int])(nil)
