package cachestore

import (
	"context"
	"time"
)

// NullCache is a Cache[V] that never stores anything. Useful for tests
// and for disabling a tier without changing call sites.
type NullCache[V any] struct{}

// NewNullCache returns a Cache[V] that always misses.
func NewNullCache[V any]() *NullCache[V] {
	return &NullCache[V]{}
}

func (NullCache[V]) Get(context.Context, string) (v V, ok bool, err error) { return v, false, nil }
func (NullCache[V]) Set(context.Context, string, V, time.Duration) error   { return nil }
func (NullCache[V]) Delete(context.Context, string) error                  { return nil }
func (NullCache[V]) Len() int                                              { return 0 }
func (NullCache[V]) Close() error                                          { return nil }

// Ensure NullCache implements Cache.
var _ Cache[int] = NullCache[int]{}
