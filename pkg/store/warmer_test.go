package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/regro/metachannel/pkg/cachestore"
	"github.com/regro/metachannel/pkg/channel"
	"github.com/regro/metachannel/pkg/repodata"
)

type failingFetcher struct{ calls int32 }

func (f *failingFetcher) Fetch(ctx context.Context, key repodata.Key) (*repodata.RawRepoData, error) {
	atomic.AddInt32(&f.calls, 1)
	return nil, errors.New("upstream down")
}

type recordingSink struct {
	calls int32
	lastOK bool
}

func (s *recordingSink) RecordCycle(ctx context.Context, target Target, ok bool, cause error, duration time.Duration, at time.Time) {
	atomic.AddInt32(&s.calls, 1)
	s.lastOK = ok
}

func TestWarmerRunsAtLeastOneTickImmediately(t *testing.T) {
	fetcher := &countingFetcher{}
	raw := NewRawTier(cachestore.NewMemoryCache[*repodata.RawRepoData](0), fetcher, time.Minute)
	sink := &recordingSink{}

	w := NewWarmer(raw, []Target{{Channels: channel.Ref{"conda-forge"}, Arch: "linux-64"}})
	w.Interval = time.Hour
	w.Audit = sink

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&sink.calls) >= 1
	}, time.Second, 5*time.Millisecond)
	cancel()
}

func TestWarmerSurvivesFetchFailures(t *testing.T) {
	fetcher := &failingFetcher{}
	raw := NewRawTier(cachestore.NewMemoryCache[*repodata.RawRepoData](0), fetcher, time.Minute)
	sink := &recordingSink{}

	w := NewWarmer(raw, []Target{{Channels: channel.Ref{"conda-forge"}, Arch: "linux-64"}})
	w.Interval = time.Hour
	w.Audit = sink

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&sink.calls) >= 1
	}, time.Second, 5*time.Millisecond)
	assert.False(t, sink.lastOK, "a failed fetch must still record a cycle, marked not-ok")
	cancel()
}
