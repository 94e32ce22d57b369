package store

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/regro/metachannel/pkg/channel"
	"github.com/regro/metachannel/pkg/repodata"
)

// Target is one (channels, arch) pair the warmer keeps hot.
type Target struct {
	Channels channel.Ref
	Arch     channel.Arch
}

// AuditSink records the outcome of one warmer cycle for one target. The
// default NoopSink discards everything; pkg/audit provides a
// Mongo-backed implementation for operators who want the history.
type AuditSink interface {
	RecordCycle(ctx context.Context, target Target, ok bool, cause error, duration time.Duration, at time.Time)
}

// NoopSink is an AuditSink that records nothing.
type NoopSink struct{}

func (NoopSink) RecordCycle(context.Context, Target, bool, error, time.Duration, time.Time) {}

// Warmer periodically re-primes the raw tier for a configured set of
// targets so that the first real request after an entry expires doesn't
// pay the upstream fetch latency. Fetch failures are logged and recorded
// to the audit sink but never stop the loop.
type Warmer struct {
	Raw      *RawTier
	Targets  []Target
	Interval time.Duration
	Logger   *log.Logger
	Audit    AuditSink
}

// NewWarmer returns a Warmer with sane defaults (30s interval, a noop
// audit sink) for any zero-value fields.
func NewWarmer(raw *RawTier, targets []Target) *Warmer {
	return &Warmer{
		Raw:      raw,
		Targets:  targets,
		Interval: 30 * time.Second,
		Logger:   log.Default(),
		Audit:    NoopSink{},
	}
}

// Run blocks, warming every target once per tick until ctx is cancelled.
func (w *Warmer) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Warmer) tick(ctx context.Context) {
	for _, target := range w.Targets {
		w.warmOne(ctx, target)
	}
}

func (w *Warmer) warmOne(ctx context.Context, target Target) {
	start := time.Now()
	var cause error

	for _, ch := range target.Channels {
		key := repodata.Key{Channel: ch, Arch: target.Arch, Variant: repodata.VariantFull}
		if _, err := w.Raw.Get(ctx, key); err != nil {
			cause = err
			w.Logger.Warnf("warm failed: channel=%s arch=%s: %v", ch, target.Arch, err)
		}
	}

	duration := time.Since(start)
	ok := cause == nil
	if ok {
		w.Logger.Debugf("warmed channels=%s arch=%s (%s)", target.Channels, target.Arch, duration.Round(time.Millisecond))
	}
	w.Audit.RecordCycle(ctx, target, ok, cause, duration, start)
}
