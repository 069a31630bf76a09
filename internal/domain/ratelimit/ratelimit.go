// Package ratelimit implements a keyed fixed-window request counter.
//
// A fixed window permits up to 2x the nominal rate across a window
// boundary (max requests at the end of one window plus max at the start
// of the next). That imprecision is accepted for this system's traffic
// volumes; it is not a defect. The in-memory store is process-local:
// horizontally scaled deployments get an independent bucket map per
// instance unless a shared Limiter implementation is injected.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/northlux/securelab/pkg/metrics"
)

const defaultSweepInterval = 5 * time.Minute

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed      bool
	Remaining    int
	ResetSeconds int
}

// Limiter is the injected rate-limit store. Implementations must be safe
// for concurrent use; every request across the system goes through one.
type Limiter interface {
	// Check applies the fixed-window rule for key: a fresh or expired
	// window starts a new bucket at count 1 and allows; below max the
	// count increments and allows; at or above max it denies without
	// incrementing and reports seconds until the window resets.
	Check(ctx context.Context, key string, max int, window time.Duration) Decision

	// Size returns the number of live buckets.
	Size() int
}

// bucket holds a request count and the window's reset time.
type bucket struct {
	count   int
	resetAt time.Time
}

// InMemoryLimiter implements Limiter with a mutex-guarded bucket map.
// The Go runtime faults on unsynchronized map access, so the lock is a
// memory-safety requirement; the window semantics are unchanged by it.
type InMemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time

	sweepInterval time.Duration
}

// Option applies a configuration option to the InMemoryLimiter.
type Option func(*InMemoryLimiter)

// WithClock substitutes the time source, for deterministic window tests.
func WithClock(now func() time.Time) Option {
	return func(l *InMemoryLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithSweepInterval sets how often StartSweeper evicts expired buckets.
func WithSweepInterval(interval time.Duration) Option {
	return func(l *InMemoryLimiter) {
		if interval > 0 {
			l.sweepInterval = interval
		}
	}
}

// NewInMemoryLimiter creates an in-memory fixed-window limiter.
func NewInMemoryLimiter(opts ...Option) *InMemoryLimiter {
	l := &InMemoryLimiter{
		buckets:       make(map[string]*bucket),
		now:           time.Now,
		sweepInterval: defaultSweepInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check applies the fixed-window rule. See Limiter.
func (l *InMemoryLimiter) Check(_ context.Context, key string, max int, window time.Duration) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		// First use of the key, or the previous window elapsed.
		l.buckets[key] = &bucket{count: 1, resetAt: now.Add(window)}
		metrics.RecordRatelimitAllowed()
		return Decision{Allowed: true, Remaining: max - 1, ResetSeconds: int(window.Seconds())}
	}

	if b.count < max {
		b.count++
		metrics.RecordRatelimitAllowed()
		return Decision{Allowed: true, Remaining: max - b.count, ResetSeconds: secondsUntil(now, b.resetAt)}
	}

	metrics.RecordRatelimitDenied()
	return Decision{Allowed: false, Remaining: 0, ResetSeconds: secondsUntil(now, b.resetAt)}
}

// Size returns the number of live buckets.
func (l *InMemoryLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Sweep removes buckets whose window has expired. Expired buckets are
// otherwise replaced lazily on next touch, so sweeping only bounds the
// map's growth for keys that stop appearing.
func (l *InMemoryLimiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, key)
			removed++
		}
	}
	metrics.UpdateRatelimitBuckets(len(l.buckets))
	return removed
}

// StartSweeper evicts expired buckets in the background until ctx ends.
func (l *InMemoryLimiter) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(l.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep()
			}
		}
	}()
}

func secondsUntil(now, resetAt time.Time) int {
	secs := int(resetAt.Sub(now).Round(time.Second).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}
