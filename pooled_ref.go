package respool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Metadata is the bookkeeping the pool keeps about a resource
// independent of its caller-visible value: when it was allocated, how
// many times it has been handed out, and when it was last released.
type Metadata struct {
	ID            uuid.UUID
	AcquireCount  int64
	AllocatedAt   time.Time
	LastReleaseAt time.Time
}

// LifeTime is the duration since allocation, as of now.
func (m Metadata) LifeTime() time.Duration {
	return time.Since(m.AllocatedAt)
}

// IdleTime is the duration since the last release, or zero if the
// resource has never been released.
func (m Metadata) IdleTime() time.Duration {
	if m.LastReleaseAt.IsZero() {
		return 0
	}
	return time.Since(m.LastReleaseAt)
}

// PooledRef is a handle to one acquired resource. Exactly one of Release
// or Invalidate must be called exactly once to return it to the pool;
// a second call on either is a harmless no-op.
type PooledRef[R any] struct {
	pool     *Pool[R]
	resource R
	meta     Metadata

	releaseAffinity    string
	hasReleaseAffinity bool

	terminal atomic.Bool
}

// Resource returns the underlying pooled value.
func (r *PooledRef[R]) Resource() R { return r.resource }

// Metadata returns a snapshot of this resource's bookkeeping.
func (r *PooledRef[R]) Metadata() Metadata { return r.meta }

// Release returns the resource to the pool for reuse, running the
// pool's release handler first and evaluating the eviction predicate.
// Calling ctx through respool.WithAffinity tags the released resource
// with an affinity key the drain loop's fast path can match against a
// waiting borrower requesting the same key.
func (r *PooledRef[R]) Release(ctx context.Context) error {
	if !r.terminal.CompareAndSwap(false, true) {
		return nil
	}
	if key, ok := AffinityFromContext(ctx); ok {
		r.releaseAffinity, r.hasReleaseAffinity = key, true
	}
	return r.pool.release(ctx, r)
}

// Invalidate destroys the resource unconditionally instead of returning
// it to the idle store, for callers that know the resource is broken.
func (r *PooledRef[R]) Invalidate(ctx context.Context) error {
	if !r.terminal.CompareAndSwap(false, true) {
		return nil
	}
	return r.pool.invalidate(ctx, r)
}
