package respool

import (
	"context"
	"sync"
)

// Acquisition is a cold handle to a pending acquire: nothing is enqueued
// against the pool until Await or Cancel is first called on it. This
// matches the originating design's deferred/future acquisition contract
// while staying idiomatic Go — callers that never await a discarded
// Acquisition never consume a pending slot.
type Acquisition[R any] struct {
	pool        *Pool[R]
	affinity    string
	hasAffinity bool

	once sync.Once
	b    *borrower[R]
}

func (a *Acquisition[R]) ensureStarted() *borrower[R] {
	a.once.Do(func() {
		a.b = a.pool.subscribe(a.affinity, a.hasAffinity)
	})
	return a.b
}

// Await blocks until a resource is delivered, the acquisition is
// cancelled by ctx expiring, or the pool fails the request outright
// (pending limit, shutdown, allocator error). On ctx cancellation this
// also cancels the underlying borrower; if delivery had already won the
// race, the delivered resource is auto-released rather than leaked.
func (a *Acquisition[R]) Await(ctx context.Context) (*PooledRef[R], error) {
	b := a.ensureStarted()
	select {
	case out := <-b.resultCh:
		if out.err != nil {
			return nil, out.err
		}
		return out.ref, nil
	case <-ctx.Done():
		if b.tryCancel() {
			a.pool.drain()
			return nil, ctx.Err()
		}
		out := <-b.resultCh
		if out.ref != nil {
			a.pool.autoRelease(out.ref)
		}
		return nil, ctx.Err()
	}
}

// Cancel abandons the acquisition. If it races with delivery and loses,
// the delivered resource is auto-released by Cancel, unless Await has
// already returned it.
func (a *Acquisition[R]) Cancel() {
	b := a.ensureStarted()
	if b.tryCancel() {
		a.pool.drain()
		return
	}
	select {
	case out := <-b.resultCh:
		if out.ref != nil {
			a.pool.autoRelease(out.ref)
		}
	default:
	}
}
