package respool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ajitpratap0/respool/internal/atomicutil"
	"github.com/ajitpratap0/respool/internal/scheduler"
	"github.com/ajitpratap0/respool/pkg/poolerr"
)

// Config describes a pool's allocator, capacity policy, and optional
// lifecycle hooks. The zero value is not usable; Allocator is required,
// everything else has a safe default.
type Config[R any] struct {
	// Allocator creates a new resource. Required.
	Allocator func(context.Context) (R, error)

	// Strategy governs the live-resource budget. Defaults to unbounded.
	Strategy AllocationStrategy

	// MaxPending caps the pending queue: 0 means fail fast whenever a
	// request cannot be served immediately, a positive value caps the
	// queue at that depth, a negative value means unbounded. New applies
	// no default here, so the zero value means fail fast; set -1 (as
	// poolconfig.NewBuilder does) for an unbounded queue.
	MaxPending int

	// ReleaseHandler resets a resource before it is offered to the next
	// borrower. An error evicts the resource instead of recycling it.
	ReleaseHandler func(context.Context, R) error

	// DestroyHandler releases any OS/network resources held by a
	// resource being evicted. It has no error result and the pool logs
	// nothing about it: the pool's bookkeeping always advances regardless
	// of destroy outcome.
	DestroyHandler func(context.Context, R)

	// EvictionPredicate is consulted on every release and on every
	// idle-to-borrower handoff; returning true destroys the resource
	// instead of keeping it in circulation.
	EvictionPredicate func(R, Metadata) bool

	// Scheduler runs delivery continuations. Defaults to Immediate.
	Scheduler scheduler.Scheduler

	// Metrics records lifecycle events. Defaults to NoopMetrics.
	Metrics MetricsRecorder

	// Ordering selects FIFO or LIFO for both the pending queue and the
	// idle store. Defaults to FIFO.
	Ordering Ordering

	// ThreadAffinity enables the fast/slow path distinction: a released
	// resource tagged via WithAffinity is preferentially handed to a
	// borrower requesting the same key before falling back to ordinary
	// queue order.
	ThreadAffinity bool

	// InitialSize resources are allocated synchronously into the idle
	// store when the pool is constructed.
	InitialSize int
}

// Pool is a generic, non-blocking resource pool coordinated by a
// work-stealing drain loop: at most one goroutine ever executes the
// matching logic at a time, and any goroutine arriving while another is
// draining simply signals it to loop again rather than blocking.
type Pool[R any] struct {
	cfg Config[R]

	pending *pendingQueue[R]
	idle    *idleStore[R]

	strategy AllocationStrategy
	wip      atomicutil.WIP

	acquired atomicutil.Counter
	inflight atomicutil.Counter
	seq      atomic.Int64

	scheduler scheduler.Scheduler
	metrics   MetricsRecorder

	disposed atomic.Bool
}

// New constructs a pool from cfg, applying defaults for every unset
// optional field, and synchronously allocates InitialSize idle
// resources.
func New[R any](cfg Config[R]) (*Pool[R], error) {
	if cfg.Strategy == nil {
		cfg.Strategy = NewUnboundedStrategy()
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = scheduler.Immediate
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NoopMetrics
	}

	p := &Pool[R]{
		cfg:       cfg,
		pending:   newPendingQueue[R](cfg.Ordering),
		idle:      newIdleStore[R](cfg.Ordering),
		strategy:  cfg.Strategy,
		scheduler: cfg.Scheduler,
		metrics:   cfg.Metrics,
	}

	for i := 0; i < cfg.InitialSize; i++ {
		granted := p.strategy.TryGetPermits(1)
		if granted == 0 {
			break
		}
		start := time.Now()
		resource, err := cfg.Allocator(context.Background())
		if err != nil {
			p.strategy.ReturnPermits(1)
			p.metrics.RecordAllocationFailure(time.Since(start))
			return nil, poolerr.Wrap(err, poolerr.KindAllocation, "initial size allocation failed")
		}
		p.metrics.RecordAllocationSuccess(time.Since(start))
		p.idle.Offer(p.newRef(resource))
	}

	return p, nil
}

func (p *Pool[R]) newRef(resource R) *PooledRef[R] {
	return &PooledRef[R]{
		pool:     p,
		resource: resource,
		meta:     Metadata{ID: uuid.New(), AllocatedAt: time.Now()},
	}
}

// Acquire returns a cold Acquisition; nothing is enqueued until Await or
// Cancel is called on it. ctx may carry an affinity key via
// WithAffinity, preferring a same-keyed idle resource once one becomes
// available.
func (p *Pool[R]) Acquire(ctx context.Context) *Acquisition[R] {
	a := &Acquisition[R]{pool: p}
	if key, ok := AffinityFromContext(ctx); ok {
		a.affinity, a.hasAffinity = key, true
	}
	return a
}

// Acquired is the number of resources currently held by borrowers.
func (p *Pool[R]) Acquired() int64 { return p.acquired.Load() }

// Idle is the number of resources currently in the idle store.
func (p *Pool[R]) Idle() int { return p.idle.Size() }

// Pending is the number of borrowers currently waiting.
func (p *Pool[R]) Pending() int { return p.pending.Size() }

// Live is the current permit-granted count: acquired + idle + in-flight
// allocations.
func (p *Pool[R]) Live() int32 { return p.strategy.PermitGranted() }

// IsDisposed reports whether Dispose has been called.
func (p *Pool[R]) IsDisposed() bool { return p.disposed.Load() }

// subscribe admits a new borrower: fails fast on shutdown or pending-cap
// conditions, otherwise enqueues and triggers the drain loop.
func (p *Pool[R]) subscribe(affinity string, hasAffinity bool) *borrower[R] {
	seq := p.seq.Add(1)
	b := newBorrower[R](seq, affinity, hasAffinity)

	if p.disposed.Load() {
		b.tryFail(poolerr.New(poolerr.KindShutdown, "pool is disposed"))
		return b
	}

	switch {
	case p.cfg.MaxPending == 0:
		// A cap of zero means no queueing at all: only admit when the
		// request could be served immediately (an idle resource is
		// sitting free, or a permit is available for a fresh
		// allocation); otherwise fail fast instead of waiting.
		if p.idle.Size() == 0 && !p.hasPermitHeadroom() {
			b.tryFail(poolerr.New(poolerr.KindPendingLimit, "pending queue disabled (cap 0) and no resource available"))
			return b
		}
	case p.cfg.MaxPending > 0:
		if p.pending.Size() >= p.cfg.MaxPending {
			b.tryFail(poolerr.New(poolerr.KindPendingLimit, "pending queue at configured cap"))
			return b
		}
	}

	if !p.pending.Offer(b) {
		b.tryFail(poolerr.New(poolerr.KindShutdown, "pool is disposed"))
		return b
	}
	p.drain()
	return b
}

func (p *Pool[R]) hasPermitHeadroom() bool {
	max := p.strategy.PermitMaximum()
	if max < 0 {
		return true
	}
	return p.strategy.PermitGranted() < max
}

// drain is the pool's work-stealing serializer: the first caller to flip
// wip from 0 becomes the sole executor of runDrainLoop, and any caller
// arriving while one is already running just increments the counter so
// the owner loops again before giving up ownership.
func (p *Pool[R]) drain() {
	if !p.wip.Enter() {
		return
	}
	for {
		p.runDrainLoop()
		if !p.wip.Leave() {
			return
		}
	}
}

func (p *Pool[R]) runDrainLoop() {
	for {
		if p.pending.IsTerminated() {
			return
		}
		idleCount := p.idle.Size()
		pendCount := p.pending.Size()

		switch {
		case pendCount == 0:
			return
		case idleCount > 0:
			p.stepServeIdle()
		case p.hasPermitHeadroom():
			if !p.stepAllocate() {
				return
			}
		default:
			return
		}
	}
}

// stepAllocate is drain case A: reserve a permit, pop the next borrower,
// and launch an asynchronous allocation for it. Returns false only when
// no permit was available, telling the caller to stop this round.
func (p *Pool[R]) stepAllocate() bool {
	granted := p.strategy.TryGetPermits(1)
	if granted == 0 {
		return false
	}
	b := p.pending.Poll()
	if b == nil || b.isCancelled() {
		p.strategy.ReturnPermits(granted)
		return true
	}
	p.acquired.Inc()
	p.inflight.Inc()
	go p.runAllocation(b)
	return true
}

// stepServeIdle is drain case B: pair an idle resource with a waiting
// borrower, preferring an affinity match when enabled, evaluating the
// eviction predicate before handoff.
func (p *Pool[R]) stepServeIdle() {
	var slot *PooledRef[R]
	var b *borrower[R]
	matchedFast := false

	if p.cfg.ThreadAffinity {
		for _, key := range p.idle.AffinityKeysInOrder() {
			matched := p.pending.PollAffinity(key)
			if matched == nil {
				continue
			}
			s := p.idle.PollAffinity(key)
			if s == nil {
				// Lost the race to another drain step; give the borrower
				// its place back and fall through to the plain path.
				p.pending.Requeue(matched)
				break
			}
			slot = s
			b = matched
			matchedFast = true
			break
		}
	}

	if slot == nil {
		slot = p.idle.Poll()
		if slot == nil {
			return
		}
		b = p.pending.Poll()
	}

	if b == nil {
		p.idle.Offer(slot)
		return
	}
	if b.isCancelled() {
		p.idle.Offer(slot)
		return
	}

	if p.cfg.EvictionPredicate != nil && p.cfg.EvictionPredicate(slot.resource, slot.meta) {
		p.pending.Requeue(b)
		p.strategy.ReturnPermits(1)
		go p.destroyAsync(slot)
		return
	}

	if p.cfg.ThreadAffinity {
		if matchedFast {
			p.metrics.RecordFastPath()
		} else {
			p.metrics.RecordSlowPath()
		}
	}
	p.metrics.RecordRecycled()
	p.metrics.RecordIdleDurationOnRecycle(slot.meta.IdleTime())

	slot.meta.AcquireCount++
	p.acquired.Inc()
	// Each hand-off gets its own ref, so the previous borrower's spent
	// Release/Invalidate guard does not carry over to this acquisition.
	ref := &PooledRef[R]{pool: p, resource: slot.resource, meta: slot.meta}
	p.deliverOrAutoRelease(b, ref)
}

func (p *Pool[R]) runAllocation(b *borrower[R]) {
	ctx := context.Background()
	start := time.Now()
	resource, err := p.cfg.Allocator(ctx)
	p.inflight.Dec()
	if err != nil {
		p.acquired.Dec()
		p.strategy.ReturnPermits(1)
		p.metrics.RecordAllocationFailure(time.Since(start))
		b.tryFail(poolerr.Wrap(err, poolerr.KindAllocation, "allocator failed"))
		p.drain()
		return
	}
	p.metrics.RecordAllocationSuccess(time.Since(start))
	ref := p.newRef(resource)
	ref.meta.AcquireCount = 1
	p.deliverOrAutoRelease(b, ref)
}

func (p *Pool[R]) deliverOrAutoRelease(b *borrower[R], ref *PooledRef[R]) {
	p.scheduler.Schedule(func() {
		if !b.tryDeliver(ref) {
			p.autoRelease(ref)
		}
	})
}

// autoRelease returns a resource the drain loop committed to a borrower
// that cancelled before delivery actually landed.
func (p *Pool[R]) autoRelease(ref *PooledRef[R]) {
	if !ref.terminal.CompareAndSwap(false, true) {
		return
	}
	_ = p.release(context.Background(), ref)
}

// release runs the release handler, then either recycles ref to the idle
// store or destroys it, based on the handler's outcome and the eviction
// predicate. Always decrements acquired exactly once.
func (p *Pool[R]) release(ctx context.Context, ref *PooledRef[R]) error {
	p.acquired.Dec()

	var handlerErr error
	if p.cfg.ReleaseHandler != nil {
		start := time.Now()
		handlerErr = p.cfg.ReleaseHandler(ctx, ref.resource)
		p.metrics.RecordReset(time.Since(start))
	}

	evict := handlerErr != nil || p.disposed.Load()
	if !evict && p.cfg.EvictionPredicate != nil {
		evict = p.cfg.EvictionPredicate(ref.resource, ref.meta)
	}

	if evict {
		p.strategy.ReturnPermits(1)
		go p.destroyAsync(ref)
		p.drain()
		return handlerErr
	}

	ref.meta.LastReleaseAt = time.Now()
	p.idle.Offer(ref)
	p.drain()
	return nil
}

// invalidate destroys ref unconditionally. Destroy handler errors are
// swallowed: the bookkeeping advances regardless of destroy outcome.
func (p *Pool[R]) invalidate(ctx context.Context, ref *PooledRef[R]) error {
	p.acquired.Dec()
	p.strategy.ReturnPermits(1)
	go p.destroyAsync(ref)
	p.drain()
	return nil
}

func (p *Pool[R]) destroyAsync(ref *PooledRef[R]) {
	start := time.Now()
	if p.cfg.DestroyHandler != nil {
		p.cfg.DestroyHandler(context.Background(), ref.resource)
	}
	p.metrics.RecordDestroy(time.Since(start))
	p.metrics.RecordLifetimeOnDestroy(ref.meta.LifeTime())
}

// Dispose permanently shuts the pool down: every pending borrower fails
// immediately, every idle resource is destroyed synchronously, and every
// subsequent Acquire/Release fails fast or destroys outright. Dispose is
// idempotent.
func (p *Pool[R]) Dispose(ctx context.Context) {
	if !p.disposed.CompareAndSwap(false, true) {
		return
	}

	for _, b := range p.pending.Terminate() {
		b.tryFail(poolerr.New(poolerr.KindShutdown, "pool disposed"))
	}

	for _, ref := range p.idle.DrainAll() {
		p.strategy.ReturnPermits(1)
		p.destroyAsync(ref)
	}
}
