// Package poolconfig provides a fluent builder for respool.Config and a
// YAML loader for the subset of pool tunables that make sense as static
// configuration (an allocator function obviously does not).
package poolconfig

import (
	"context"

	"github.com/ajitpratap0/respool"
	"github.com/ajitpratap0/respool/internal/scheduler"
)

// Builder accumulates settings and produces an immutable respool.Config.
// Defaults: unbounded allocation strategy, unbounded pending queue, no-op
// release handler, no destroy handler, no eviction, immediate scheduler,
// no-op metrics, FIFO ordering, affinity off, zero initial size. These
// match respool.New's defaults except the pending queue: a raw
// respool.Config's zero MaxPending means fail fast, while the Builder
// sets -1.
type Builder[R any] struct {
	cfg respool.Config[R]
}

// NewBuilder starts a Builder for the given allocator, the only field a
// pool cannot run without.
func NewBuilder[R any](allocator func(context.Context) (R, error)) *Builder[R] {
	return &Builder[R]{
		cfg: respool.Config[R]{
			Allocator:  allocator,
			Strategy:   respool.NewUnboundedStrategy(),
			MaxPending: -1,
			Ordering:   respool.FIFO,
		},
	}
}

// WithBoundedStrategy caps live resources at max.
func (b *Builder[R]) WithBoundedStrategy(max int32) *Builder[R] {
	b.cfg.Strategy = respool.NewBoundedStrategy(max)
	return b
}

// WithUnboundedStrategy removes any cap on live resources.
func (b *Builder[R]) WithUnboundedStrategy() *Builder[R] {
	b.cfg.Strategy = respool.NewUnboundedStrategy()
	return b
}

// WithStrategy installs a custom AllocationStrategy.
func (b *Builder[R]) WithStrategy(s respool.AllocationStrategy) *Builder[R] {
	b.cfg.Strategy = s
	return b
}

// WithMaxPending sets the pending-queue cap: 0 fails fast whenever a
// request cannot be served immediately, positive caps the queue depth,
// negative is unbounded.
func (b *Builder[R]) WithMaxPending(n int) *Builder[R] {
	b.cfg.MaxPending = n
	return b
}

// WithReleaseHandler installs the reset pipeline run on every release.
func (b *Builder[R]) WithReleaseHandler(fn func(context.Context, R) error) *Builder[R] {
	b.cfg.ReleaseHandler = fn
	return b
}

// WithDestroyHandler installs the teardown run on every eviction.
func (b *Builder[R]) WithDestroyHandler(fn func(context.Context, R)) *Builder[R] {
	b.cfg.DestroyHandler = fn
	return b
}

// WithEvictionPredicate installs the predicate consulted on release and
// on idle-to-borrower handoff.
func (b *Builder[R]) WithEvictionPredicate(fn func(R, respool.Metadata) bool) *Builder[R] {
	b.cfg.EvictionPredicate = fn
	return b
}

// WithScheduler installs the acquisition-delivery execution context.
func (b *Builder[R]) WithScheduler(s scheduler.Scheduler) *Builder[R] {
	b.cfg.Scheduler = s
	return b
}

// WithWorkerPoolScheduler installs a bounded worker-pool scheduler sized
// n with the given work-queue capacity.
func (b *Builder[R]) WithWorkerPoolScheduler(n, capacity int) *Builder[R] {
	b.cfg.Scheduler = scheduler.NewWorkerPool(n, capacity)
	return b
}

// WithMetrics installs the metrics sink.
func (b *Builder[R]) WithMetrics(m respool.MetricsRecorder) *Builder[R] {
	b.cfg.Metrics = m
	return b
}

// WithLIFO selects stack ordering for the pending queue and idle store.
func (b *Builder[R]) WithLIFO() *Builder[R] {
	b.cfg.Ordering = respool.LIFO
	return b
}

// WithFIFO selects queue ordering (the default).
func (b *Builder[R]) WithFIFO() *Builder[R] {
	b.cfg.Ordering = respool.FIFO
	return b
}

// WithThreadAffinity enables the affinity fast/slow path distinction.
func (b *Builder[R]) WithThreadAffinity() *Builder[R] {
	b.cfg.ThreadAffinity = true
	return b
}

// WithInitialSize preallocates n idle resources at construction.
func (b *Builder[R]) WithInitialSize(n int) *Builder[R] {
	b.cfg.InitialSize = n
	return b
}

// Build validates and constructs the pool.
func (b *Builder[R]) Build() (*respool.Pool[R], error) {
	return respool.New(b.cfg)
}
