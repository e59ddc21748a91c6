// Package ratelimit wraps a resource allocator with token-bucket
// admission control, so a pool's allocation rate (not just its live
// count) can be bounded independently of AllocationStrategy.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// LimitedAllocator wraps an allocator function, blocking each call on a
// token bucket before delegating. Use it to cap the rate at which a
// pool dials new backends, independent of how many it is allowed to
// hold live at once.
type LimitedAllocator[R any] struct {
	limiter  *rate.Limiter
	allocate func(context.Context) (R, error)
}

// New wraps allocate with a limiter admitting burst tokens immediately
// and refilling at ratePerSecond thereafter.
func New[R any](allocate func(context.Context) (R, error), ratePerSecond float64, burst int) *LimitedAllocator[R] {
	return &LimitedAllocator[R]{
		limiter:  rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		allocate: allocate,
	}
}

// Allocate waits for a token, honoring ctx cancellation, then delegates
// to the wrapped allocator. Pass this as a respool.Config.Allocator.
func (l *LimitedAllocator[R]) Allocate(ctx context.Context) (R, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		var zero R
		return zero, err
	}
	return l.allocate(ctx)
}

// SetLimit adjusts the refill rate at runtime.
func (l *LimitedAllocator[R]) SetLimit(ratePerSecond float64) {
	l.limiter.SetLimit(rate.Limit(ratePerSecond))
}

// SetBurst adjusts the bucket's burst size at runtime.
func (l *LimitedAllocator[R]) SetBurst(burst int) {
	l.limiter.SetBurst(burst)
}

// Allow reports whether a token is available right now without waiting
// or consuming it permanently, useful for health/readiness checks.
func (l *LimitedAllocator[R]) Allow() bool {
	return l.limiter.TokensAt(time.Now()) >= 1
}

// Tokens returns the current number of tokens available, which may be
// fractional and never exceeds the current burst size.
func (l *LimitedAllocator[R]) Tokens() float64 {
	return l.limiter.TokensAt(time.Now())
}
