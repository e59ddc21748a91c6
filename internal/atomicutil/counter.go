// Package atomicutil provides lock-free counters used by the pool's
// drain loop and permit accounting.
package atomicutil

import "sync/atomic"

// Counter is a lock-free signed counter for bookkeeping values that can
// go negative transiently (permits returned before granted, live rolled
// back on allocator error).
type Counter struct {
	value atomic.Int64
}

// NewCounter creates a counter initialized to n.
func NewCounter(n int64) *Counter {
	c := &Counter{}
	c.value.Store(n)
	return c
}

// Add atomically adds delta and returns the new value.
func (c *Counter) Add(delta int64) int64 {
	return c.value.Add(delta)
}

// Inc atomically increments by one and returns the new value.
func (c *Counter) Inc() int64 {
	return c.value.Add(1)
}

// Dec atomically decrements by one and returns the new value.
func (c *Counter) Dec() int64 {
	return c.value.Add(-1)
}

// Load returns the current value.
func (c *Counter) Load() int64 {
	return c.value.Load()
}

// Store sets the value unconditionally.
func (c *Counter) Store(n int64) {
	c.value.Store(n)
}

// CAS attempts to swap old for new, returning whether it succeeded.
func (c *Counter) CAS(old, new int64) bool {
	return c.value.CompareAndSwap(old, new)
}

// WIP implements the work-stealing serializer counter described by the
// drain loop: the first caller to flip it from 0 to 1 becomes the sole
// executor; everyone else increments and returns immediately.
type WIP struct {
	value atomic.Int32
}

// Enter returns true if the calling goroutine became the drain owner
// (wip transitioned 0->1), false if it merely registered more work for
// the current owner to pick up.
func (w *WIP) Enter() bool {
	return w.value.Add(1) == 1
}

// Leave releases one unit of outstanding work and reports whether the
// owner should keep looping (more work arrived while it was draining).
func (w *WIP) Leave() bool {
	return w.value.Add(-1) != 0
}
