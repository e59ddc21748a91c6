package respool

import "sync/atomic"

type acquireState int32

const (
	acqPending acquireState = iota
	acqCancelled
	acqDelivered
	acqFailed
)

// borrower is one enqueued waiter in the pending queue: a seat reserved
// for exactly one PooledRef or one error, delivered at most once.
type borrower[R any] struct {
	seq         int64
	affinity    string
	hasAffinity bool
	state       atomic.Int32
	resultCh    chan acquireOutcome[R]
}

type acquireOutcome[R any] struct {
	ref *PooledRef[R]
	err error
}

func newBorrower[R any](seq int64, affinity string, hasAffinity bool) *borrower[R] {
	b := &borrower[R]{seq: seq, affinity: affinity, hasAffinity: hasAffinity, resultCh: make(chan acquireOutcome[R], 1)}
	b.state.Store(int32(acqPending))
	return b
}

func (b *borrower[R]) isCancelled() bool {
	return acquireState(b.state.Load()) == acqCancelled
}

// tryCancel transitions PENDING->CANCELLED. Returns true if this call
// performed the transition (i.e. delivery/failure had not already won).
func (b *borrower[R]) tryCancel() bool {
	return b.state.CompareAndSwap(int32(acqPending), int32(acqCancelled))
}

// tryDeliver transitions PENDING->DELIVERED and publishes ref. Returns
// false if the borrower was already cancelled, in which case the caller
// owns ref and must auto-release it.
func (b *borrower[R]) tryDeliver(ref *PooledRef[R]) bool {
	if !b.state.CompareAndSwap(int32(acqPending), int32(acqDelivered)) {
		return false
	}
	b.resultCh <- acquireOutcome[R]{ref: ref}
	return true
}

// tryFail transitions PENDING->FAILED and publishes err. Returns false
// if the borrower was already cancelled.
func (b *borrower[R]) tryFail(err error) bool {
	if !b.state.CompareAndSwap(int32(acqPending), int32(acqFailed)) {
		return false
	}
	b.resultCh <- acquireOutcome[R]{err: err}
	return true
}
