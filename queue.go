package respool

import "sync"

// Ordering selects FIFO or LIFO consumption order for both the pending
// queue and the idle store.
type Ordering int

const (
	FIFO Ordering = iota
	LIFO
)

// pendingQueue holds borrowers waiting for a resource. Terminate swaps it
// into a permanently-terminated state in one step, the same "swap for a
// sentinel" pattern the drain loop uses elsewhere for shutdown.
type pendingQueue[R any] struct {
	mu         sync.Mutex
	items      []*borrower[R]
	ordering   Ordering
	terminated bool
}

func newPendingQueue[R any](ordering Ordering) *pendingQueue[R] {
	return &pendingQueue[R]{ordering: ordering}
}

// Offer enqueues b. Returns false if the queue has been terminated.
func (q *pendingQueue[R]) Offer(b *borrower[R]) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.terminated {
		return false
	}
	q.items = append(q.items, b)
	return true
}

// Poll removes and returns the next borrower in configured order, or nil
// if the queue is empty.
func (q *pendingQueue[R]) Poll() *borrower[R] {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	if q.ordering == LIFO {
		n := len(q.items) - 1
		b := q.items[n]
		q.items = q.items[:n]
		return b
	}
	b := q.items[0]
	q.items = q.items[1:]
	return b
}

// Requeue puts b back at the head of the queue (the end Poll takes from
// next, for either ordering), used when the drain loop pulls a borrower
// to pair with an idle resource that turns out to need eviction instead:
// the borrower did nothing wrong and shouldn't lose its place.
func (q *pendingQueue[R]) Requeue(b *borrower[R]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ordering == LIFO {
		q.items = append(q.items, b)
		return
	}
	q.items = append([]*borrower[R]{b}, q.items...)
}

// PollAffinity removes and returns the most recently enqueued borrower
// requesting the given affinity key (each key's waiters are served
// LIFO), wherever it sits in the queue, so a late-arriving same-key
// borrower can be matched to a freshly idled resource ahead of earlier,
// differently-keyed borrowers still waiting.
func (q *pendingQueue[R]) PollAffinity(key string) *borrower[R] {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(q.items) - 1; i >= 0; i-- {
		if b := q.items[i]; b.hasAffinity && b.affinity == key {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return b
		}
	}
	return nil
}

func (q *pendingQueue[R]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Terminate marks the queue permanently closed and returns every borrower
// still waiting, for the caller to fail. A second call is a no-op
// returning nil.
func (q *pendingQueue[R]) Terminate() []*borrower[R] {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.terminated {
		return nil
	}
	q.terminated = true
	drained := q.items
	q.items = nil
	return drained
}

func (q *pendingQueue[R]) IsTerminated() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.terminated
}
