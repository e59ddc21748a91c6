package respool

import "sync"

// idleStore holds released resources waiting to be recycled to the next
// borrower instead of destroyed, ordered FIFO or LIFO to match the
// pending queue's discipline.
type idleStore[R any] struct {
	mu       sync.Mutex
	items    []*PooledRef[R]
	ordering Ordering
}

func newIdleStore[R any](ordering Ordering) *idleStore[R] {
	return &idleStore[R]{ordering: ordering}
}

func (s *idleStore[R]) Offer(ref *PooledRef[R]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, ref)
}

func (s *idleStore[R]) Poll() *PooledRef[R] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return nil
	}
	if s.ordering == LIFO {
		n := len(s.items) - 1
		r := s.items[n]
		s.items = s.items[:n]
		return r
	}
	r := s.items[0]
	s.items = s.items[1:]
	return r
}

// PollAffinity scans for an idle resource last released with the given
// affinity key and removes it out of band, without disturbing the
// configured order of the rest of the store.
func (s *idleStore[R]) PollAffinity(key string) *PooledRef[R] {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ref := range s.items {
		if ref.hasReleaseAffinity && ref.releaseAffinity == key {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return ref
		}
	}
	return nil
}

// AffinityKeysInOrder returns the affinity key of every tagged idle slot,
// in configured consumption order, without removing them, so the caller
// can probe the pending queue for a waiting match before committing to one.
func (s *idleStore[R]) AffinityKeysInOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.items))
	if s.ordering == LIFO {
		for i := len(s.items) - 1; i >= 0; i-- {
			if ref := s.items[i]; ref.hasReleaseAffinity {
				keys = append(keys, ref.releaseAffinity)
			}
		}
		return keys
	}
	for _, ref := range s.items {
		if ref.hasReleaseAffinity {
			keys = append(keys, ref.releaseAffinity)
		}
	}
	return keys
}

func (s *idleStore[R]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// DrainAll empties the store and returns everything it held, used at
// shutdown to synchronously destroy every idle resource.
func (s *idleStore[R]) DrainAll() []*PooledRef[R] {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items
	s.items = nil
	return items
}
