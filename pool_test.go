package respool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResource struct {
	id int64
}

func countingAllocator(counter *int64) func(context.Context) (*fakeResource, error) {
	return func(context.Context) (*fakeResource, error) {
		id := atomic.AddInt64(counter, 1)
		return &fakeResource{id: id}, nil
	}
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	var allocated int64
	pool, err := New(Config[*fakeResource]{
		Allocator: countingAllocator(&allocated),
		Strategy:  NewBoundedStrategy(2),
	})
	require.NoError(t, err)
	defer pool.Dispose(context.Background())

	ctx := context.Background()
	ref, err := pool.Acquire(ctx).Await(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, ref.Resource().id)
	assert.EqualValues(t, 1, pool.Acquired())

	require.NoError(t, ref.Release(ctx))
	assert.EqualValues(t, 0, pool.Acquired())
	assert.Equal(t, 1, pool.Idle())

	ref2, err := pool.Acquire(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, ref.Resource().id, ref2.Resource().id, "second acquire should recycle the idle resource, not allocate")
	assert.EqualValues(t, 1, allocated)
}

func TestBoundedStrategyContention(t *testing.T) {
	var allocated int64
	pool, err := New(Config[*fakeResource]{
		Allocator:  countingAllocator(&allocated),
		Strategy:   NewBoundedStrategy(1),
		MaxPending: -1,
	})
	require.NoError(t, err)
	defer pool.Dispose(context.Background())

	ctx := context.Background()
	ref1, err := pool.Acquire(ctx).Await(ctx)
	require.NoError(t, err)

	acq2 := pool.Acquire(ctx)
	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = acq2.Await(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "second acquire must block while the only permit is held")

	acq3 := pool.Acquire(ctx)
	go func() {
		time.Sleep(5 * time.Millisecond)
		require.NoError(t, ref1.Release(ctx))
	}()
	longCtx, cancel2 := context.WithTimeout(ctx, time.Second)
	defer cancel2()
	ref3, err := acq3.Await(longCtx)
	require.NoError(t, err)
	assert.NotNil(t, ref3)
	assert.EqualValues(t, 1, allocated)
}

func TestUnboundedStrategyPoolConcurrentAcquire(t *testing.T) {
	var allocated int64
	pool, err := New(Config[*fakeResource]{
		Allocator: countingAllocator(&allocated),
		Strategy:  NewUnboundedStrategy(),
	})
	require.NoError(t, err)
	defer pool.Dispose(context.Background())

	ctx := context.Background()
	const n = 20
	refs := make([]*PooledRef[*fakeResource], n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			ref, err := pool.Acquire(ctx).Await(ctx)
			require.NoError(t, err)
			refs[i] = ref
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, n, allocated)
	assert.EqualValues(t, n, pool.Acquired())

	for _, ref := range refs {
		require.NoError(t, ref.Release(ctx))
	}
	assert.EqualValues(t, 0, pool.Acquired())
	assert.Equal(t, n, pool.Idle())
}

func TestAcquireCancellationMidFlight(t *testing.T) {
	var allocated int64
	blockAlloc := make(chan struct{})
	pool, err := New(Config[*fakeResource]{
		Allocator: func(ctx context.Context) (*fakeResource, error) {
			<-blockAlloc
			id := atomic.AddInt64(&allocated, 1)
			return &fakeResource{id: id}, nil
		},
		Strategy: NewBoundedStrategy(1),
	})
	require.NoError(t, err)
	defer pool.Dispose(context.Background())

	ctx := context.Background()
	acquireCtx, cancel := context.WithCancel(ctx)
	acq := pool.Acquire(acquireCtx)

	done := make(chan struct{})
	var awaitErr error
	go func() {
		_, awaitErr = acq.Await(acquireCtx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()
	<-done
	assert.ErrorIs(t, awaitErr, context.Canceled)

	close(blockAlloc)
	time.Sleep(10 * time.Millisecond)

	assert.EqualValues(t, 0, pool.Acquired(), "the resource delivered after cancellation must be auto-released")
}

func TestFailFastWhenDisposed(t *testing.T) {
	var allocated int64
	pool, err := New(Config[*fakeResource]{
		Allocator: countingAllocator(&allocated),
	})
	require.NoError(t, err)

	pool.Dispose(context.Background())
	assert.True(t, pool.IsDisposed())

	ctx := context.Background()
	_, err = pool.Acquire(ctx).Await(ctx)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindShutdown))
}

func TestPendingLimitFailsFast(t *testing.T) {
	var allocated int64
	block := make(chan struct{})
	pool, err := New(Config[*fakeResource]{
		Allocator: func(ctx context.Context) (*fakeResource, error) {
			<-block
			return &fakeResource{id: atomic.AddInt64(&allocated, 1)}, nil
		},
		Strategy:   NewBoundedStrategy(1),
		MaxPending: 0,
	})
	require.NoError(t, err)
	defer func() {
		close(block)
		pool.Dispose(context.Background())
	}()

	ctx := context.Background()
	first := pool.Acquire(ctx)
	go first.Await(ctx) //nolint:errcheck

	time.Sleep(5 * time.Millisecond)
	_, err = pool.Acquire(ctx).Await(ctx)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindPendingLimit))
}

func TestReleaseHandlerErrorEvicts(t *testing.T) {
	var allocated, destroyed int64
	releaseErr := errors.New("reset failed")
	pool, err := New(Config[*fakeResource]{
		Allocator: countingAllocator(&allocated),
		ReleaseHandler: func(context.Context, *fakeResource) error {
			return releaseErr
		},
		DestroyHandler: func(context.Context, *fakeResource) {
			atomic.AddInt64(&destroyed, 1)
		},
	})
	require.NoError(t, err)
	defer pool.Dispose(context.Background())

	ctx := context.Background()
	ref, err := pool.Acquire(ctx).Await(ctx)
	require.NoError(t, err)

	err = ref.Release(ctx)
	assert.ErrorIs(t, err, releaseErr)

	time.Sleep(5 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt64(&destroyed))
	assert.Equal(t, 0, pool.Idle())
}

func TestEvictionPredicateOnRelease(t *testing.T) {
	var allocated, destroyed int64
	pool, err := New(Config[*fakeResource]{
		Allocator: countingAllocator(&allocated),
		DestroyHandler: func(context.Context, *fakeResource) {
			atomic.AddInt64(&destroyed, 1)
		},
		EvictionPredicate: func(r *fakeResource, meta Metadata) bool {
			return true
		},
	})
	require.NoError(t, err)
	defer pool.Dispose(context.Background())

	ctx := context.Background()
	ref, err := pool.Acquire(ctx).Await(ctx)
	require.NoError(t, err)
	require.NoError(t, ref.Release(ctx))

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 0, pool.Idle(), "a resource the predicate always condemns must never reach the idle store")
	assert.EqualValues(t, 1, atomic.LoadInt64(&destroyed))

	_, err = pool.Acquire(ctx).Await(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(&allocated), "nothing was recyclable, so the second acquire must allocate fresh")
}

func TestEvictionPredicateOnHandoff(t *testing.T) {
	var allocated, destroyed int64
	evictNext := make(chan struct{}, 1)
	pool, err := New(Config[*fakeResource]{
		Allocator: countingAllocator(&allocated),
		DestroyHandler: func(context.Context, *fakeResource) {
			atomic.AddInt64(&destroyed, 1)
		},
		EvictionPredicate: func(r *fakeResource, meta Metadata) bool {
			select {
			case <-evictNext:
				return true
			default:
				return false
			}
		},
	})
	require.NoError(t, err)
	defer pool.Dispose(context.Background())

	ctx := context.Background()
	ref, err := pool.Acquire(ctx).Await(ctx)
	require.NoError(t, err)
	require.NoError(t, ref.Release(ctx))
	assert.Equal(t, 1, pool.Idle(), "first release with a false predicate recycles to idle")

	evictNext <- struct{}{}
	ref2, err := pool.Acquire(ctx).Await(ctx)
	require.NoError(t, err)
	require.NoError(t, ref2.Release(ctx))

	time.Sleep(5 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt64(&destroyed), "the idle resource condemned at handoff time must be destroyed, not delivered")
	assert.EqualValues(t, 2, atomic.LoadInt64(&allocated), "the condemned idle slot forces a fresh allocation for the waiting borrower")
}

func TestThreadAffinityFastPath(t *testing.T) {
	var allocated int64
	pool, err := New(Config[*fakeResource]{
		Allocator:      countingAllocator(&allocated),
		Strategy:       NewBoundedStrategy(2),
		ThreadAffinity: true,
	})
	require.NoError(t, err)
	defer pool.Dispose(context.Background())

	ctx := context.Background()
	refA, err := pool.Acquire(ctx).Await(ctx)
	require.NoError(t, err)
	refB, err := pool.Acquire(ctx).Await(ctx)
	require.NoError(t, err)

	require.NoError(t, refA.Release(WithAffinity(ctx, "worker-a")))
	require.NoError(t, refB.Release(WithAffinity(ctx, "worker-b")))

	acqA := pool.Acquire(WithAffinity(ctx, "worker-a"))
	gotA, err := acqA.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, refA.Resource().id, gotA.Resource().id, "affinity-tagged release should be preferentially matched to the same key")
}

func TestThreadAffinityLateArrivalJumpsQueue(t *testing.T) {
	var allocated int64
	pool, err := New(Config[*fakeResource]{
		Allocator:      countingAllocator(&allocated),
		Strategy:       NewBoundedStrategy(1),
		MaxPending:     -1,
		ThreadAffinity: true,
	})
	require.NoError(t, err)
	defer pool.Dispose(context.Background())

	ctx := context.Background()
	ref1, err := pool.Acquire(ctx).Await(ctx)
	require.NoError(t, err)

	type result struct {
		ref *PooledRef[*fakeResource]
		err error
	}

	// K' has no affinity and subscribes first, so it sits at the head of
	// the pending queue.
	kPrimeCh := make(chan result, 1)
	acqKPrime := pool.Acquire(ctx)
	go func() {
		ref, err := acqKPrime.Await(context.Background())
		kPrimeCh <- result{ref, err}
	}()
	time.Sleep(5 * time.Millisecond)

	// K arrives later, behind K', but requests the key that is about to
	// be released.
	kCh := make(chan result, 1)
	acqK := pool.Acquire(WithAffinity(ctx, "worker-k"))
	go func() {
		ref, err := acqK.Await(context.Background())
		kCh <- result{ref, err}
	}()
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, ref1.Release(WithAffinity(ctx, "worker-k")))

	select {
	case r := <-kCh:
		require.NoError(t, r.err)
		assert.Equal(t, ref1.Resource().id, r.ref.Resource().id, "the K-tagged idle slot must jump to the matching late-arriving borrower, not the earlier-queued K'")
	case <-time.After(time.Second):
		t.Fatal("affinity-tagged borrower was never served")
	}

	select {
	case r := <-kPrimeCh:
		t.Fatalf("K' should still be waiting, its match was stolen by K, but it was served %+v", r)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestInvalidateDestroysWithoutRecycle(t *testing.T) {
	var allocated, destroyed int64
	pool, err := New(Config[*fakeResource]{
		Allocator: countingAllocator(&allocated),
		DestroyHandler: func(context.Context, *fakeResource) {
			atomic.AddInt64(&destroyed, 1)
		},
	})
	require.NoError(t, err)
	defer pool.Dispose(context.Background())

	ctx := context.Background()
	ref, err := pool.Acquire(ctx).Await(ctx)
	require.NoError(t, err)
	require.NoError(t, ref.Invalidate(ctx))

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 0, pool.Idle())
	assert.EqualValues(t, 1, atomic.LoadInt64(&destroyed))
}

func TestDoubleReleaseIsNoop(t *testing.T) {
	var allocated int64
	pool, err := New(Config[*fakeResource]{Allocator: countingAllocator(&allocated)})
	require.NoError(t, err)
	defer pool.Dispose(context.Background())

	ctx := context.Background()
	ref, err := pool.Acquire(ctx).Await(ctx)
	require.NoError(t, err)

	require.NoError(t, ref.Release(ctx))
	require.NoError(t, ref.Release(ctx))
	assert.Equal(t, 1, pool.Idle())
}

func TestInitialSizePreallocates(t *testing.T) {
	var allocated int64
	pool, err := New(Config[*fakeResource]{
		Allocator:   countingAllocator(&allocated),
		Strategy:    NewBoundedStrategy(4),
		InitialSize: 3,
	})
	require.NoError(t, err)
	defer pool.Dispose(context.Background())

	assert.EqualValues(t, 3, allocated)
	assert.Equal(t, 3, pool.Idle())
	assert.EqualValues(t, 3, pool.Live())
}
