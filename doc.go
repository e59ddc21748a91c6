// Package respool provides a generic, non-blocking resource pool: a
// library that multiplexes a bounded set of expensive-to-create objects
// (database connections, network channels, large buffers) among many
// concurrent borrowers, with asynchronous allocation, asynchronous
// release/reset, opportunistic eviction, and FIFO/LIFO ordering.
//
// # Architecture
//
// The hard engineering lives in the acquire/release state machine and its
// drain loop: a lock-free coordination algorithm that pairs waiting
// borrowers with idle resources or triggers new allocations, respecting a
// permit budget, a pending-queue order, cancellation, and shutdown.
//
// # Quick start
//
//	cfg := respool.Config[*sql.Conn]{
//	    Allocator: func(ctx context.Context) (*sql.Conn, error) {
//	        return db.Conn(ctx)
//	    },
//	    Strategy: respool.NewBoundedStrategy(10),
//	}
//	pool, err := respool.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Dispose(context.Background())
//
//	ref, err := pool.Acquire(context.Background()).Await(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ref.Release(context.Background())
//	use(ref.Resource())
//
// # Key packages
//
//	respool          - the pool core: drain loop, acquire/release/dispose
//	pkg/poolconfig   - fluent builder and YAML tunable loading
//	pkg/poolmetrics  - Prometheus-backed MetricsRecorder
//	pkg/poollog      - structured logging for pool diagnostics
//	pkg/poolerr      - categorized, stack-carrying pool errors
//	pkg/ratelimit    - token-bucket admission control around an allocator
//	pkg/adapters/*   - allocator/reset/destroy triples for real backends
package respool
