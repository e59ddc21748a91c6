// Package redispool adapts go-redis client options into the
// allocator/release/destroy set a respool.Pool needs, giving callers
// respool's drain-loop scheduling and metrics in place of go-redis's own
// built-in connection pool.
package redispool

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ajitpratap0/respool"
	"github.com/ajitpratap0/respool/pkg/poolerr"
)

// Config mirrors the redis.Options fields this adapter exercises.
type Config struct {
	Addr        string
	Password    string
	DB          int
	MaxIdleTime time.Duration
}

// NewAllocator returns an allocator dialing one *redis.Client per call,
// each backed by a single connection (PoolSize 1) since respool owns
// the pooling decision instead of go-redis.
func NewAllocator(cfg Config) func(context.Context) (*redis.Client, error) {
	return func(ctx context.Context) (*redis.Client, error) {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: 1,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, poolerr.Wrap(err, poolerr.KindAllocation, "redis dial failed")
		}
		return client, nil
	}
}

// ReleaseHandler pings the client before it re-enters the idle store; a
// failed ping evicts rather than recycles.
func ReleaseHandler(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return poolerr.Wrap(err, poolerr.KindRelease, "redis ping failed")
	}
	return nil
}

// DestroyHandler closes the client. Close errors are swallowed: respool
// discards the resource regardless of destroy outcome.
func DestroyHandler(_ context.Context, client *redis.Client) {
	_ = client.Close()
}

// EvictionPredicate evicts clients idle longer than cfg.MaxIdleTime. A
// zero MaxIdleTime disables idle-based eviction.
func EvictionPredicate(cfg Config) func(*redis.Client, respool.Metadata) bool {
	return func(_ *redis.Client, meta respool.Metadata) bool {
		return cfg.MaxIdleTime > 0 && meta.IdleTime() > cfg.MaxIdleTime
	}
}
