// Package pgxpool adapts a PostgreSQL connection string into the
// allocator/release/destroy/eviction set a respool.Pool needs, using
// pgx's own config parsing but handing resulting connections to respool
// instead of pgx's built-in pool.
package pgxpool

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	pgxp "github.com/jackc/pgx/v5/pgxpool"

	"github.com/ajitpratap0/respool"
	"github.com/ajitpratap0/respool/pkg/poolerr"
)

// Config mirrors the subset of pgxpool.Config this adapter exercises:
// a connection string plus the idle-lifetime policy respool's eviction
// predicate enforces in place of pgxpool's own background reaper.
type Config struct {
	ConnString  string
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// NewAllocator parses cfg.ConnString with pgx's own config parser (so
// connection-string edge cases, TLS options, and search_path parameters
// are handled exactly as pgxpool itself handles them) and returns an
// allocator dialing one *pgx.Conn per call.
func NewAllocator(cfg Config) (func(context.Context) (*pgx.Conn, error), error) {
	parsed, err := pgxp.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, poolerr.Wrap(err, poolerr.KindInvalidState, "invalid postgres connection string")
	}
	connConfig := parsed.ConnConfig
	return func(ctx context.Context) (*pgx.Conn, error) {
		conn, err := pgx.ConnectConfig(ctx, connConfig)
		if err != nil {
			return nil, poolerr.Wrap(err, poolerr.KindAllocation, "postgres dial failed")
		}
		return conn, nil
	}, nil
}

// ReleaseHandler pings the connection before it re-enters the idle
// store; a failed ping evicts the connection instead of recycling it.
func ReleaseHandler(ctx context.Context, conn *pgx.Conn) error {
	if err := conn.Ping(ctx); err != nil {
		return poolerr.Wrap(err, poolerr.KindRelease, "postgres ping failed")
	}
	return nil
}

// DestroyHandler closes the underlying connection. Errors are
// intentionally not returned: respool swallows destroy failures, the
// connection is going away regardless.
func DestroyHandler(ctx context.Context, conn *pgx.Conn) {
	_ = conn.Close(ctx)
}

// EvictionPredicate evicts connections that have been idle longer than
// maxIdleTime or alive longer than maxLifetime, whichever cfg supplies.
// Either bound may be zero to disable it.
func EvictionPredicate(cfg Config) func(*pgx.Conn, respool.Metadata) bool {
	return func(_ *pgx.Conn, meta respool.Metadata) bool {
		if cfg.MaxIdleTime > 0 && meta.IdleTime() > cfg.MaxIdleTime {
			return true
		}
		if cfg.MaxLifetime > 0 && meta.LifeTime() > cfg.MaxLifetime {
			return true
		}
		return false
	}
}
