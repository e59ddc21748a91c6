// Package httpconnpool adapts per-host HTTP transport settings into the
// allocator/release/destroy/eviction set a respool.Pool needs. One
// respool.Pool[*Conn] per host replaces the map-of-host-to-idle-slice
// bookkeeping an HTTP client pool traditionally hand-rolls: respool's
// idle store and drain loop already do that job generically.
package httpconnpool

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/respool"
	"github.com/ajitpratap0/respool/pkg/poollog"
)

// Config controls the transport built for every connection this
// adapter allocates, mirroring the tunables a hand-rolled HTTP
// connection pool would expose per host.
type Config struct {
	Host                string
	DialTimeout         time.Duration
	TLSHandshakeTimeout time.Duration
	MaxIdleTime         time.Duration
	MaxLifetime         time.Duration
}

// Conn bundles an *http.Client dedicated to Config.Host with the
// *http.Transport backing it, so DestroyHandler can close idle
// connections the transport is still holding at the OS level.
type Conn struct {
	Host      string
	Client    *http.Client
	Transport *http.Transport
}

// NewAllocator returns an allocator building one Conn per call, each
// with its own transport so idle-connection accounting belongs to
// respool instead of a shared http.DefaultTransport.
func NewAllocator(cfg Config) func(context.Context) (*Conn, error) {
	return func(ctx context.Context) (*Conn, error) {
		dialer := &net.Dialer{Timeout: cfg.DialTimeout}
		transport := &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
			MaxIdleConnsPerHost: 1,
		}
		conn := &Conn{
			Host:      cfg.Host,
			Transport: transport,
			Client:    &http.Client{Transport: transport},
		}
		poollog.Debug("dialed http connection", zap.String("host", cfg.Host))
		return conn, nil
	}
}

// ReleaseHandler is a no-op check: http.Client connections are
// validated lazily by the transport on next use, there is no cheap
// synchronous health probe worth the round trip on every release.
func ReleaseHandler(context.Context, *Conn) error { return nil }

// DestroyHandler closes any connections the transport is still holding
// idle at the OS level.
func DestroyHandler(_ context.Context, c *Conn) {
	c.Transport.CloseIdleConnections()
}

// EvictionPredicate evicts connections idle longer than cfg.MaxIdleTime
// or older than cfg.MaxLifetime, the same two bounds a hand-rolled
// per-host cleanup loop would enforce, now evaluated inline by respool
// instead of a background ticker.
func EvictionPredicate(cfg Config) func(*Conn, respool.Metadata) bool {
	return func(_ *Conn, meta respool.Metadata) bool {
		if cfg.MaxIdleTime > 0 && meta.IdleTime() > cfg.MaxIdleTime {
			return true
		}
		if cfg.MaxLifetime > 0 && meta.LifeTime() > cfg.MaxLifetime {
			return true
		}
		return false
	}
}
