package respool

import "github.com/ajitpratap0/respool/pkg/poolerr"

// Error kinds a caller can branch on via errors.As into *poolerr.Error,
// or test with poolerr.IsKind. Re-exported here so callers that only
// import respool don't need a second import for common checks.
const (
	KindPendingLimit = poolerr.KindPendingLimit
	KindShutdown     = poolerr.KindShutdown
	KindAllocation   = poolerr.KindAllocation
	KindRelease      = poolerr.KindRelease
	KindDestroy      = poolerr.KindDestroy
	KindInvalidState = poolerr.KindInvalidState
)

// IsRetryable reports whether a failed acquisition might succeed on a
// later attempt (true only for allocator failures).
func IsRetryable(err error) bool { return poolerr.IsRetryable(err) }

// IsKind reports whether err is a pool error of the given kind.
func IsKind(err error, kind poolerr.Kind) bool { return poolerr.IsKind(err, kind) }
