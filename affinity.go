package respool

import "context"

type affinityKeyType struct{}

// WithAffinity attaches an affinity key to ctx. Pass the returned context
// to Release so the drain loop's fast path can prefer handing this
// resource back to a borrower requesting the same key, rather than an
// arbitrary waiter — Go goroutines have no stable OS-thread identity to
// key off of the way the pool this was modeled on does, so the caller
// supplies the affinity key explicitly.
func WithAffinity(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, affinityKeyType{}, key)
}

// AffinityFromContext returns the affinity key attached by WithAffinity,
// if any.
func AffinityFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(affinityKeyType{}).(string)
	return key, ok
}
