package sessionlock

import "context"

// Select picks the driver serving the given session: the highest-priority
// candidate whose Supports predicate returns true. Ties are broken by
// position in the candidates slice, so callers that need deterministic
// dispatch (they all should) must pass drivers in a fixed order.
//
// It returns nil when no candidate supports the session; the caller then
// falls back to its table-based lock service.
func Select(ctx context.Context, sess Session, candidates ...Driver) Driver {
	var best Driver
	for _, d := range candidates {
		if d == nil || !d.Supports(ctx, sess) {
			continue
		}
		if best == nil || d.Priority() > best.Priority() {
			best = d
		}
	}
	return best
}
