package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that have already been consumed: Stripe
// webhook event ids and single-use password reset tokens.
type IdempotencyStore interface {
	// MarkProcessed records key for ttl. It returns false when the key was
	// already recorded.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether key has been recorded and not yet expired.
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Unmark forgets key, so work that failed after marking can be retried.
	Unmark(ctx context.Context, key string) error

	Close() error
}
