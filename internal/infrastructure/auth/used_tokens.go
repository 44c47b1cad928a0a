package auth

import (
	"context"
	"time"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
)

const usedTokenKeyPrefix = "token:used:"

// UsedTokens records the IDs of spent single-use tokens until they would
// have expired anyway.
type UsedTokens struct {
	store shared.IdempotencyStore
	now   func() time.Time
}

// NewUsedTokens creates a tracker over store
func NewUsedTokens(store shared.IdempotencyStore) *UsedTokens {
	return &UsedTokens{store: store, now: time.Now}
}

// Spend marks claims as used. It returns ErrTokenUsed if they were spent before.
func (u *UsedTokens) Spend(ctx context.Context, claims *EmailClaims) error {
	ttl := claims.RemainingTTL(u.now())
	if ttl <= 0 {
		return shared.ErrTokenExpired
	}
	fresh, err := u.store.MarkProcessed(ctx, usedTokenKeyPrefix+claims.ID, ttl)
	if err != nil {
		return err
	}
	if !fresh {
		return ErrTokenUsed
	}
	return nil
}

// Restore makes spent claims usable again
func (u *UsedTokens) Restore(ctx context.Context, claims *EmailClaims) error {
	return u.store.Unmark(ctx, usedTokenKeyPrefix+claims.ID)
}

// IsSpent reports whether claims were already used
func (u *UsedTokens) IsSpent(ctx context.Context, claims *EmailClaims) (bool, error) {
	return u.store.IsProcessed(ctx, usedTokenKeyPrefix+claims.ID)
}
