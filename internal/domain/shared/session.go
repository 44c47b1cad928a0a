package shared

import (
	"context"
	"time"
)

// SessionStore keeps server-side session payloads keyed by session id.
// Payloads are opaque bytes; Load returns ErrNotFound for unknown or
// expired ids.
type SessionStore interface {
	Load(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, id string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Close() error
}
