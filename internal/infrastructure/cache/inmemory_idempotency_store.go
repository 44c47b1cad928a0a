package cache

import (
	"context"
	"time"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
)

// InMemoryIdempotencyStore remembers processed keys (webhook event IDs,
// spent reset tokens) in process memory. State is lost on restart and is
// not shared between instances.
type InMemoryIdempotencyStore struct {
	m *ttlMap
}

// NewInMemoryIdempotencyStore creates a store and starts its eviction loop
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{m: newTTLMap()}
}

// MarkProcessed returns true if key was newly marked, false if it was seen before
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	return s.m.setNX(key, nil, ttl), nil
}

// IsProcessed reports whether key is marked and not yet expired
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	_, ok := s.m.get(key)
	return ok, nil
}

// Unmark removes key
func (s *InMemoryIdempotencyStore) Unmark(_ context.Context, key string) error {
	s.m.delete(key)
	return nil
}

// Close stops the eviction loop. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.m.close()
	return nil
}

// Size returns the number of entries, expired ones included until evicted
func (s *InMemoryIdempotencyStore) Size() int {
	return s.m.size()
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
