package cache

import (
	"context"
	"time"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
)

// InMemorySessionStore keeps encoded session payloads in process memory
type InMemorySessionStore struct {
	m *ttlMap
}

// NewInMemorySessionStore creates a store and starts its eviction loop
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{m: newTTLMap()}
}

// Load returns the payload for id or shared.ErrNotFound
func (s *InMemorySessionStore) Load(_ context.Context, id string) ([]byte, error) {
	data, ok := s.m.get(id)
	if !ok {
		return nil, shared.ErrNotFound.WithMessage("session not found")
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Save stores a copy of data under id for ttl
func (s *InMemorySessionStore) Save(_ context.Context, id string, data []byte, ttl time.Duration) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	s.m.set(id, buf, ttl)
	return nil
}

// Delete removes id; deleting a missing session is not an error
func (s *InMemorySessionStore) Delete(_ context.Context, id string) error {
	s.m.delete(id)
	return nil
}

// Close stops the eviction loop
func (s *InMemorySessionStore) Close() error {
	s.m.close()
	return nil
}

var _ shared.SessionStore = (*InMemorySessionStore)(nil)
