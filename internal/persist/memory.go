package persist

import (
	"context"
	"sync"
)

// MemoryStore is a map-backed Store. Nothing survives the process.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	err   error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Load returns a copy of the stored blob.
func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	blob, ok := s.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

// Save stores a copy of blob.
func (s *MemoryStore) Save(_ context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.blobs[key] = append([]byte(nil), blob...)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// FailWith makes every subsequent Load and Save return err. Nil restores
// normal behavior.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
