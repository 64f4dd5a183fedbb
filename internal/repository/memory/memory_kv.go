// internal/repository/memory/memory_kv.go
package memory

import (
	"context"
	"sync"

	"securebank/internal/repository"
	"securebank/internal/util"
)

// KVStore is an in-process repository.KVStore. It is the default for
// tests and for ephemeral runs where nothing has to survive a restart.
type KVStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var (
	_ repository.KVStore     = (*KVStore)(nil)
	_ repository.BatchWriter = (*KVStore)(nil)
)

// NewKVStore creates an empty in-memory store.
func NewKVStore() *KVStore {
	return &KVStore{data: make(map[string][]byte)}
}

func (s *KVStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, util.ErrNotFound
	}
	return clone(v), nil
}

func (s *KVStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = clone(value)
	return nil
}

func (s *KVStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// WriteBatch applies all sets and deletes under a single lock.
func (s *KVStore) WriteBatch(_ context.Context, sets map[string][]byte, deletes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range sets {
		s.data[k] = clone(v)
	}
	for _, k := range deletes {
		delete(s.data, k)
	}
	return nil
}

// Keys returns the stored keys; used by tests.
func (s *KVStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
