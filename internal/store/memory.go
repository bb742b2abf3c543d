package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Used as the default backend and in
// tests. MaxBytes, when positive, caps the total stored size so quota
// behavior can be exercised.
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string]string
	MaxBytes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MaxBytes > 0 {
		total := len(value)
		for k, v := range s.data {
			if k == key {
				continue
			}
			total += len(v)
		}
		if total > s.MaxBytes {
			return ErrQuotaExceeded
		}
	}
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
