package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type entry struct {
	data    []byte
	expires time.Time
}

// Store is the in-process fallback result cache, used when Redis is not
// configured or unreachable. Entries hold JSON copies of results so callers
// never share memory with the cache, and expire lazily on read.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	var expires time.Time
	if ttl > 0 {
		expires = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry{data: data, expires: expires}
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return false, nil
	}

	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return true, nil
}

func (s *Store) Invalidate(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}
