// Package memory provides an in-memory client store used by tests and by
// surfaces that do not require durability.
package memory

import (
	"context"
	"sync"

	"github.com/craftedmc/portal/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store is a mutex-guarded in-memory implementation of storage.Store.
type Store struct {
	mu         sync.Mutex
	kv         map[string]string
	dismissals map[string]int
	nextOrder  int
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		kv:         make(map[string]string),
		dismissals: make(map[string]int),
	}
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.kv[key]
	return value, ok, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kv, key)
	return nil
}

// AddDismissals records the given keys.
func (s *Store) AddDismissals(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, exists := s.dismissals[key]; exists {
			continue
		}
		s.dismissals[key] = s.nextOrder
		s.nextOrder++
	}
	return nil
}

// IsDismissed reports whether key has been acknowledged.
func (s *Store) IsDismissed(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dismissals[key]
	return ok, nil
}

// ListDismissals returns acknowledged keys in insertion order.
func (s *Store) ListDismissals(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byOrder := make(map[int]string, len(s.dismissals))
	for key, order := range s.dismissals {
		byOrder[order] = key
	}
	keys := make([]string, 0, len(byOrder))
	for i := 0; i < s.nextOrder; i++ {
		if key, ok := byOrder[i]; ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
