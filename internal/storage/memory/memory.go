// Package memory provides an in-process storage.KV.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artpar/postbox/internal/storage"
)

// Store is a map-backed storage.KV with a byte quota.
type Store struct {
	mu     sync.RWMutex
	items  map[string]string
	used   int
	quota  int
	closed bool
}

// New creates an empty store holding at most quota bytes. A quota of zero or
// less selects storage.DefaultQuota.
func New(quota int) *Store {
	if quota <= 0 {
		quota = storage.DefaultQuota
	}
	return &Store{
		items: make(map[string]string),
		quota: quota,
	}
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", storage.ErrStoreClosed
	}
	value, ok := s.items[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

// Set stores value under key if it fits in the quota.
func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStoreClosed
	}

	used := s.used
	if old, ok := s.items[key]; ok {
		used -= len(key) + len(old)
	}
	used += len(key) + len(value)
	if used > s.quota {
		return storage.ErrQuotaExceeded
	}

	s.items[key] = value
	s.used = used
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStoreClosed
	}
	if old, ok := s.items[key]; ok {
		s.used -= len(key) + len(old)
		delete(s.items, key)
	}
	return nil
}

// List returns all items ordered by key.
func (s *Store) List(ctx context.Context) ([]storage.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrStoreClosed
	}
	items := make([]storage.Item, 0, len(s.items))
	for k, v := range s.items {
		items = append(items, storage.Item{Key: k, Value: v})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Key < items[j].Key
	})
	return items, nil
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Used returns the bytes currently counted against the quota.
func (s *Store) Used() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}
