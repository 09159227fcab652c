// Package storage persists application data in a capacity-limited
// key-value store.
package storage

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrNotFound      = errors.New("key not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrStoreClosed   = errors.New("storage is closed")
)

// DefaultQuota is the capacity assumed for a store, in bytes.
const DefaultQuota = 5 * 1024 * 1024

// Item is a stored key and its value.
type Item struct {
	Key   string
	Value string
}

// Size is the number of bytes the item counts against the quota.
func (i Item) Size() int {
	return len(i.Key) + len(i.Value)
}

// KV is a string key-value store with a total capacity. A Set that would push
// the summed size of all items over capacity fails with ErrQuotaExceeded and
// leaves the store unchanged.
type KV interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every stored item ordered by key.
	List(ctx context.Context) ([]Item, error)

	// Close releases resources. Further calls return ErrStoreClosed.
	Close() error
}
