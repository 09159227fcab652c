// Package storagetest provides a contract suite for storage.KV backends.
package storagetest

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/postbox/internal/storage"
)

// Factory creates a backend holding at most quota bytes, plus a cleanup func.
type Factory func(t *testing.T, quota int) (storage.KV, func())

// RunKVTests runs the standard KV test suite against any backend.
func RunKVTests(t *testing.T, newKV Factory) {
	t.Run("GetSet", func(t *testing.T) {
		runGetSetTests(t, newKV)
	})
	t.Run("Delete", func(t *testing.T) {
		runDeleteTests(t, newKV)
	})
	t.Run("List", func(t *testing.T) {
		runListTests(t, newKV)
	})
	t.Run("Quota", func(t *testing.T) {
		runQuotaTests(t, newKV)
	})
	t.Run("Close", func(t *testing.T) {
		runCloseTests(t, newKV)
	})
	t.Run("Concurrent", func(t *testing.T) {
		runConcurrentTests(t, newKV)
	})
}

func runGetSetTests(t *testing.T, newKV Factory) {
	ctx := context.Background()

	t.Run("returns stored value", func(t *testing.T) {
		kv, cleanup := newKV(t, 0)
		defer cleanup()

		require.NoError(t, kv.Set(ctx, "a", `{"x":1}`))

		value, err := kv.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, `{"x":1}`, value)
	})

	t.Run("overwrites value", func(t *testing.T) {
		kv, cleanup := newKV(t, 0)
		defer cleanup()

		require.NoError(t, kv.Set(ctx, "a", "1"))
		require.NoError(t, kv.Set(ctx, "a", "2"))

		value, err := kv.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "2", value)
	})

	t.Run("missing key", func(t *testing.T) {
		kv, cleanup := newKV(t, 0)
		defer cleanup()

		_, err := kv.Get(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("stores empty and unicode values", func(t *testing.T) {
		kv, cleanup := newKV(t, 0)
		defer cleanup()

		require.NoError(t, kv.Set(ctx, "empty", ""))
		require.NoError(t, kv.Set(ctx, "uni", "héllo ✓"))

		value, err := kv.Get(ctx, "empty")
		require.NoError(t, err)
		assert.Equal(t, "", value)

		value, err = kv.Get(ctx, "uni")
		require.NoError(t, err)
		assert.Equal(t, "héllo ✓", value)
	})
}

func runDeleteTests(t *testing.T, newKV Factory) {
	ctx := context.Background()

	t.Run("removes key", func(t *testing.T) {
		kv, cleanup := newKV(t, 0)
		defer cleanup()

		require.NoError(t, kv.Set(ctx, "a", "1"))
		require.NoError(t, kv.Delete(ctx, "a"))

		_, err := kv.Get(ctx, "a")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("missing key is not an error", func(t *testing.T) {
		kv, cleanup := newKV(t, 0)
		defer cleanup()

		assert.NoError(t, kv.Delete(ctx, "missing"))
	})
}

func runListTests(t *testing.T, newKV Factory) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		kv, cleanup := newKV(t, 0)
		defer cleanup()

		items, err := kv.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("ordered by key", func(t *testing.T) {
		kv, cleanup := newKV(t, 0)
		defer cleanup()

		require.NoError(t, kv.Set(ctx, "b", "2"))
		require.NoError(t, kv.Set(ctx, "a", "1"))

		items, err := kv.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []storage.Item{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}, items)
	})
}

func runQuotaTests(t *testing.T, newKV Factory) {
	ctx := context.Background()

	t.Run("rejects write over quota", func(t *testing.T) {
		kv, cleanup := newKV(t, 10)
		defer cleanup()

		err := kv.Set(ctx, "key", strings.Repeat("x", 8))
		assert.ErrorIs(t, err, storage.ErrQuotaExceeded)

		_, err = kv.Get(ctx, "key")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("counts keys and values of all items", func(t *testing.T) {
		kv, cleanup := newKV(t, 10)
		defer cleanup()

		require.NoError(t, kv.Set(ctx, "a", "1234"))
		require.NoError(t, kv.Set(ctx, "b", "1234"))

		assert.ErrorIs(t, kv.Set(ctx, "c", "1"), storage.ErrQuotaExceeded)
	})

	t.Run("replacing a value frees its old size", func(t *testing.T) {
		kv, cleanup := newKV(t, 10)
		defer cleanup()

		require.NoError(t, kv.Set(ctx, "a", "123456789"))
		require.NoError(t, kv.Set(ctx, "a", "987654321"))

		value, err := kv.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "987654321", value)
	})

	t.Run("failed write keeps old value", func(t *testing.T) {
		kv, cleanup := newKV(t, 10)
		defer cleanup()

		require.NoError(t, kv.Set(ctx, "a", "1"))
		assert.ErrorIs(t, kv.Set(ctx, "a", strings.Repeat("x", 20)), storage.ErrQuotaExceeded)

		value, err := kv.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "1", value)
	})

	t.Run("delete frees space", func(t *testing.T) {
		kv, cleanup := newKV(t, 10)
		defer cleanup()

		require.NoError(t, kv.Set(ctx, "a", "12345678"))
		require.NoError(t, kv.Delete(ctx, "a"))
		assert.NoError(t, kv.Set(ctx, "b", "12345678"))
	})
}

func runCloseTests(t *testing.T, newKV Factory) {
	ctx := context.Background()

	t.Run("operations fail after close", func(t *testing.T) {
		kv, cleanup := newKV(t, 0)
		defer cleanup()

		require.NoError(t, kv.Close())

		_, err := kv.Get(ctx, "a")
		assert.ErrorIs(t, err, storage.ErrStoreClosed)
		assert.ErrorIs(t, kv.Set(ctx, "a", "1"), storage.ErrStoreClosed)
		assert.ErrorIs(t, kv.Delete(ctx, "a"), storage.ErrStoreClosed)
		_, err = kv.List(ctx)
		assert.ErrorIs(t, err, storage.ErrStoreClosed)
	})
}

func runConcurrentTests(t *testing.T, newKV Factory) {
	ctx := context.Background()

	t.Run("handles concurrent writes", func(t *testing.T) {
		kv, cleanup := newKV(t, 0)
		defer cleanup()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					key := string(rune('a'+i)) + string(rune('a'+j))
					if err := kv.Set(ctx, key, "v"); err != nil {
						t.Errorf("set %s: %v", key, err)
					}
				}
			}(i)
		}
		wg.Wait()

		items, err := kv.List(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 100)
	})
}
