package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/postbox/internal/storage"
	"github.com/artpar/postbox/internal/storage/storagetest"
)

// TestSQLiteStore runs the standard KV suite against SQLite.
func TestSQLiteStore(t *testing.T) {
	storagetest.RunKVTests(t, func(t *testing.T, quota int) (storage.KV, func()) {
		store, err := NewInMemory(quota)
		require.NoError(t, err)
		return store, func() { store.Close() }
	})
}

func TestSQLiteStore_Persistence(t *testing.T) {
	t.Run("data persists to disk", func(t *testing.T) {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "postbox.db")

		store, err := New(path, 0)
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, storage.KeyCollections, `[]`))
		require.NoError(t, store.Close())

		reopened, err := New(path, 0)
		require.NoError(t, err)
		defer reopened.Close()

		value, err := reopened.Get(ctx, storage.KeyCollections)
		require.NoError(t, err)
		assert.Equal(t, `[]`, value)
	})
}

func TestSQLiteStore_QuotaCountsBytes(t *testing.T) {
	ctx := context.Background()
	store, err := NewInMemory(6)
	require.NoError(t, err)
	defer store.Close()

	// "é" is two bytes.
	require.NoError(t, store.Set(ctx, "k", "éé"))
	assert.ErrorIs(t, store.Set(ctx, "k", "ééé"), storage.ErrQuotaExceeded)
}

func TestSQLiteStore_CloseTwice(t *testing.T) {
	store, err := NewInMemory(0)
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
