package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/storage"
	"github.com/artpar/postbox/internal/storage/memory"
)

func TestManager_Export(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	cols := sampleCollections()
	envs := []core.Environment{{ID: "e1", Name: "Dev", Variables: map[string]string{"id": "42"}}}
	require.NoError(t, m.SaveCollections(ctx, cols))
	require.NoError(t, m.SaveEnvironments(ctx, envs))

	data, err := m.Export(ctx)

	require.NoError(t, err)
	assert.Equal(t, cols, data.Collections)
	assert.Equal(t, envs, data.Environments)
	assert.Empty(t, data.History)
	assert.NotNil(t, data.History)
	assert.Equal(t, core.DefaultSettings(), data.Settings)
	assert.Equal(t, testNow, data.ExportedAt)
}

func TestManager_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("applies present fields only", func(t *testing.T) {
		m, _ := newManager(t)
		envs := []core.Environment{{ID: "keep", Name: "Keep"}}
		require.NoError(t, m.SaveEnvironments(ctx, envs))
		items := 5

		err := m.Import(ctx, storage.ImportData{
			Collections: sampleCollections(),
			History:     []core.HistoryEntry{historyEntry("h1", testNow, "ok")},
			Settings:    &core.SettingsPatch{MaxHistoryItems: &items},
		})

		require.NoError(t, err)
		cols, _ := m.Collections(ctx)
		assert.Len(t, cols, 2)
		storedEnvs, _ := m.Environments(ctx)
		assert.Equal(t, envs, storedEnvs)
		history, _ := m.History(ctx)
		assert.Len(t, history, 1)
		settings, _ := m.Settings(ctx)
		assert.Equal(t, 5, settings.MaxHistoryItems)
		assert.True(t, settings.AutoCleanup)
	})

	t.Run("a failing field does not stop the others", func(t *testing.T) {
		base := memory.New(0)
		defer base.Close()
		boom := errors.New("write failed")
		kv := &failingKV{KV: base, fail: map[string]error{storage.KeyCollections: boom}}
		m := storage.NewManager(kv)

		err := m.Import(ctx, storage.ImportData{
			Collections:  sampleCollections(),
			Environments: []core.Environment{{ID: "e1", Name: "Dev"}},
		})

		assert.ErrorIs(t, err, boom)
		envs, _ := m.Environments(ctx)
		assert.Len(t, envs, 1)
	})

	t.Run("export then import restores data", func(t *testing.T) {
		src, _ := newManager(t)
		require.NoError(t, src.SaveCollections(ctx, sampleCollections()))
		exported, err := src.Export(ctx)
		require.NoError(t, err)

		dst, _ := newManager(t)
		settings := exported.Settings.Patch()
		require.NoError(t, dst.Import(ctx, storage.ImportData{
			Collections:  exported.Collections,
			Environments: exported.Environments,
			History:      exported.History,
			Settings:     &settings,
		}))

		again, err := dst.Export(ctx)
		require.NoError(t, err)
		assert.Equal(t, exported, again)
	})
}
