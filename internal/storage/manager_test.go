package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/storage"
	"github.com/artpar/postbox/internal/storage/memory"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Warn(message string) {
	n.messages = append(n.messages, message)
}

type stubConfirmer struct {
	answer bool
	asked  []string
}

func (c *stubConfirmer) Confirm(_ context.Context, message string) bool {
	c.asked = append(c.asked, message)
	return c.answer
}

// failingKV rejects writes to selected keys.
type failingKV struct {
	storage.KV
	fail       map[string]error
	failDelete error
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if err, ok := f.fail[key]; ok {
		return err
	}
	return f.KV.Set(ctx, key, value)
}

func (f *failingKV) Delete(ctx context.Context, key string) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	return f.KV.Delete(ctx, key)
}

func newManager(t *testing.T, opts ...storage.Option) (*storage.Manager, *memory.Store) {
	t.Helper()
	kv := memory.New(0)
	t.Cleanup(func() { kv.Close() })
	opts = append([]storage.Option{storage.WithClock(func() time.Time { return testNow })}, opts...)
	return storage.NewManager(kv, opts...), kv
}

func sampleCollections() []core.Collection {
	created := time.Date(2024, 1, 2, 3, 4, 5, 6000000, time.UTC)
	return []core.Collection{
		{
			ID:          "c1",
			Name:        "API",
			Description: "main",
			Requests: []core.RequestConfig{
				{
					ID:     "r1",
					Name:   "Get Users",
					Method: core.MethodGet,
					URL:    "https://example.com/users",
					Headers: []core.Header{
						{ID: "h1", Key: "Accept", Value: "application/json", Enabled: true},
						{ID: "h2", Key: "X-Off", Value: "1", Enabled: false},
					},
					Body:         core.Body{Type: core.BodyTypeNone},
					Auth:         core.NewBearerAuth("{{token}}"),
					CreatedAt:    created,
					UpdatedAt:    created,
					CollectionID: "c1",
				},
			},
			Folders:   []core.Folder{},
			CreatedAt: created,
			UpdatedAt: created,
		},
		{
			ID:        "c2",
			Name:      "Empty",
			Requests:  []core.RequestConfig{},
			Folders:   []core.Folder{},
			CreatedAt: created,
			UpdatedAt: created,
		},
	}
}

func TestManager_Collections(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		m, _ := newManager(t)
		cols := sampleCollections()

		require.NoError(t, m.SaveCollections(ctx, cols))
		loaded, err := m.Collections(ctx)

		require.NoError(t, err)
		assert.Equal(t, cols, loaded)
	})

	t.Run("empty when nothing stored", func(t *testing.T) {
		m, _ := newManager(t)

		loaded, err := m.Collections(ctx)

		require.NoError(t, err)
		assert.NotNil(t, loaded)
		assert.Empty(t, loaded)
	})

	t.Run("empty list is persisted", func(t *testing.T) {
		m, kv := newManager(t)

		require.NoError(t, m.SaveCollections(ctx, nil))

		value, err := kv.Get(ctx, storage.KeyCollections)
		require.NoError(t, err)
		assert.Equal(t, "[]", value)
	})

	t.Run("malformed data yields empty domain", func(t *testing.T) {
		m, kv := newManager(t)
		require.NoError(t, kv.Set(ctx, storage.KeyCollections, "{not json"))
		require.NoError(t, kv.Set(ctx, storage.KeyEnvironments, "42"))
		require.NoError(t, kv.Set(ctx, storage.KeyHistory, "[oops"))

		cols, err := m.Collections(ctx)
		require.NoError(t, err)
		assert.Empty(t, cols)

		envs, err := m.Environments(ctx)
		require.NoError(t, err)
		assert.Empty(t, envs)

		history, err := m.History(ctx)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("closed store reports an error", func(t *testing.T) {
		m, kv := newManager(t)
		kv.Close()

		_, err := m.Collections(ctx)
		assert.ErrorIs(t, err, storage.ErrStoreClosed)
	})
}

func TestManager_Settings(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults when nothing stored", func(t *testing.T) {
		m, _ := newManager(t)

		s, err := m.Settings(ctx)

		require.NoError(t, err)
		assert.Equal(t, core.DefaultSettings(), s)
	})

	t.Run("partial save keeps other values", func(t *testing.T) {
		m, _ := newManager(t)
		items := 2

		require.NoError(t, m.SaveSettings(ctx, core.SettingsPatch{MaxHistoryItems: &items}))
		s, err := m.Settings(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, s.MaxHistoryItems)
		assert.Equal(t, core.DefaultMaxHistoryAge, s.MaxHistoryAge)
		assert.True(t, s.AutoCleanup)
	})

	t.Run("partial stored object merges over defaults", func(t *testing.T) {
		m, kv := newManager(t)
		require.NoError(t, kv.Set(ctx, storage.KeySettings, `{"autoCleanup":false}`))

		s, err := m.Settings(ctx)

		require.NoError(t, err)
		assert.False(t, s.AutoCleanup)
		assert.Equal(t, core.DefaultMaxHistoryItems, s.MaxHistoryItems)
	})

	t.Run("invalid stored values fall back to defaults", func(t *testing.T) {
		m, kv := newManager(t)
		require.NoError(t, kv.Set(ctx, storage.KeySettings, `{"maxHistoryItems":-1,"autoCleanup":false}`))

		s, err := m.Settings(ctx)
		require.NoError(t, err)
		assert.Equal(t, core.DefaultSettings(), s)

		history := []core.HistoryEntry{{ID: "h1", Timestamp: testNow}}
		require.NotPanics(t, func() {
			require.NoError(t, m.SaveHistory(ctx, history))
		})
		stored, err := m.History(ctx)
		require.NoError(t, err)
		assert.Len(t, stored, 1)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		m, _ := newManager(t)
		negative := -1

		assert.Error(t, m.SaveSettings(ctx, core.SettingsPatch{MaxHistoryItems: &negative}))
	})
}

func TestManager_ActiveEnvironment(t *testing.T) {
	ctx := context.Background()
	m, kv := newManager(t)

	id, err := m.ActiveEnvironment(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, m.SetActiveEnvironment(ctx, "env-1"))
	raw, err := kv.Get(ctx, storage.KeyActiveEnvironment)
	require.NoError(t, err)
	assert.Equal(t, "env-1", raw)

	require.NoError(t, m.ClearActiveEnvironment(ctx))
	id, err = m.ActiveEnvironment(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestManager_ClearAll(t *testing.T) {
	ctx := context.Background()
	m, kv := newManager(t)
	for _, key := range storage.AllKeys() {
		require.NoError(t, kv.Set(ctx, key, "x"))
	}
	require.NoError(t, kv.Set(ctx, "unrelated", "keep"))

	require.NoError(t, m.ClearAll(ctx))

	items, err := kv.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []storage.Item{{Key: "unrelated", Value: "keep"}}, items)
}

func TestManager_QuotaOnOtherDomains(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, opts ...storage.Option) (*storage.Manager, storage.KV) {
		base := memory.New(0)
		t.Cleanup(func() { base.Close() })
		kv := &failingKV{KV: base, fail: map[string]error{
			storage.KeyCollections: storage.ErrQuotaExceeded,
		}}
		m := storage.NewManager(kv, opts...)

		history := make([]core.HistoryEntry, 30)
		for i := range history {
			history[i] = core.HistoryEntry{ID: string(rune('A' + i)), Timestamp: testNow}
		}
		data, err := core.Stringify(history)
		require.NoError(t, err)
		require.NoError(t, base.Set(ctx, storage.KeyHistory, data))
		return m, kv
	}

	t.Run("shrinks history and warns", func(t *testing.T) {
		notifier := &recordingNotifier{}
		m, _ := setup(t, storage.WithNotifier(notifier))

		err := m.SaveCollections(ctx, sampleCollections())

		assert.ErrorIs(t, err, storage.ErrQuotaExceeded)
		history, herr := m.History(ctx)
		require.NoError(t, herr)
		require.Len(t, history, 20)
		assert.Equal(t, "A", history[0].ID)
		require.Len(t, notifier.messages, 1)
		assert.Contains(t, notifier.messages[0], "Storage is full! Data may not be saved properly.")
	})

	t.Run("clears history when the user agrees", func(t *testing.T) {
		confirmer := &stubConfirmer{answer: true}
		m, _ := setup(t, storage.WithConfirmer(confirmer))

		require.Error(t, m.SaveCollections(ctx, sampleCollections()))

		require.Len(t, confirmer.asked, 1)
		assert.Contains(t, confirmer.asked[0], "Would you like to clear old history")
		history, err := m.History(ctx)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("keeps history when the user declines", func(t *testing.T) {
		confirmer := &stubConfirmer{answer: false}
		m, _ := setup(t, storage.WithConfirmer(confirmer))

		require.Error(t, m.SaveCollections(ctx, sampleCollections()))

		history, err := m.History(ctx)
		require.NoError(t, err)
		assert.Len(t, history, 20)
	})

	t.Run("other write errors skip cleanup", func(t *testing.T) {
		notifier := &recordingNotifier{}
		base := memory.New(0)
		defer base.Close()
		boom := errors.New("disk on fire")
		kv := &failingKV{KV: base, fail: map[string]error{storage.KeyEnvironments: boom}}
		m := storage.NewManager(kv, storage.WithNotifier(notifier))

		err := m.SaveEnvironments(ctx, []core.Environment{core.NewEnvironment("Dev")})

		assert.ErrorIs(t, err, boom)
		assert.Empty(t, notifier.messages)
	})
}

func TestManager_Usage(t *testing.T) {
	ctx := context.Background()
	m, kv := newManager(t, storage.WithCapacity(100))

	require.NoError(t, kv.Set(ctx, "abc", "1234567"))
	require.NoError(t, kv.Set(ctx, "other", "12345"))

	usage, err := m.Usage(ctx)

	require.NoError(t, err)
	assert.Equal(t, 20, usage.Used)
	assert.Equal(t, 100, usage.Total)
	assert.InDelta(t, 20.0, usage.Percentage, 0.001)
}

func TestManager_DefaultCapacity(t *testing.T) {
	m, _ := newManager(t)

	usage, err := m.Usage(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5*1024*1024, usage.Total)
	assert.Zero(t, usage.Used)
}
