package cookies

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/postbox/internal/storage"
	"github.com/artpar/postbox/internal/storage/memory"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestPersistentJar_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(0)
	u := mustParse(t, "https://api.example.com/login")

	jar, err := NewPersistentJar(ctx, NewKVStore(kv))
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{
		{Name: "session", Value: "abc", Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode},
		{Name: "short", Value: "1", MaxAge: 60},
	})

	raw, err := kv.Get(ctx, storage.KeyCookies)
	require.NoError(t, err)
	assert.Contains(t, raw, `"httpOnly":true`)
	assert.Contains(t, raw, `"sameSite":"lax"`)

	reopened, err := NewPersistentJar(ctx, NewKVStore(kv))
	require.NoError(t, err)

	list := reopened.List()
	require.Len(t, list, 2)
	assert.Equal(t, "session", list[0].Name)
	assert.Equal(t, "api.example.com", list[0].Domain)
	assert.True(t, list[0].IsSession())
	assert.WithinDuration(t, time.Now().Add(time.Minute), list[1].Expires, 10*time.Second)

	got := reopened.Cookies(mustParse(t, "https://api.example.com/users"))
	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"session", "short"}, names)
}

func TestPersistentJar_Expiry(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(0)
	u := mustParse(t, "https://example.com/")

	now := testNow
	jar, err := NewPersistentJar(ctx, NewKVStore(kv), WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{
		{Name: "a", Value: "1", MaxAge: 10},
		{Name: "b", Value: "2"},
	})
	require.Len(t, jar.List(), 2)

	t.Run("deleted by negative max age", func(t *testing.T) {
		jar.SetCookies(u, []*http.Cookie{{Name: "b", Value: "", MaxAge: -1}})
		list := jar.List()
		require.Len(t, list, 1)
		assert.Equal(t, "a", list[0].Name)
	})

	t.Run("expired cookies are not loaded", func(t *testing.T) {
		now = testNow.Add(time.Hour)
		reopened, err := NewPersistentJar(ctx, NewKVStore(kv), WithClock(func() time.Time { return now }))
		require.NoError(t, err)
		assert.Empty(t, reopened.List())
	})
}

func TestPersistentJar_Clear(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(0)
	u := mustParse(t, "https://example.com/")

	jar, err := NewPersistentJar(ctx, NewKVStore(kv))
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "a", Value: "1"}})

	require.NoError(t, jar.Clear(ctx))

	assert.Empty(t, jar.List())
	assert.Empty(t, jar.Cookies(u))
	_, err = kv.Get(ctx, storage.KeyCookies)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

type failingStore struct {
	loadErr error
	saveErr error
	saves   int
}

func (f *failingStore) Load(context.Context) ([]Cookie, error) { return nil, f.loadErr }

func (f *failingStore) Save(context.Context, []Cookie) error {
	f.saves++
	return f.saveErr
}

func (f *failingStore) Clear(context.Context) error { return nil }

func TestPersistentJar_StoreErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewPersistentJar(ctx, &failingStore{loadErr: errors.New("boom")})
	assert.Error(t, err)

	store := &failingStore{saveErr: errors.New("full")}
	jar, err := NewPersistentJar(ctx, store)
	require.NoError(t, err)

	u := mustParse(t, "https://example.com/")
	jar.SetCookies(u, []*http.Cookie{{Name: "a", Value: "1"}})

	assert.Equal(t, 1, store.saves)
	assert.Len(t, jar.Cookies(u), 1)
}

func TestKVStore_Malformed(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(0)
	require.NoError(t, kv.Set(ctx, storage.KeyCookies, "{not json"))

	_, err := NewKVStore(kv).Load(ctx)
	assert.Error(t, err)
}

func TestPersistentJar_WithHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			http.SetCookie(w, &http.Cookie{Name: "token", Value: "xyz", Path: "/"})
			return
		}
		c, err := r.Cookie("token")
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(c.Value))
	}))
	defer server.Close()

	ctx := context.Background()
	kv := memory.New(0)

	jar, err := NewPersistentJar(ctx, NewKVStore(kv))
	require.NoError(t, err)
	resp, err := (&http.Client{Jar: jar}).Get(server.URL + "/login")
	require.NoError(t, err)
	resp.Body.Close()

	reopened, err := NewPersistentJar(ctx, NewKVStore(kv))
	require.NoError(t, err)
	resp, err = (&http.Client{Jar: reopened}).Get(server.URL + "/me")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
