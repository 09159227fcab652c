package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/postbox/internal/core"
)

func TestStore_Dispatch(t *testing.T) {
	t.Run("starts empty", func(t *testing.T) {
		s := New()
		state := s.State()

		assert.Empty(t, state.Collections)
		assert.Nil(t, state.CurrentRequest)
		assert.Nil(t, state.Response)
	})

	t.Run("applies actions", func(t *testing.T) {
		s := New(WithReducer(testReducer()))

		s.Dispatch(AddCollection{Collection: testCollection("a", "A")})

		require.Len(t, s.State().Collections, 1)
	})

	t.Run("initial state", func(t *testing.T) {
		initial := InitialState()
		initial.Collections = []core.Collection{testCollection("a", "A")}

		s := New(WithInitialState(initial))

		assert.Len(t, s.State().Collections, 1)
	})
}

func TestStore_State(t *testing.T) {
	s := New()
	s.Dispatch(AddCollection{Collection: testCollection("a", "A", testRequest("r1"))})

	state := s.State()
	state.Collections[0].Name = "mutated"
	state.Collections[0].Requests[0].URL = "mutated"

	fresh := s.State()
	assert.Equal(t, "A", fresh.Collections[0].Name)
	assert.Equal(t, "https://example.com/r1", fresh.Collections[0].Requests[0].URL)
}

func TestStore_Subscribe(t *testing.T) {
	t.Run("listeners see prev and next in order", func(t *testing.T) {
		s := New()
		var calls []string

		s.Subscribe(func(prev, next State) {
			calls = append(calls, "first")
			assert.Empty(t, prev.Collections)
			assert.Len(t, next.Collections, 1)
		})
		s.Subscribe(func(prev, next State) {
			calls = append(calls, "second")
		})

		s.Dispatch(AddCollection{Collection: testCollection("a", "A")})

		assert.Equal(t, []string{"first", "second"}, calls)
	})

	t.Run("unsubscribe stops notifications", func(t *testing.T) {
		s := New()
		count := 0
		unsubscribe := s.Subscribe(func(prev, next State) { count++ })

		s.Dispatch(SetLoading{Loading: true})
		unsubscribe()
		unsubscribe()
		s.Dispatch(SetLoading{Loading: false})

		assert.Equal(t, 1, count)
	})

	t.Run("changed reports persisted domains", func(t *testing.T) {
		s := New()
		var changes []Domain
		s.Subscribe(func(prev, next State) {
			changes = append(changes, Changed(prev, next))
		})

		s.Dispatch(SetLoading{Loading: true})
		s.Dispatch(AddToHistory{Entry: core.HistoryEntry{ID: "h1"}})

		assert.Equal(t, []Domain{0, DomainHistory}, changes)
	})
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	s := New()
	var mu sync.Mutex
	seen := 0
	s.Subscribe(func(prev, next State) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, len(prev.History)+1, len(next.History))
		seen++
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(AddToHistory{Entry: core.HistoryEntry{ID: core.NewID()}})
		}()
	}
	wg.Wait()

	assert.Len(t, s.State().History, 50)
	assert.Equal(t, 50, seen)
}
