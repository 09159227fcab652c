// Package store holds the application state and applies actions to it.
package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Listener observes a transition. prev and next are shared with the store
// and must be treated as read-only. Listeners must not dispatch.
type Listener func(prev, next State)

// Store owns one State and serializes every transition on it.
type Store struct {
	dispatchMu sync.Mutex // orders dispatch and notification

	mu        sync.RWMutex
	state     State
	reducer   Reducer
	listeners []subscription
	nextSubID int
	logger    *slog.Logger
}

type subscription struct {
	id int
	fn Listener
}

// Option configures a Store.
type Option func(*Store)

// WithReducer sets the reducer, typically to fix ids and clocks in tests.
func WithReducer(r Reducer) Option {
	return func(s *Store) {
		s.reducer = r
	}
}

// WithInitialState sets the starting state.
func WithInitialState(state State) Option {
	return func(s *Store) {
		s.state = state.Clone()
	}
}

// WithLogger sets the logger used to trace dispatches.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a store holding the initial state.
func New(opts ...Option) *Store {
	s := &Store{
		state:   InitialState(),
		reducer: NewReducer(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch applies a to the state and then notifies listeners in
// subscription order.
func (s *Store) Dispatch(a Action) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next := s.reducer.Reduce(prev, a)
	s.state = next
	listeners := make([]subscription, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if s.logger.Enabled(context.Background(), slog.LevelDebug) {
		s.logger.Debug("dispatch", "action", ActionName(a), "changed", Changed(prev, next).String())
	}

	for _, l := range listeners {
		l.fn(prev, next)
	}
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.listeners = append(s.listeners, subscription{id: id, fn: l})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}
