package store

import (
	"time"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/merge"
)

// Reducer computes state transitions. It never mutates its input and never
// fails: actions that do not apply leave the state as it was.
type Reducer struct {
	NewID func() string
	Now   func() time.Time
}

// NewReducer returns a reducer using random ids and the wall clock.
func NewReducer() Reducer {
	return Reducer{NewID: core.NewID, Now: core.Now}
}

func (r Reducer) now() time.Time {
	if r.Now == nil {
		return core.Now()
	}
	return r.Now()
}

func (r Reducer) newID() func() string {
	if r.NewID == nil {
		return core.NewID
	}
	return r.NewID
}

// Reduce returns the state that follows s after a.
func (r Reducer) Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetCollections:
		s.Collections = emptyIfNil(core.CloneCollections(a.Collections))
		s.rev.collections++

	case AddCollection:
		s.Collections = append(cloneList(s.Collections), a.Collection.Clone())
		s.rev.collections++

	case UpdateCollection:
		if cols, ok := replaceCollection(s.Collections, a.Collection.ID, func(core.Collection) core.Collection {
			return a.Collection.Clone()
		}); ok {
			s.Collections = cols
			s.rev.collections++
		}

	case RenameCollection:
		now := r.now()
		if cols, ok := replaceCollection(s.Collections, a.ID, func(c core.Collection) core.Collection {
			c.Name = a.Name
			c.UpdatedAt = now
			return c
		}); ok {
			s.Collections = cols
			s.rev.collections++
		}

	case PermanentDeleteCollection:
		out := make([]core.Collection, 0, len(s.Collections))
		for _, c := range s.Collections {
			if c.ID != a.ID {
				out = append(out, c)
			}
		}
		if len(out) != len(s.Collections) {
			s.Collections = out
			s.rev.collections++
		}

	case SetCurrentRequest:
		s.CurrentRequest = cloneRequestPtr(a.Request)
		s.IsRequestModified = false

	case UpdateCurrentRequest:
		if s.CurrentRequest != nil {
			updated := a.Patch.Apply(*s.CurrentRequest)
			s.CurrentRequest = &updated
			s.IsRequestModified = true
		}

	case SetRequestModified:
		s.IsRequestModified = a.Modified

	case AddRequestToCollection:
		s = r.saveRequest(s, a.CollectionID, a.Request)

	case UpdateRequestInCollection:
		s = r.saveRequest(s, a.CollectionID, a.Request)

	case DeleteRequestFromCollection:
		if cols, ok := replaceCollection(s.Collections, a.CollectionID, func(c core.Collection) core.Collection {
			requests := make([]core.RequestConfig, 0, len(c.Requests))
			for _, req := range c.Requests {
				if req.ID != a.RequestID {
					requests = append(requests, req)
				}
			}
			c.Requests = requests
			return c
		}); ok {
			s.Collections = cols
			s.rev.collections++
		}

	case SetHistory:
		s.History = emptyIfNil(core.CloneHistory(a.History))
		s.rev.history++

	case AddToHistory:
		history := make([]core.HistoryEntry, 0, len(s.History)+1)
		history = append(history, a.Entry.Clone())
		s.History = append(history, s.History...)
		s.rev.history++

	case SetEnvironments:
		s.Environments = emptyIfNil(core.CloneEnvironments(a.Environments))
		s.rev.environments++

	case SetActiveEnvironment:
		if a.Environment == nil {
			s.ActiveEnvironment = nil
		} else {
			env := a.Environment.Clone()
			s.ActiveEnvironment = &env
		}
		s.rev.activeEnvironment++

	case SetLoading:
		s.IsLoading = a.Loading

	case SetResponse:
		if a.Response == nil {
			s.Response = nil
		} else {
			resp := a.Response.Clone()
			s.Response = &resp
		}

	case LoadData:
		var data merge.Data
		if a.ReplaceExisting {
			data = merge.Replace(a.Data)
			s.CurrentRequest = nil
			s.Response = nil
		} else {
			data = merge.Merge(s.Data(), a.Data, r.newID())
		}
		s.Collections = data.Collections
		s.History = data.History
		s.Environments = data.Environments
		s.rev.collections++
		s.rev.history++
		s.rev.environments++
	}

	return s
}

// saveRequest upserts req into the collection, linking it back to that
// collection. When req is the request being edited, the editor picks up the
// saved copy and the unsaved-changes flag is cleared.
func (r Reducer) saveRequest(s State, collectionID string, req core.RequestConfig) State {
	saved := req.Clone()
	saved.CollectionID = collectionID
	now := r.now()

	cols, ok := replaceCollection(s.Collections, collectionID, func(c core.Collection) core.Collection {
		requests := cloneList(c.Requests)
		if i := c.RequestIndex(saved.ID); i >= 0 {
			requests[i] = saved
		} else {
			requests = append(requests, saved)
		}
		c.Requests = requests
		c.UpdatedAt = now
		return c
	})
	if !ok {
		return s
	}

	s.Collections = cols
	s.rev.collections++
	if s.CurrentRequest != nil && s.CurrentRequest.ID == saved.ID {
		current := saved.Clone()
		s.CurrentRequest = &current
		s.IsRequestModified = false
	}
	return s
}

// replaceCollection returns a new list with fn applied to the collection
// matching id, or false when no collection matches.
func replaceCollection(cols []core.Collection, id string, fn func(core.Collection) core.Collection) ([]core.Collection, bool) {
	for i, c := range cols {
		if c.ID == id {
			out := cloneList(cols)
			out[i] = fn(c)
			return out, true
		}
	}
	return cols, false
}

func cloneRequestPtr(req *core.RequestConfig) *core.RequestConfig {
	if req == nil {
		return nil
	}
	clone := req.Clone()
	return &clone
}

// cloneList copies the slice header level only.
func cloneList[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func emptyIfNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
