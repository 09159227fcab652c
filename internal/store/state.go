package store

import (
	"strings"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/merge"
)

// State is the in-memory application state.
type State struct {
	Collections       []core.Collection
	CurrentRequest    *core.RequestConfig
	IsRequestModified bool
	History           []core.HistoryEntry
	Environments      []core.Environment
	ActiveEnvironment *core.Environment
	IsLoading         bool
	Response          *core.Response

	rev revisions
}

// revisions count replacements of each persisted domain.
type revisions struct {
	collections       uint64
	history           uint64
	environments      uint64
	activeEnvironment uint64
}

// InitialState returns the empty state.
func InitialState() State {
	return State{
		Collections:  []core.Collection{},
		History:      []core.HistoryEntry{},
		Environments: []core.Environment{},
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	clone := s
	clone.Collections = core.CloneCollections(s.Collections)
	clone.History = core.CloneHistory(s.History)
	clone.Environments = core.CloneEnvironments(s.Environments)
	if s.CurrentRequest != nil {
		r := s.CurrentRequest.Clone()
		clone.CurrentRequest = &r
	}
	if s.ActiveEnvironment != nil {
		e := s.ActiveEnvironment.Clone()
		clone.ActiveEnvironment = &e
	}
	if s.Response != nil {
		r := s.Response.Clone()
		clone.Response = &r
	}
	return clone
}

// Data returns the importable part of the state.
func (s State) Data() merge.Data {
	return merge.Data{
		Collections:  s.Collections,
		History:      s.History,
		Environments: s.Environments,
	}
}

// FindCollection returns the collection with the given id.
func (s State) FindCollection(id string) (core.Collection, bool) {
	for _, c := range s.Collections {
		if c.ID == id {
			return c, true
		}
	}
	return core.Collection{}, false
}

// FindCollectionByName returns the first collection with the given name.
func (s State) FindCollectionByName(name string) (core.Collection, bool) {
	for _, c := range s.Collections {
		if c.Name == name {
			return c, true
		}
	}
	return core.Collection{}, false
}

// Domain is a bit set of persisted state domains.
type Domain uint8

const (
	DomainCollections Domain = 1 << iota
	DomainHistory
	DomainEnvironments
	DomainActiveEnvironment
)

// Has reports whether d includes all of other.
func (d Domain) Has(other Domain) bool {
	return d&other == other
}

func (d Domain) String() string {
	var parts []string
	for _, n := range []struct {
		d    Domain
		name string
	}{
		{DomainCollections, "collections"},
		{DomainHistory, "history"},
		{DomainEnvironments, "environments"},
		{DomainActiveEnvironment, "active-environment"},
	} {
		if d.Has(n.d) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Changed reports which persisted domains were replaced between prev and next.
func Changed(prev, next State) Domain {
	var d Domain
	if prev.rev.collections != next.rev.collections {
		d |= DomainCollections
	}
	if prev.rev.history != next.rev.history {
		d |= DomainHistory
	}
	if prev.rev.environments != next.rev.environments {
		d |= DomainEnvironments
	}
	if prev.rev.activeEnvironment != next.rev.activeEnvironment {
		d |= DomainActiveEnvironment
	}
	return d
}
