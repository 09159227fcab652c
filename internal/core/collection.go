package core

import (
	"time"
)

// Collection represents a named group of saved requests.
// A request belongs to exactly one collection once saved.
type Collection struct {
	ID          string          `json:"id" yaml:"id" validate:"required"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Requests    []RequestConfig `json:"requests" yaml:"requests" validate:"dive"`
	Folders     []Folder        `json:"folders" yaml:"folders"`
	CreatedAt   time.Time       `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt" yaml:"updatedAt"`
}

// Folder is carried through storage and import untouched.
type Folder struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Requests  []RequestConfig `json:"requests" yaml:"requests"`
	CreatedAt time.Time       `json:"createdAt" yaml:"createdAt"`
}

// NewCollection creates an empty collection with the given name.
func NewCollection(name string) Collection {
	now := Now()
	return Collection{
		ID:        NewID(),
		Name:      name,
		Requests:  []RequestConfig{},
		Folders:   []Folder{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone creates a deep copy of the collection.
func (c Collection) Clone() Collection {
	clone := c
	if c.Requests != nil {
		clone.Requests = make([]RequestConfig, len(c.Requests))
		for i, r := range c.Requests {
			clone.Requests[i] = r.Clone()
		}
	}
	if c.Folders != nil {
		clone.Folders = make([]Folder, len(c.Folders))
		for i, f := range c.Folders {
			clone.Folders[i] = f.Clone()
		}
	}
	return clone
}

// Clone creates a deep copy of the folder.
func (f Folder) Clone() Folder {
	clone := f
	if f.Requests != nil {
		clone.Requests = make([]RequestConfig, len(f.Requests))
		for i, r := range f.Requests {
			clone.Requests[i] = r.Clone()
		}
	}
	return clone
}

// RequestIndex returns the position of the request with the given ID, or -1.
func (c Collection) RequestIndex(id string) int {
	for i, r := range c.Requests {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// GetRequest returns a request by ID.
func (c Collection) GetRequest(id string) (RequestConfig, bool) {
	if i := c.RequestIndex(id); i >= 0 {
		return c.Requests[i], true
	}
	return RequestConfig{}, false
}

// GetRequestByName returns the first request with the given name.
func (c Collection) GetRequestByName(name string) (RequestConfig, bool) {
	for _, r := range c.Requests {
		if r.Name == name {
			return r, true
		}
	}
	return RequestConfig{}, false
}

// CloneCollections deep-copies a collection list, preserving nil.
func CloneCollections(in []Collection) []Collection {
	if in == nil {
		return nil
	}
	out := make([]Collection, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
