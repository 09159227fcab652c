// Package merge folds an imported snapshot into the current collections,
// history and environments, either replacing them or appending to them.
package merge

import (
	"fmt"

	"github.com/artpar/postbox/internal/core"
)

// Data is the importable part of the application state.
type Data struct {
	Collections  []core.Collection   `json:"collections" yaml:"collections"`
	History      []core.HistoryEntry `json:"history" yaml:"history"`
	Environments []core.Environment  `json:"environments" yaml:"environments"`
}

// Clone deep-copies d, turning nil lists into empty ones.
func (d Data) Clone() Data {
	return Data{
		Collections:  orEmpty(core.CloneCollections(d.Collections)),
		History:      orEmpty(core.CloneHistory(d.History)),
		Environments: orEmpty(core.CloneEnvironments(d.Environments)),
	}
}

// Replace returns incoming as the new data. Every request, folders included,
// is re-linked to the collection that holds it.
func Replace(incoming Data) Data {
	out := incoming.Clone()
	for i := range out.Collections {
		col := &out.Collections[i]
		eachRequest(col, func(req *core.RequestConfig) {
			req.CollectionID = col.ID
		})
	}
	return out
}

// Merge appends incoming to existing.
//
// Incoming collections get fresh ids, fresh request and folder ids and a name that does
// not clash with any collection already present, including those appended
// earlier in the same merge. Their requests keep pointing at the collection id
// they had in the imported file. History and environments are concatenated.
func Merge(existing, incoming Data, newID func() string) Data {
	if newID == nil {
		newID = core.NewID
	}

	out := existing.Clone()
	in := incoming.Clone()

	taken := make(map[string]bool, len(out.Collections)+len(in.Collections))
	for _, c := range out.Collections {
		taken[c.Name] = true
	}

	for _, col := range in.Collections {
		originalID := col.ID
		col.ID = newID()
		col.Name = UniqueName(col.Name, taken)
		taken[col.Name] = true
		eachRequest(&col, func(req *core.RequestConfig) {
			req.ID = newID()
			req.CollectionID = originalID
		})
		for j := range col.Folders {
			col.Folders[j].ID = newID()
		}
		out.Collections = append(out.Collections, col)
	}

	out.History = append(out.History, in.History...)
	out.Environments = append(out.Environments, in.Environments...)
	return out
}

// UniqueName returns name, or the first of "name (1)", "name (2)", … that is
// not in taken.
func UniqueName(name string, taken map[string]bool) string {
	candidate := name
	for counter := 1; taken[candidate]; counter++ {
		candidate = fmt.Sprintf("%s (%d)", name, counter)
	}
	return candidate
}

// eachRequest visits the collection's requests, then those of its folders.
func eachRequest(col *core.Collection, fn func(*core.RequestConfig)) {
	for i := range col.Requests {
		fn(&col.Requests[i])
	}
	for i := range col.Folders {
		for j := range col.Folders[i].Requests {
			fn(&col.Folders[i].Requests[j])
		}
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
