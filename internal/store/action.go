package store

import (
	"fmt"
	"strings"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/merge"
)

// Action is a state transition understood by the Reducer.
// The set is closed: only the types in this file implement it.
type Action interface {
	isAction()
}

// SetCollections replaces the collection list.
type SetCollections struct {
	Collections []core.Collection
}

// AddCollection appends a collection.
type AddCollection struct {
	Collection core.Collection
}

// UpdateCollection replaces the collection with the same id.
type UpdateCollection struct {
	Collection core.Collection
}

// RenameCollection renames a collection and bumps its updatedAt.
type RenameCollection struct {
	ID   string
	Name string
}

// PermanentDeleteCollection removes a collection and its requests.
type PermanentDeleteCollection struct {
	ID string
}

// SetCurrentRequest replaces the request being edited. Nil clears it.
type SetCurrentRequest struct {
	Request *core.RequestConfig
}

// UpdateCurrentRequest merges a patch into the request being edited.
type UpdateCurrentRequest struct {
	Patch core.RequestPatch
}

// SetRequestModified sets the unsaved-changes flag.
type SetRequestModified struct {
	Modified bool
}

// AddRequestToCollection saves a request into a collection.
type AddRequestToCollection struct {
	CollectionID string
	Request      core.RequestConfig
}

// UpdateRequestInCollection saves a new version of a request in a collection.
type UpdateRequestInCollection struct {
	CollectionID string
	Request      core.RequestConfig
}

// DeleteRequestFromCollection removes a request from a collection.
type DeleteRequestFromCollection struct {
	CollectionID string
	RequestID    string
}

// SetHistory replaces the history list.
type SetHistory struct {
	History []core.HistoryEntry
}

// AddToHistory prepends an entry to the history.
type AddToHistory struct {
	Entry core.HistoryEntry
}

// SetEnvironments replaces the environment list.
type SetEnvironments struct {
	Environments []core.Environment
}

// SetActiveEnvironment selects the environment used for sends. Nil clears it.
type SetActiveEnvironment struct {
	Environment *core.Environment
}

// SetLoading sets the advisory in-flight flag.
type SetLoading struct {
	Loading bool
}

// SetResponse replaces the displayed response. Nil clears it.
type SetResponse struct {
	Response *core.Response
}

// LoadData folds imported data into the state.
type LoadData struct {
	Data            merge.Data
	ReplaceExisting bool
}

func (SetCollections) isAction()              {}
func (AddCollection) isAction()               {}
func (UpdateCollection) isAction()            {}
func (RenameCollection) isAction()            {}
func (PermanentDeleteCollection) isAction()   {}
func (SetCurrentRequest) isAction()           {}
func (UpdateCurrentRequest) isAction()        {}
func (SetRequestModified) isAction()          {}
func (AddRequestToCollection) isAction()      {}
func (UpdateRequestInCollection) isAction()   {}
func (DeleteRequestFromCollection) isAction() {}
func (SetHistory) isAction()                  {}
func (AddToHistory) isAction()                {}
func (SetEnvironments) isAction()             {}
func (SetActiveEnvironment) isAction()        {}
func (SetLoading) isAction()                  {}
func (SetResponse) isAction()                 {}
func (LoadData) isAction()                    {}

// ActionName returns the type name of an action, for logging.
func ActionName(a Action) string {
	name := fmt.Sprintf("%T", a)
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
