package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/store"
)

// CreateDefaultRequest returns a fresh transient request.
func (a *App) CreateDefaultRequest() core.RequestConfig {
	return core.NewRequestConfig()
}

// SaveRequestToCollection updates req in the collection when a request with
// its id is already there and adds it otherwise.
func (a *App) SaveRequestToCollection(collectionID string, req core.RequestConfig) error {
	col, ok := a.store.State().FindCollection(collectionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collectionID)
	}

	if col.RequestIndex(req.ID) >= 0 {
		a.store.Dispatch(store.UpdateRequestInCollection{CollectionID: collectionID, Request: req})
	} else {
		a.store.Dispatch(store.AddRequestToCollection{CollectionID: collectionID, Request: req})
	}
	return nil
}

// UpdateRequestInCollection stores a new version of req.
func (a *App) UpdateRequestInCollection(collectionID string, req core.RequestConfig) {
	a.store.Dispatch(store.UpdateRequestInCollection{CollectionID: collectionID, Request: req})
}

// DeleteRequestFromCollection removes a request. The request being edited
// is left alone even when it is the one removed.
func (a *App) DeleteRequestFromCollection(collectionID, requestID string) {
	a.store.Dispatch(store.DeleteRequestFromCollection{CollectionID: collectionID, RequestID: requestID})
}

// CreateCollection adds an empty collection and returns its id.
func (a *App) CreateCollection(name string) string {
	col := core.NewCollection(name)
	a.store.Dispatch(store.AddCollection{Collection: col})
	return col.ID
}

// RenameCollection renames a collection.
func (a *App) RenameCollection(id, name string) error {
	if _, ok := a.store.State().FindCollection(id); !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
	}
	a.store.Dispatch(store.RenameCollection{ID: id, Name: name})
	return nil
}

// DeleteCollection permanently removes a collection and its requests once
// the user confirms.
func (a *App) DeleteCollection(ctx context.Context, id string) error {
	col, ok := a.store.State().FindCollection(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
	}

	msg := fmt.Sprintf("Delete collection %q and its %d requests? This cannot be undone.", col.Name, len(col.Requests))
	if !a.prompter.Confirm(ctx, msg) {
		return ErrCancelled
	}
	a.store.Dispatch(store.PermanentDeleteCollection{ID: id})
	return nil
}

// FindRequestCollection returns the collection holding the request.
func (a *App) FindRequestCollection(requestID string) (core.Collection, bool) {
	for _, col := range a.store.State().Collections {
		if col.RequestIndex(requestID) >= 0 {
			return col, true
		}
	}
	return core.Collection{}, false
}

// RequestResponse returns the response of the most recent send of the
// request.
func (a *App) RequestResponse(requestID string) (core.Response, bool) {
	for _, entry := range a.store.State().History {
		if entry.Request.ID == requestID {
			return entry.Response, true
		}
	}
	return core.Response{}, false
}

// SelectRequest makes req the request being edited and shows its last
// response. Unsaved edits are only discarded after the user agrees; the
// result reports whether the switch happened.
func (a *App) SelectRequest(ctx context.Context, req core.RequestConfig) bool {
	if a.store.State().IsRequestModified && !a.prompter.Confirm(ctx, UnsavedChangesMessage) {
		return false
	}

	a.store.Dispatch(store.SetCurrentRequest{Request: &req})
	if resp, ok := a.RequestResponse(req.ID); ok {
		a.store.Dispatch(store.SetResponse{Response: &resp})
	} else {
		a.store.Dispatch(store.SetResponse{Response: nil})
	}
	return true
}

// EditRequest applies a patch to the request being edited.
func (a *App) EditRequest(patch core.RequestPatch) error {
	if a.store.State().CurrentRequest == nil {
		return ErrNoRequest
	}
	a.store.Dispatch(store.UpdateCurrentRequest{Patch: patch})
	return nil
}

// SaveCurrentRequest saves the request being edited into the collection.
func (a *App) SaveCurrentRequest(collectionID string) error {
	current := a.store.State().CurrentRequest
	if current == nil {
		return ErrNoRequest
	}
	return a.SaveRequestToCollection(collectionID, *current)
}

// FindCollection looks a collection up by id, then by name.
func (a *App) FindCollection(ref string) (core.Collection, error) {
	state := a.store.State()
	if col, ok := state.FindCollection(ref); ok {
		return col, nil
	}
	if col, ok := state.FindCollectionByName(ref); ok {
		return col, nil
	}
	return core.Collection{}, fmt.Errorf("%w: %s", ErrCollectionNotFound, ref)
}

// FindRequest resolves a request reference: a request id, or
// "collection/request" where each part is an id or a name.
func (a *App) FindRequest(ref string) (core.RequestConfig, core.Collection, error) {
	if col, ok := a.FindRequestCollection(ref); ok {
		req, _ := col.GetRequest(ref)
		return req, col, nil
	}

	colRef, reqRef, found := strings.Cut(ref, "/")
	if !found {
		return core.RequestConfig{}, core.Collection{}, fmt.Errorf("%w: %s", ErrRequestNotFound, ref)
	}
	col, err := a.FindCollection(colRef)
	if err != nil {
		return core.RequestConfig{}, core.Collection{}, err
	}
	if req, ok := col.GetRequest(reqRef); ok {
		return req, col, nil
	}
	if req, ok := col.GetRequestByName(reqRef); ok {
		return req, col, nil
	}
	return core.RequestConfig{}, core.Collection{}, fmt.Errorf("%w: %s", ErrRequestNotFound, ref)
}

// SetActiveEnvironment activates the environment with the given id or
// name. An empty reference clears the active environment.
func (a *App) SetActiveEnvironment(ref string) error {
	if ref == "" {
		a.store.Dispatch(store.SetActiveEnvironment{Environment: nil})
		return nil
	}

	env, ok := core.FindEnvironment(a.store.State().Environments, ref)
	if !ok {
		return fmt.Errorf("%w: %s", ErrEnvironmentNotFound, ref)
	}
	a.store.Dispatch(store.SetActiveEnvironment{Environment: &env})
	return nil
}

// UpsertEnvironment replaces the environment with the same id or appends
// it. An active environment with that id is refreshed too.
func (a *App) UpsertEnvironment(env core.Environment) {
	state := a.store.State()
	envs := state.Environments
	replaced := false
	for i := range envs {
		if envs[i].ID == env.ID {
			envs[i] = env
			replaced = true
		}
	}
	if !replaced {
		envs = append(envs, env)
	}

	a.store.Dispatch(store.SetEnvironments{Environments: envs})
	if state.ActiveEnvironment != nil && state.ActiveEnvironment.ID == env.ID {
		a.store.Dispatch(store.SetActiveEnvironment{Environment: &env})
	}
}

// DeleteEnvironment removes an environment, clearing it first when it is
// active.
func (a *App) DeleteEnvironment(ctx context.Context, id string) error {
	state := a.store.State()
	env, ok := core.FindEnvironment(state.Environments, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrEnvironmentNotFound, id)
	}
	if !a.prompter.Confirm(ctx, fmt.Sprintf("Delete environment %q?", env.Name)) {
		return ErrCancelled
	}

	if state.ActiveEnvironment != nil && state.ActiveEnvironment.ID == env.ID {
		a.store.Dispatch(store.SetActiveEnvironment{Environment: nil})
	}

	envs := make([]core.Environment, 0, len(state.Environments))
	for _, e := range state.Environments {
		if e.ID != env.ID {
			envs = append(envs, e)
		}
	}
	a.store.Dispatch(store.SetEnvironments{Environments: envs})
	return nil
}

// ClearHistory empties the history once the user confirms.
func (a *App) ClearHistory(ctx context.Context) error {
	if !a.prompter.Confirm(ctx, "Clear all request history?") {
		return ErrCancelled
	}
	a.store.Dispatch(store.SetHistory{History: nil})
	return nil
}
