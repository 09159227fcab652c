// Package app is the application root. It owns the store, keeps storage in
// step with it and exposes the operations the command line drives.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/exporter"
	"github.com/artpar/postbox/internal/importer"
	"github.com/artpar/postbox/internal/storage"
	"github.com/artpar/postbox/internal/store"
)

// Common errors
var (
	ErrNoRequest           = errors.New("no request selected")
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrRequestNotFound     = errors.New("request not found")
	ErrEnvironmentNotFound = errors.New("environment not found")
	ErrCancelled           = errors.New("cancelled")
)

// UnsavedChangesMessage is asked before unsaved edits are discarded.
const UnsavedChangesMessage = "You have unsaved changes. Do you want to discard them and continue?"

// Sender executes a request. On failure it returns an error-shaped response
// alongside the error.
type Sender interface {
	Send(ctx context.Context, req core.RequestConfig, env *core.Environment) (core.Response, error)
}

// Prompter asks the user to confirm a destructive action.
type Prompter interface {
	Confirm(ctx context.Context, message string) bool
}

// Files reads and writes import and export files.
type Files interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
}

// AcceptAll confirms every prompt. It is the default for non-interactive use.
type AcceptAll struct{}

func (AcceptAll) Confirm(context.Context, string) bool { return true }

// OSFiles is the operating system filesystem.
type OSFiles struct{}

func (OSFiles) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (OSFiles) WriteFile(path string, data []byte) error { return os.WriteFile(path, data, 0o644) }

// ErrorHandler is told about persistence failures that happen behind a
// state change.
type ErrorHandler func(domain store.Domain, err error)

// App wires the store to storage and to the request sender.
type App struct {
	store     *store.Store
	storage   *storage.Manager
	sender    Sender
	prompter  Prompter
	files     Files
	importers *importer.Registry
	exporters *exporter.Registry
	logger    *slog.Logger
	onError   ErrorHandler

	seedSample  bool
	storeOpts   []store.Option
	unsubscribe func()

	// muted turns the persistence listener off while state is rebuilt
	// from storage.
	muted atomic.Bool
	wg    sync.WaitGroup
}

// Option is a function that configures the App.
type Option func(*App)

// WithPrompter sets the confirmation prompt.
func WithPrompter(p Prompter) Option {
	return func(a *App) {
		if p != nil {
			a.prompter = p
		}
	}
}

// WithFiles sets the filesystem used for import and export.
func WithFiles(f Files) Option {
	return func(a *App) {
		if f != nil {
			a.files = f
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithErrorHandler sets the callback for background persistence failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.onError = h
	}
}

// WithSampleCollection controls whether Load seeds a sample collection into
// empty storage. It is on by default.
func WithSampleCollection(enabled bool) Option {
	return func(a *App) {
		a.seedSample = enabled
	}
}

// WithStoreOptions passes options to the underlying store.
func WithStoreOptions(opts ...store.Option) Option {
	return func(a *App) {
		a.storeOpts = append(a.storeOpts, opts...)
	}
}

// WithImporters replaces the import registry.
func WithImporters(r *importer.Registry) Option {
	return func(a *App) {
		if r != nil {
			a.importers = r
		}
	}
}

// WithExporters replaces the export registry.
func WithExporters(r *exporter.Registry) Option {
	return func(a *App) {
		if r != nil {
			a.exporters = r
		}
	}
}

// New creates an App over manager. The store starts empty; call Load to
// fill it from storage.
func New(manager *storage.Manager, sender Sender, opts ...Option) *App {
	a := &App{
		storage:    manager,
		sender:     sender,
		prompter:   AcceptAll{},
		files:      OSFiles{},
		importers:  importer.DefaultRegistry(),
		exporters:  exporter.DefaultRegistry(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		seedSample: true,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.store = store.New(append([]store.Option{store.WithLogger(a.logger)}, a.storeOpts...)...)
	a.unsubscribe = a.store.Subscribe(a.persist)
	return a
}

// Close waits for background sends and detaches from the store.
func (a *App) Close() error {
	a.wg.Wait()
	a.unsubscribe()
	return nil
}

// Store returns the underlying store.
func (a *App) Store() *store.Store {
	return a.store
}

// Storage returns the persistence manager.
func (a *App) Storage() *storage.Manager {
	return a.storage
}

// State returns a copy of the current state.
func (a *App) State() store.State {
	return a.store.State()
}

// Dispatch applies an action to the store.
func (a *App) Dispatch(action store.Action) {
	a.store.Dispatch(action)
}

// persist writes every domain the transition replaced. Failures never undo
// the transition.
func (a *App) persist(prev, next store.State) {
	if a.muted.Load() {
		return
	}

	changed := store.Changed(prev, next)
	if changed == 0 {
		return
	}

	ctx := context.Background()
	if changed.Has(store.DomainCollections) {
		a.report(store.DomainCollections, a.storage.SaveCollections(ctx, next.Collections))
	}
	if changed.Has(store.DomainHistory) {
		a.report(store.DomainHistory, a.storage.SaveHistory(ctx, next.History))
	}
	if changed.Has(store.DomainEnvironments) {
		a.report(store.DomainEnvironments, a.storage.SaveEnvironments(ctx, next.Environments))
	}
	if changed.Has(store.DomainActiveEnvironment) {
		var err error
		if next.ActiveEnvironment == nil {
			err = a.storage.ClearActiveEnvironment(ctx)
		} else {
			err = a.storage.SetActiveEnvironment(ctx, next.ActiveEnvironment.ID)
		}
		a.report(store.DomainActiveEnvironment, err)
	}
}

func (a *App) report(domain store.Domain, err error) {
	if err == nil {
		return
	}
	a.logger.Warn("failed to persist state", "domain", domain.String(), "error", err)
	if a.onError != nil {
		a.onError(domain, err)
	}
}

// silently runs fn with the persistence listener off.
func (a *App) silently(fn func()) {
	a.muted.Store(true)
	defer a.muted.Store(false)
	fn()
}

// Load fills the store from storage. Empty storage gets the sample
// collection; requests missing a collection id are linked to their
// collection; the stored active environment is restored when it still exists.
func (a *App) Load(ctx context.Context) error {
	cols, err := a.storage.Collections(ctx)
	if err != nil {
		return fmt.Errorf("failed to load collections: %w", err)
	}
	history, err := a.storage.History(ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	envs, err := a.storage.Environments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load environments: %w", err)
	}
	activeID, err := a.storage.ActiveEnvironment(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active environment: %w", err)
	}

	dirty := false
	if len(cols) == 0 && a.seedSample {
		cols = []core.Collection{SampleCollection()}
		dirty = true
	} else {
		for i := range cols {
			for j := range cols[i].Requests {
				if cols[i].Requests[j].CollectionID == "" {
					cols[i].Requests[j].CollectionID = cols[i].ID
					dirty = true
				}
			}
		}
	}

	a.silently(func() {
		a.store.Dispatch(store.SetCollections{Collections: cols})
		a.store.Dispatch(store.SetHistory{History: history})
		a.store.Dispatch(store.SetEnvironments{Environments: envs})
		var active *core.Environment
		for _, env := range envs {
			if activeID != "" && env.ID == activeID {
				active = &env
				break
			}
		}
		a.store.Dispatch(store.SetActiveEnvironment{Environment: active})
	})

	a.logger.Debug("state loaded",
		"collections", len(cols),
		"history", len(history),
		"environments", len(envs),
	)

	if dirty {
		if err := a.storage.SaveCollections(ctx, cols); err != nil {
			a.report(store.DomainCollections, err)
		}
	}
	return nil
}

// SampleCollection returns the collection seeded into empty storage.
func SampleCollection() core.Collection {
	col := core.NewCollection("My API Collection")
	col.Description = "Sample collection for testing"

	list := core.NewRequestConfig()
	list.Name = "Get Users"
	list.URL = "https://jsonplaceholder.typicode.com/users"
	list.CollectionID = col.ID

	create := core.NewRequestConfig()
	create.Name = "Create User"
	create.Method = core.MethodPost
	create.URL = "https://jsonplaceholder.typicode.com/users"
	create.Headers = []core.Header{core.NewHeader("Content-Type", "application/json")}
	create.Body = core.Body{
		Type:    core.BodyTypeJSON,
		Content: "{\n  \"name\": \"John Doe\",\n  \"email\": \"john@example.com\"\n}",
	}
	create.CollectionID = col.ID

	col.Requests = []core.RequestConfig{list, create}
	return col
}
