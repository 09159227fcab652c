package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/artpar/postbox/internal/core"
)

// Storage keys.
const (
	KeyCollections       = "api-client-collections"
	KeyHistory           = "api-client-history"
	KeyEnvironments      = "api-client-environments"
	KeyActiveEnvironment = "api-client-active-environment"
	KeyTheme             = "api-client-theme"
	KeySettings          = "api-client-settings"
	KeyCookies           = "api-client-cookies"
)

// AllKeys lists every key the manager owns.
func AllKeys() []string {
	return []string{
		KeyCollections,
		KeyHistory,
		KeyEnvironments,
		KeyActiveEnvironment,
		KeyTheme,
		KeySettings,
		KeyCookies,
	}
}

// emergencyHistoryItems is how much history survives a failed write of
// another domain.
const emergencyHistoryItems = 20

// Notifier shows a warning to the user.
type Notifier interface {
	Warn(message string)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// Manager reads and writes application data through a KV, degrading history
// when space runs out.
type Manager struct {
	kv        KV
	logger    *slog.Logger
	notifier  Notifier
	confirmer Confirmer
	now       func() time.Time
	capacity  int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithNotifier sets where storage warnings are shown.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithConfirmer enables offering to clear history when storage is full.
func WithConfirmer(c Confirmer) Option {
	return func(m *Manager) {
		m.confirmer = c
	}
}

// WithClock sets the clock used for history age cleanup and export stamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithCapacity sets the total reported by Usage.
func WithCapacity(bytes int) Option {
	return func(m *Manager) {
		if bytes > 0 {
			m.capacity = bytes
		}
	}
}

// NewManager creates a manager over kv.
func NewManager(kv KV, opts ...Option) *Manager {
	m := &Manager{
		kv:       kv,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      core.Now,
		capacity: DefaultQuota,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// KV returns the underlying store.
func (m *Manager) KV() KV {
	return m.kv
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.kv.Close()
}

// Settings returns the stored settings over the defaults. Stored settings
// that fail validation are logged and the defaults used instead.
func (m *Manager) Settings(ctx context.Context) (core.Settings, error) {
	defaults := core.DefaultSettings()

	var patch core.SettingsPatch
	found, err := m.load(ctx, KeySettings, &patch)
	if err != nil || !found {
		return defaults, err
	}
	settings := patch.Apply(defaults)
	if err := core.Validate(settings); err != nil {
		m.logger.Warn("ignoring invalid stored settings", "error", err)
		return defaults, nil
	}
	return settings, nil
}

// SaveSettings merges patch over the current settings and stores the result.
func (m *Manager) SaveSettings(ctx context.Context, patch core.SettingsPatch) error {
	current, err := m.Settings(ctx)
	if err != nil {
		return err
	}
	updated := patch.Apply(current)
	if err := core.Validate(updated); err != nil {
		return err
	}

	data, err := core.Stringify(updated)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := m.kv.Set(ctx, KeySettings, data); err != nil {
		m.logger.Error("failed to save settings", "error", err)
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Collections returns the stored collections.
func (m *Manager) Collections(ctx context.Context) ([]core.Collection, error) {
	var cols []core.Collection
	if _, err := m.load(ctx, KeyCollections, &cols); err != nil {
		return []core.Collection{}, err
	}
	if cols == nil {
		cols = []core.Collection{}
	}
	return cols, nil
}

// SaveCollections stores the collections.
func (m *Manager) SaveCollections(ctx context.Context, cols []core.Collection) error {
	if cols == nil {
		cols = []core.Collection{}
	}
	return m.save(ctx, KeyCollections, "collections", cols)
}

// History returns the stored history, newest first.
func (m *Manager) History(ctx context.Context) ([]core.HistoryEntry, error) {
	var history []core.HistoryEntry
	if _, err := m.load(ctx, KeyHistory, &history); err != nil {
		return []core.HistoryEntry{}, err
	}
	if history == nil {
		history = []core.HistoryEntry{}
	}
	return history, nil
}

// Environments returns the stored environments.
func (m *Manager) Environments(ctx context.Context) ([]core.Environment, error) {
	var envs []core.Environment
	if _, err := m.load(ctx, KeyEnvironments, &envs); err != nil {
		return []core.Environment{}, err
	}
	if envs == nil {
		envs = []core.Environment{}
	}
	return envs, nil
}

// SaveEnvironments stores the environments.
func (m *Manager) SaveEnvironments(ctx context.Context, envs []core.Environment) error {
	if envs == nil {
		envs = []core.Environment{}
	}
	return m.save(ctx, KeyEnvironments, "environments", envs)
}

// ActiveEnvironment returns the stored active environment id, or "".
func (m *Manager) ActiveEnvironment(ctx context.Context) (string, error) {
	id, err := m.kv.Get(ctx, KeyActiveEnvironment)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load active environment: %w", err)
	}
	return id, nil
}

// SetActiveEnvironment stores the active environment id.
func (m *Manager) SetActiveEnvironment(ctx context.Context, id string) error {
	if err := m.kv.Set(ctx, KeyActiveEnvironment, id); err != nil {
		return fmt.Errorf("failed to save active environment: %w", err)
	}
	return nil
}

// ClearActiveEnvironment removes the stored active environment id.
func (m *Manager) ClearActiveEnvironment(ctx context.Context) error {
	if err := m.kv.Delete(ctx, KeyActiveEnvironment); err != nil {
		return fmt.Errorf("failed to clear active environment: %w", err)
	}
	return nil
}

// ClearHistory removes all stored history.
func (m *Manager) ClearHistory(ctx context.Context) error {
	if err := m.kv.Delete(ctx, KeyHistory); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// ClearAll removes every key the manager owns.
func (m *Manager) ClearAll(ctx context.Context) error {
	var errs []error
	for _, key := range AllKeys() {
		if err := m.kv.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// load decodes the JSON stored under key into v. A missing key reports
// found=false. Malformed JSON is logged and treated as missing.
func (m *Manager) load(ctx context.Context, key string, v any) (bool, error) {
	data, err := m.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(data), v); err != nil {
		m.logger.Error("ignoring malformed stored data", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// save writes a non-history domain. When the store is full, stored history is
// cut down and the user is warned; the write itself is not retried.
func (m *Manager) save(ctx context.Context, key, domain string, v any) error {
	data, err := core.Stringify(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", domain, err)
	}

	err = m.kv.Set(ctx, key, data)
	if err == nil {
		return nil
	}

	m.logger.Error("failed to save", "domain", domain, "error", err)
	if errors.Is(err, ErrQuotaExceeded) {
		m.handleQuotaExceeded(ctx, domain)
	}
	return fmt.Errorf("failed to save %s: %w", domain, err)
}

// handleQuotaExceeded frees space after a failed write of domain.
func (m *Manager) handleQuotaExceeded(ctx context.Context, domain string) {
	m.logger.Warn("storage quota exceeded, attempting cleanup", "domain", domain)

	if domain != "history" {
		if err := m.shrinkHistory(ctx, emergencyHistoryItems); err != nil {
			m.logger.Error("failed to clean up history", "error", err)
		} else {
			m.logger.Info("cleaned up history to free space")
		}
	}

	what := "Data"
	if domain == "history" {
		what = "History"
	}
	message := fmt.Sprintf("Storage is full! %s may not be saved properly. Consider clearing old data.", what)

	if m.notifier != nil {
		m.notifier.Warn(message)
	}
	if m.confirmer != nil && m.confirmer.Confirm(ctx, message+"\n\nWould you like to clear old history to free up space?") {
		if err := m.kv.Delete(ctx, KeyHistory); err != nil {
			m.logger.Error("failed to clear history", "error", err)
		}
	}
}

// shrinkHistory keeps only the newest n stored history entries.
func (m *Manager) shrinkHistory(ctx context.Context, n int) error {
	history, err := m.History(ctx)
	if err != nil {
		return err
	}
	if len(history) > n {
		history = history[:n]
	}
	data, err := core.Stringify(history)
	if err != nil {
		return err
	}
	return m.kv.Set(ctx, KeyHistory, data)
}
