package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/exporter"
	"github.com/artpar/postbox/internal/importer"
	"github.com/artpar/postbox/internal/storage"
	"github.com/artpar/postbox/internal/store"
)

// LoadData folds the snapshot's collections, history and environments into
// the state, replacing or merging. Settings are only applied by Restore.
func (a *App) LoadData(snap importer.Snapshot, replace bool) {
	a.store.Dispatch(store.LoadData{Data: snap.Data, ReplaceExisting: replace})
}

// ImportFile reads path, parses it in format (auto-detected when empty) and
// folds the result into the state. Nothing changes when parsing fails.
func (a *App) ImportFile(ctx context.Context, path string, format importer.Format, replace bool) (*importer.Result, error) {
	content, err := a.files.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	result, err := a.importers.ImportFile(ctx, path, format, content)
	if err != nil {
		return nil, err
	}

	a.LoadData(*result.Snapshot, replace)
	a.logger.Info("imported file",
		"path", path,
		"format", result.SourceFormat,
		"collections", len(result.Snapshot.Collections),
		"replace", replace,
	)
	return result, nil
}

// ExportFile writes the stored data to path. An empty format is taken from
// the file extension, falling back to JSON.
func (a *App) ExportFile(ctx context.Context, path string, format exporter.Format) (*exporter.Result, error) {
	if format == "" {
		format = a.formatForPath(path)
	}

	data, err := a.storage.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored data: %w", err)
	}

	result, err := a.exporters.Export(ctx, format, data)
	if err != nil {
		return nil, err
	}
	if err := a.files.WriteFile(path, result.Content); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return result, nil
}

// formatForPath picks the exporter with the longest extension matching path.
func (a *App) formatForPath(path string) exporter.Format {
	lower := strings.ToLower(path)
	format, best := exporter.FormatJSON, 0
	for _, f := range a.exporters.ListFormats() {
		exp, _ := a.exporters.Get(f)
		ext := exp.FileExtension()
		if strings.HasSuffix(lower, ext) && len(ext) > best {
			format, best = f, len(ext)
		}
	}
	if best == 0 && strings.HasSuffix(lower, ".yml") {
		return exporter.FormatYAML
	}
	return format
}

// Restore writes a native snapshot file straight to storage and reloads the
// state from it.
func (a *App) Restore(ctx context.Context, path string) error {
	content, err := a.files.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	result, err := a.importers.ImportFile(ctx, path, importer.FormatAuto, content)
	if err != nil {
		return err
	}
	if result.SourceFormat != importer.FormatJSON && result.SourceFormat != importer.FormatYAML {
		return fmt.Errorf("%w: restore needs a postbox snapshot, got %s", importer.ErrInvalidFormat, result.SourceFormat)
	}

	snap := result.Snapshot
	if err := a.storage.Import(ctx, storage.ImportData{
		Collections:  snap.Collections,
		Environments: snap.Environments,
		History:      snap.History,
		Settings:     snap.Settings,
	}); err != nil {
		return fmt.Errorf("failed to restore: %w", err)
	}
	return a.Load(ctx)
}

// Settings returns the stored settings.
func (a *App) Settings(ctx context.Context) (core.Settings, error) {
	return a.storage.Settings(ctx)
}

// UpdateSettings merges patch into the stored settings. History is saved
// again so the new limits take effect.
func (a *App) UpdateSettings(ctx context.Context, patch core.SettingsPatch) error {
	if err := core.Validate(patch); err != nil {
		return err
	}
	if err := a.storage.SaveSettings(ctx, patch); err != nil {
		return err
	}
	return a.storage.SaveHistory(ctx, a.store.State().History)
}

// Reset wipes every stored key and empties the state.
func (a *App) Reset(ctx context.Context) error {
	if !a.prompter.Confirm(ctx, "Delete all collections, history, environments and settings?") {
		return ErrCancelled
	}
	if err := a.storage.ClearAll(ctx); err != nil {
		return err
	}

	a.silently(func() {
		a.store.Dispatch(store.SetCurrentRequest{Request: nil})
		a.store.Dispatch(store.SetResponse{Response: nil})
		a.store.Dispatch(store.SetActiveEnvironment{Environment: nil})
		a.store.Dispatch(store.LoadData{ReplaceExisting: true})
	})
	return nil
}
