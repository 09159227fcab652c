package storage

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/postbox/internal/core"
)

// ExportData is a full snapshot of stored data.
type ExportData struct {
	Collections  []core.Collection   `json:"collections" yaml:"collections"`
	Environments []core.Environment  `json:"environments" yaml:"environments"`
	History      []core.HistoryEntry `json:"history" yaml:"history"`
	Settings     core.Settings       `json:"settings" yaml:"settings"`
	ExportedAt   time.Time           `json:"exportedAt" yaml:"exportedAt"`
}

// ImportData is a possibly partial snapshot. Nil fields are skipped.
type ImportData struct {
	Collections  []core.Collection   `json:"collections,omitempty" yaml:"collections,omitempty"`
	Environments []core.Environment  `json:"environments,omitempty" yaml:"environments,omitempty"`
	History      []core.HistoryEntry `json:"history,omitempty" yaml:"history,omitempty"`
	Settings     *core.SettingsPatch `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Export reads every domain into a snapshot.
func (m *Manager) Export(ctx context.Context) (ExportData, error) {
	cols, err := m.Collections(ctx)
	if err != nil {
		return ExportData{}, err
	}
	envs, err := m.Environments(ctx)
	if err != nil {
		return ExportData{}, err
	}
	history, err := m.History(ctx)
	if err != nil {
		return ExportData{}, err
	}
	settings, err := m.Settings(ctx)
	if err != nil {
		return ExportData{}, err
	}

	return ExportData{
		Collections:  cols,
		Environments: envs,
		History:      history,
		Settings:     settings,
		ExportedAt:   m.now(),
	}, nil
}

// Import writes every present field through its save operation. A failing
// field does not stop the others; all failures are returned joined.
func (m *Manager) Import(ctx context.Context, data ImportData) error {
	var errs []error
	if data.Collections != nil {
		errs = append(errs, m.SaveCollections(ctx, data.Collections))
	}
	if data.Environments != nil {
		errs = append(errs, m.SaveEnvironments(ctx, data.Environments))
	}
	if data.History != nil {
		errs = append(errs, m.SaveHistory(ctx, data.History))
	}
	if data.Settings != nil {
		errs = append(errs, m.SaveSettings(ctx, *data.Settings))
	}
	return errors.Join(errs...)
}

// Usage reports how much of the store's capacity is in use.
type Usage struct {
	Used       int     `json:"used"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Usage sums the size of every stored item, including keys the manager does
// not own.
func (m *Manager) Usage(ctx context.Context) (Usage, error) {
	usage := Usage{Total: m.capacity}

	items, err := m.kv.List(ctx)
	if err != nil {
		return usage, err
	}
	for _, item := range items {
		usage.Used += item.Size()
	}
	usage.Percentage = float64(usage.Used) / float64(usage.Total) * 100
	return usage, nil
}
