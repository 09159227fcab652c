package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/postbox/internal/core"
)

const (
	previewLength       = 1000
	minimalHistoryItems = 10

	truncatedMessage = "Response too large for history storage"
	removedMessage   = "Data removed to save space"
)

// SaveHistory applies the retention settings to history and stores it.
//
// Entries older than maxHistoryAge days are dropped when autoCleanup is on,
// oversized response bodies are replaced by a preview, and the list is capped
// at maxHistoryItems. If the store rejects the result, progressively smaller
// versions are tried; see historyFallbacks.
func (m *Manager) SaveHistory(ctx context.Context, history []core.HistoryEntry) error {
	settings, err := m.Settings(ctx)
	if err != nil {
		m.logger.Warn("using default settings for history save", "error", err)
		settings = core.DefaultSettings()
	}

	processed := PrepareHistory(history, settings, m.now())

	if err := m.saveHistoryWithFallback(ctx, processed); err != nil {
		m.logger.Error("failed to save history", "error", err)
		if errors.Is(err, ErrQuotaExceeded) {
			m.handleQuotaExceeded(ctx, "history")
		}
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// PrepareHistory applies age cleanup, response truncation and the item cap.
// The input is not modified.
func PrepareHistory(history []core.HistoryEntry, settings core.Settings, now time.Time) []core.HistoryEntry {
	processed := make([]core.HistoryEntry, 0, len(history))

	cutoff := now.AddDate(0, 0, -settings.MaxHistoryAge)
	for _, entry := range history {
		if settings.AutoCleanup && entry.Timestamp.Before(cutoff) {
			continue
		}
		entry.Response = LimitResponseSize(entry.Response, settings.MaxResponseSize)
		processed = append(processed, entry)
	}

	if limit := max(settings.MaxHistoryItems, 0); len(processed) > limit {
		processed = processed[:limit]
	}
	return processed
}

// LimitResponseSize replaces the body of a response whose serialized form is
// longer than maxSize with a truncation marker. Status, headers, timing and
// size are kept. Responses that already carry a marker are returned as is.
func LimitResponseSize(resp core.Response, maxSize int) core.Response {
	if resp.IsTruncated() {
		return resp
	}

	serialized, err := core.Stringify(resp)
	if err != nil || len(serialized) <= maxSize {
		return resp
	}

	var preview string
	if s, ok := resp.Data.(string); ok {
		preview = s
	} else {
		preview, _ = core.Stringify(resp.Data)
	}

	resp.Data = map[string]any{
		"_truncated":    true,
		"_originalSize": len(serialized),
		"_message":      truncatedMessage,
		"_preview":      firstRunes(preview, previewLength) + "...",
	}
	return resp
}

// historyFallback is one way of persisting history.
type historyFallback struct {
	name  string
	write func(ctx context.Context, m *Manager, history []core.HistoryEntry) error
}

// historyFallbacks are tried in order until one succeeds.
var historyFallbacks = []historyFallback{
	{
		name: "full",
		write: func(ctx context.Context, m *Manager, history []core.HistoryEntry) error {
			return m.writeHistory(ctx, history)
		},
	},
	{
		name: "half",
		write: func(ctx context.Context, m *Manager, history []core.HistoryEntry) error {
			return m.writeHistory(ctx, history[:len(history)/2])
		},
	},
	{
		name: "minimal",
		write: func(ctx context.Context, m *Manager, history []core.HistoryEntry) error {
			return m.writeHistory(ctx, minimalHistory(history))
		},
	},
	{
		name: "clear",
		write: func(ctx context.Context, m *Manager, _ []core.HistoryEntry) error {
			return m.kv.Delete(ctx, KeyHistory)
		},
	},
}

func (m *Manager) saveHistoryWithFallback(ctx context.Context, history []core.HistoryEntry) error {
	var errs []error
	for i, fallback := range historyFallbacks {
		err := fallback.write(ctx, m, history)
		if err == nil {
			if i > 0 {
				m.logger.Warn("history saved with fallback method", "method", fallback.name, "entries", len(history))
			}
			return nil
		}
		m.logger.Debug("history write failed", "method", fallback.name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", fallback.name, err))
	}
	return errors.Join(errs...)
}

func (m *Manager) writeHistory(ctx context.Context, history []core.HistoryEntry) error {
	data, err := core.Stringify(history)
	if err != nil {
		return err
	}
	return m.kv.Set(ctx, KeyHistory, data)
}

// minimalHistory keeps the newest entries with their response bodies and
// headers dropped.
func minimalHistory(history []core.HistoryEntry) []core.HistoryEntry {
	n := min(len(history), minimalHistoryItems)
	out := make([]core.HistoryEntry, n)
	for i, entry := range history[:n] {
		entry.Response = core.Response{
			Status:       entry.Response.Status,
			StatusText:   entry.Response.StatusText,
			Headers:      map[string]string{},
			Data:         map[string]any{"_truncated": true, "_message": removedMessage},
			ResponseTime: entry.Response.ResponseTime,
			Size:         entry.Response.Size,
		}
		out[i] = entry
	}
	return out
}

func firstRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
