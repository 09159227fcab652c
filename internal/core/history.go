package core

import (
	"time"
)

// HistoryEntry pairs a snapshot of a sent request with its response.
type HistoryEntry struct {
	ID        string        `json:"id" yaml:"id" validate:"required"`
	Request   RequestConfig `json:"request" yaml:"request"`
	Response  Response      `json:"response" yaml:"response"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
}

// NewHistoryEntry snapshots req and pairs it with resp.
func NewHistoryEntry(req RequestConfig, resp Response) HistoryEntry {
	return HistoryEntry{
		ID:        NewID(),
		Request:   req.Clone(),
		Response:  resp,
		Timestamp: Now(),
	}
}

// Clone creates a deep copy of the entry.
func (h HistoryEntry) Clone() HistoryEntry {
	clone := h
	clone.Request = h.Request.Clone()
	clone.Response = h.Response.Clone()
	return clone
}

// CloneHistory deep-copies a history list, preserving nil.
func CloneHistory(in []HistoryEntry) []HistoryEntry {
	if in == nil {
		return nil
	}
	out := make([]HistoryEntry, len(in))
	for i, h := range in {
		out[i] = h.Clone()
	}
	return out
}
