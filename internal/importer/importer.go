// Package importer turns external files into snapshots that can be loaded
// into the application state. Nothing here touches the store: a snapshot is
// parsed and validated first, and only a valid one is handed on.
package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/merge"
)

// Common errors
var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrParseError    = errors.New("parse error")
	ErrValidation    = errors.New("validation failed")
)

// Format represents a supported import format.
type Format string

const (
	FormatAuto    Format = "auto"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatPostman Format = "postman"
	FormatCurl    Format = "curl"
	FormatHAR     Format = "har"
)

// Snapshot is the importable content of a file: collections, history and
// environments, plus optional settings.
type Snapshot struct {
	merge.Data `yaml:",inline"`
	Settings   *core.SettingsPatch `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Validate checks every document in the snapshot.
func (s Snapshot) Validate() error {
	if err := core.ValidateEach(s.Collections); err != nil {
		return fmt.Errorf("%w: collections: %v", ErrValidation, err)
	}
	if err := core.ValidateEach(s.History); err != nil {
		return fmt.Errorf("%w: history: %v", ErrValidation, err)
	}
	if err := core.ValidateEach(s.Environments); err != nil {
		return fmt.Errorf("%w: environments: %v", ErrValidation, err)
	}
	if s.Settings != nil {
		if err := core.Validate(*s.Settings); err != nil {
			return fmt.Errorf("%w: settings: %v", ErrValidation, err)
		}
	}
	return nil
}

// Importer defines the interface for importing snapshots from a file format.
type Importer interface {
	// Name returns the name of this importer.
	Name() string

	// Format returns the format this importer handles.
	Format() Format

	// FileExtensions returns the file extensions this importer can handle.
	FileExtensions() []string

	// DetectFormat checks if the content matches this importer's format.
	DetectFormat(content []byte) bool

	// Import parses the content into a snapshot.
	Import(ctx context.Context, content []byte) (*Snapshot, error)
}

// Result contains the outcome of an import.
type Result struct {
	Snapshot     *Snapshot
	SourceFormat Format
}

// Registry holds the registered importers. Detection tries them in
// registration order.
type Registry struct {
	importers map[Format]Importer
	order     []Format
}

// NewRegistry creates an empty importer registry.
func NewRegistry() *Registry {
	return &Registry{
		importers: make(map[Format]Importer),
	}
}

// DefaultRegistry returns a registry with every built-in importer. The
// specific formats come before the generic snapshot ones.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewPostmanImporter())
	r.Register(NewHARImporter())
	r.Register(NewJSONImporter())
	r.Register(NewCurlImporter())
	r.Register(NewYAMLImporter())
	return r
}

// Register adds an importer, replacing any importer for the same format.
func (r *Registry) Register(imp Importer) {
	if _, exists := r.importers[imp.Format()]; !exists {
		r.order = append(r.order, imp.Format())
	}
	r.importers[imp.Format()] = imp
}

// Get returns an importer by format.
func (r *Registry) Get(format Format) (Importer, bool) {
	imp, ok := r.importers[format]
	return imp, ok
}

// DetectAndImport detects the format of content and imports it.
func (r *Registry) DetectAndImport(ctx context.Context, content []byte) (*Result, error) {
	for _, format := range r.order {
		imp := r.importers[format]
		if imp.DetectFormat(content) {
			return r.run(ctx, imp, content)
		}
	}
	return nil, ErrInvalidFormat
}

// Import imports content using the specified format.
func (r *Registry) Import(ctx context.Context, format Format, content []byte) (*Result, error) {
	if format == FormatAuto || format == "" {
		return r.DetectAndImport(ctx, content)
	}

	imp, ok := r.importers[format]
	if !ok {
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidFormat, format)
	}
	return r.run(ctx, imp, content)
}

// ImportFile imports content read from path. The extension picks the
// importer when format is auto and detection finds nothing.
func (r *Registry) ImportFile(ctx context.Context, path string, format Format, content []byte) (*Result, error) {
	result, err := r.Import(ctx, format, content)
	if !errors.Is(err, ErrInvalidFormat) || (format != FormatAuto && format != "") {
		return result, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range r.order {
		for _, e := range r.importers[f].FileExtensions() {
			if e == ext {
				return r.run(ctx, r.importers[f], content)
			}
		}
	}
	return nil, err
}

func (r *Registry) run(ctx context.Context, imp Importer, content []byte) (*Result, error) {
	snap, err := imp.Import(ctx, content)
	if err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &Result{
		Snapshot:     snap,
		SourceFormat: imp.Format(),
	}, nil
}

// ListFormats returns all registered formats in registration order.
func (r *Registry) ListFormats() []Format {
	formats := make([]Format, len(r.order))
	copy(formats, r.order)
	return formats
}

// singleCollection wraps converted requests into a snapshot holding one
// collection. Requests are linked to it.
func singleCollection(name string, requests []core.RequestConfig) *Snapshot {
	col := core.NewCollection(name)
	for i := range requests {
		requests[i].CollectionID = col.ID
	}
	col.Requests = append(col.Requests, requests...)
	return &Snapshot{Data: merge.Data{
		Collections:  []core.Collection{col},
		History:      []core.HistoryEntry{},
		Environments: []core.Environment{},
	}}
}
