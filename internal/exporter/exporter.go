// Package exporter writes stored data out in file formats: the native JSON
// and YAML snapshots, Postman collections and curl scripts.
package exporter

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/postbox/internal/storage"
)

// Common errors
var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrExportFailed  = errors.New("export failed")
)

// Format represents a supported export format.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatPostman Format = "postman"
	FormatCurl    Format = "curl"
)

// Exporter defines the interface for exporting a snapshot to a file format.
type Exporter interface {
	// Name returns the name of this exporter.
	Name() string

	// Format returns the format this exporter produces.
	Format() Format

	// FileExtension returns the file extension for exported files.
	FileExtension() string

	// Export encodes the snapshot.
	Export(ctx context.Context, data storage.ExportData) ([]byte, error)
}

// Result contains the result of an export operation.
type Result struct {
	Content       []byte
	Format        Format
	FileExtension string
}

// Registry holds all registered exporters.
type Registry struct {
	exporters map[Format]Exporter
	order     []Format
}

// NewRegistry creates an empty exporter registry.
func NewRegistry() *Registry {
	return &Registry{
		exporters: make(map[Format]Exporter),
	}
}

// DefaultRegistry returns a registry with every built-in exporter.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewJSONExporter())
	r.Register(NewYAMLExporter())
	r.Register(NewPostmanExporter())
	r.Register(NewCurlExporter())
	return r
}

// Register adds an exporter to the registry.
func (r *Registry) Register(exp Exporter) {
	if _, exists := r.exporters[exp.Format()]; !exists {
		r.order = append(r.order, exp.Format())
	}
	r.exporters[exp.Format()] = exp
}

// Get returns an exporter by format.
func (r *Registry) Get(format Format) (Exporter, bool) {
	exp, ok := r.exporters[format]
	return exp, ok
}

// Export encodes data using the specified format. An empty format means JSON.
func (r *Registry) Export(ctx context.Context, format Format, data storage.ExportData) (*Result, error) {
	if format == "" {
		format = FormatJSON
	}

	exp, ok := r.exporters[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	content, err := exp.Export(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	return &Result{
		Content:       content,
		Format:        format,
		FileExtension: exp.FileExtension(),
	}, nil
}

// ListFormats returns all registered formats in registration order.
func (r *Registry) ListFormats() []Format {
	formats := make([]Format, len(r.order))
	copy(formats, r.order)
	return formats
}
