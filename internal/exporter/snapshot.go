package exporter

import (
	"bytes"
	"context"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/storage"
)

// JSONExporter writes the snapshot as indented JSON.
type JSONExporter struct {
	Indent string
}

// NewJSONExporter creates a JSON exporter indenting with two spaces.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{Indent: "  "}
}

func (j *JSONExporter) Name() string {
	return "postbox JSON"
}

func (j *JSONExporter) Format() Format {
	return FormatJSON
}

func (j *JSONExporter) FileExtension() string {
	return ".json"
}

func (j *JSONExporter) Export(ctx context.Context, data storage.ExportData) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", j.Indent)
	if err := enc.Encode(normalize(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// YAMLExporter writes the snapshot as YAML.
type YAMLExporter struct{}

// NewYAMLExporter creates a new YAML exporter.
func NewYAMLExporter() *YAMLExporter {
	return &YAMLExporter{}
}

func (y *YAMLExporter) Name() string {
	return "postbox YAML"
}

func (y *YAMLExporter) Format() Format {
	return FormatYAML
}

func (y *YAMLExporter) FileExtension() string {
	return ".yaml"
}

func (y *YAMLExporter) Export(ctx context.Context, data storage.ExportData) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(normalize(data)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// normalize writes empty lists instead of nulls.
func normalize(data storage.ExportData) storage.ExportData {
	if data.Collections == nil {
		data.Collections = []core.Collection{}
	}
	if data.Environments == nil {
		data.Environments = []core.Environment{}
	}
	if data.History == nil {
		data.History = []core.HistoryEntry{}
	}
	return data
}

var (
	_ Exporter = (*JSONExporter)(nil)
	_ Exporter = (*YAMLExporter)(nil)
)
