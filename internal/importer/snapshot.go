package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// snapshotKeys are the top-level keys of an exported snapshot.
var snapshotKeys = []string{"collections", "history", "environments", "settings"}

func hasSnapshotKey(doc map[string]any) bool {
	for _, key := range snapshotKeys {
		if _, ok := doc[key]; ok {
			return true
		}
	}
	return false
}

// JSONImporter reads snapshots in the native export format.
type JSONImporter struct{}

// NewJSONImporter creates a new JSON snapshot importer.
func NewJSONImporter() *JSONImporter {
	return &JSONImporter{}
}

func (j *JSONImporter) Name() string {
	return "postbox JSON"
}

func (j *JSONImporter) Format() Format {
	return FormatJSON
}

func (j *JSONImporter) FileExtensions() []string {
	return []string{".json"}
}

func (j *JSONImporter) DetectFormat(content []byte) bool {
	var doc map[string]any
	if err := json.Unmarshal(content, &doc); err != nil {
		return false
	}
	return hasSnapshotKey(doc)
}

func (j *JSONImporter) Import(ctx context.Context, content []byte) (*Snapshot, error) {
	var snap Snapshot
	dec := json.NewDecoder(bytes.NewReader(content))
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	return &snap, nil
}

// YAMLImporter reads snapshots written as YAML.
type YAMLImporter struct{}

// NewYAMLImporter creates a new YAML snapshot importer.
func NewYAMLImporter() *YAMLImporter {
	return &YAMLImporter{}
}

func (y *YAMLImporter) Name() string {
	return "postbox YAML"
}

func (y *YAMLImporter) Format() Format {
	return FormatYAML
}

func (y *YAMLImporter) FileExtensions() []string {
	return []string{".yaml", ".yml"}
}

func (y *YAMLImporter) DetectFormat(content []byte) bool {
	var doc map[string]any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return false
	}
	return hasSnapshotKey(doc)
}

func (y *YAMLImporter) Import(ctx context.Context, content []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(content, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	return &snap, nil
}

var (
	_ Importer = (*JSONImporter)(nil)
	_ Importer = (*YAMLImporter)(nil)
)
