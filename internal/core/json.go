package core

import (
	"bytes"
	"encoding/json"
)

// Stringify serializes v as compact JSON without HTML escaping.
// Sizes and previews throughout the app are measured on this form.
func Stringify(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// SerializedSize returns len(Stringify(v)), or 0 when v cannot be encoded.
func SerializedSize(v any) int {
	s, err := Stringify(v)
	if err != nil {
		return 0
	}
	return len(s)
}
