package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}(?:-[0-9a-fA-F]{4}){3}-[0-9a-fA-F]{12}`)

// stringField returns m[key] when it is a string.
func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// mapField returns m[key] when it is an object.
func mapField(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

// sliceField returns m[key] when it is an array.
func sliceField(m map[string]any, key string) []any {
	v, _ := m[key].([]any)
	return v
}

// stringify renders an arbitrary decoded JSON value as text.
func stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// decodeJSON decodes exactly one JSON value, keeping numbers as json.Number
// so that records round-trip without losing precision.
func decodeJSON(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return err
	}
	if decoder.More() {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}

// parseJSONMaybe decodes s as JSON, returning the trimmed string unchanged
// when it is not valid JSON.
func parseJSONMaybe(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	var decoded any
	if err := decodeJSON([]byte(s), &decoded); err != nil {
		return s
	}
	return decoded
}

// fileStem returns the file name without its extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// lastDashSegment strips prefix from stem and returns its last dash-separated part.
func lastDashSegment(stem, prefix string) string {
	stem = strings.TrimPrefix(stem, prefix)
	parts := strings.Split(stem, "-")
	return parts[len(parts)-1]
}
