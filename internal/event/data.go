package event

// IsNilOrEmpty reports whether the map is nil or has no entries.
func IsNilOrEmpty(m map[string]any) bool {
	return len(m) == 0
}

// PutIfNotEmpty adds key→values to m when values is non-nil and non-empty.
// No-op when m or key is empty.
func PutIfNotEmpty(m map[string]any, key string, values map[string]any) {
	if m == nil || key == "" || IsNilOrEmpty(values) {
		return
	}
	m[key] = values
}

// PutStringIfNotEmpty adds key→value to m when value is a non-empty string.
func PutStringIfNotEmpty(m map[string]any, key, value string) {
	if m == nil || key == "" || value == "" {
		return
	}
	m[key] = value
}

// CloneData deep-copies a data map. Nested map[string]any and []any values
// are copied recursively; all other values are copied by assignment.
// Returns nil for a nil input (nil and empty are distinct at the
// shared-state protocol level).
func CloneData(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneData(val)
	case []any:
		out := make([]any, len(val))
		for i, el := range val {
			out[i] = cloneValue(el)
		}
		return out
	default:
		return v
	}
}

// StringValue reads a string from the map, returning fallback when the key
// is absent or holds a non-string value.
func StringValue(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return fallback
}

// Int64Value reads an integer from the map, returning fallback when the key
// is absent or holds a non-integer value. Both int and int64 are accepted
// since YAML and literal maps produce int.
func Int64Value(m map[string]any, key string, fallback int64) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return fallback
	}
}

// BoolValue reads a boolean from the map, returning fallback when the key
// is absent or holds a non-boolean value.
func BoolValue(m map[string]any, key string, fallback bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return fallback
}

// MapValue reads a nested map from the map, returning nil when the key is
// absent or holds a non-map value.
func MapValue(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}
