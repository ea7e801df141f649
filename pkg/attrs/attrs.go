// Package attrs works on slog-style alternating key/value slices.
package attrs

const redacted = "[redacted]"

// String returns the string stored under key, or "" when the key is absent
// or its value is not a string.
func String(kv []any, key string) string {
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok && k == key {
			if v, ok := kv[i+1].(string); ok {
				return v
			}
		}
	}
	return ""
}

// Redact returns a copy of kv with the values of keys masked. A trailing
// key without a value is kept as is.
func Redact(kv []any, keys ...string) []any {
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		k, ok := out[i].(string)
		if !ok {
			continue
		}
		for _, sensitive := range keys {
			if k == sensitive {
				out[i+1] = redacted
				break
			}
		}
	}
	return out
}
