package internal

import "strings"

// RedactedValue replaces the value of any payload field whose name matches a
// sensitive keyword. Sanitization runs before the audit write, never after.
const RedactedValue = "[REDACTED]"

// sensitiveKeyFragments are matched case-insensitively as substrings of the
// field name. "key" deliberately catches api_key, signing_key, and similar.
var sensitiveKeyFragments = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"key",
	"credential",
	"authorization",
	"cookie",
}

func isSensitiveKey(name string) bool {
	lower := strings.ToLower(name)
	for _, fragment := range sensitiveKeyFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// SanitizePayload returns a deep copy of payload with every sensitive field
// replaced by [RedactedValue]. Nested objects and arrays are walked
// recursively. The input map is never mutated.
func SanitizePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}

	out := make(map[string]any, len(payload))
	for name, value := range payload {
		if isSensitiveKey(name) {
			out[name] = RedactedValue
			continue
		}
		out[name] = sanitizeValue(value)
	}
	return out
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return SanitizePayload(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return value
	}
}
