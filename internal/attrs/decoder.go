// Package attrs normalizes raw attribute values into locale keyed text maps.
package attrs

import (
	"encoding/json"
	"strings"
)

// Decode inspects a raw attribute value and extracts a locale to text mapping.
// Accepted shapes are map[string]string, map[string]any with string values,
// and a string holding a JSON object of strings. Anything else reports false:
// the attribute is plain text and stays out of translation processing. That
// outcome is not an error.
func Decode(value any) (map[string]string, bool) {
	switch v := value.(type) {
	case map[string]string:
		if len(v) == 0 {
			return nil, false
		}
		out := make(map[string]string, len(v))
		for locale, text := range v {
			locale = strings.TrimSpace(locale)
			if locale == "" {
				return nil, false
			}
			out[locale] = text
		}
		return out, true
	case map[string]any:
		return fromAnyMap(v)
	case string:
		return fromJSON(v)
	case []byte:
		return fromJSON(string(v))
	default:
		return nil, false
	}
}

func fromAnyMap(raw map[string]any) (map[string]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	out := make(map[string]string, len(raw))
	for locale, value := range raw {
		text, ok := value.(string)
		if !ok {
			return nil, false
		}
		locale = strings.TrimSpace(locale)
		if locale == "" {
			return nil, false
		}
		out[locale] = text
	}
	return out, true
}

func fromJSON(raw string) (map[string]string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, false
	}
	return fromAnyMap(decoded)
}
