package adapter

import (
	"fmt"
	"sort"
	"strings"
)

// Normalization flattens heterogeneous subsystem payloads (numeric benefit
// amounts, extracted field maps, free-text explanations) into a stable
// line-per-fact representation the judge can compare against expected
// behavior regardless of source subsystem.

func normalizeFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(normalizeValue(fields[k]))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func normalizeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return collapseWhitespace(val)
	case bool:
		if val {
			return "yes"
		}
		return "no"
	case float64:
		// JSON numbers decode as float64; render integers without a
		// trailing fraction and amounts with two places.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%.2f", val)
	case map[string]any:
		return normalizeFields(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, normalizeValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", val)
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
