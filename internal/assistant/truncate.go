package assistant

import "sort"

const (
	// fullDepth is how deep nested structures are kept intact.
	fullDepth = 2
	// keepEntries is how many entries survive per container beyond fullDepth.
	keepEntries = 2

	omittedMarker = "...omitted"
)

// TruncatePayload bounds a nested payload for prompting. Beyond fullDepth,
// only the first keepEntries entries of any object or array are kept, with
// an omission marker appended. Map keys are walked in sorted order so the
// result is deterministic.
func TruncatePayload(v interface{}) interface{} {
	return truncate(v, 0)
}

func truncate(v interface{}, depth int) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		limit := len(keys)
		truncated := false
		if depth >= fullDepth && limit > keepEntries {
			limit = keepEntries
			truncated = true
		}

		out := make(map[string]interface{}, limit)
		for _, k := range keys[:limit] {
			out[k] = truncate(val[k], depth+1)
		}
		if truncated {
			out[omittedMarker] = true
		}
		return out
	case []interface{}:
		limit := len(val)
		truncated := false
		if depth >= fullDepth && limit > keepEntries {
			limit = keepEntries
			truncated = true
		}

		out := make([]interface{}, 0, limit+1)
		for _, item := range val[:limit] {
			out = append(out, truncate(item, depth+1))
		}
		if truncated {
			out = append(out, omittedMarker)
		}
		return out
	default:
		return v
	}
}
