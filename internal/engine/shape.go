package engine

import (
	"time"

	"autobridge/internal/schema"
)

// ShapeRecord projects a stored record through a response shape: only fields
// the shape names are included, timestamps are rendered as RFC3339 text and
// identifiers as canonical strings, so every response is transport-safe.
func ShapeRecord(shape schema.Shape, row map[string]any) map[string]any {
	out := make(map[string]any, len(shape))
	for name := range shape {
		out[name] = presentValue(row[name])
	}
	return out
}

// ShapeRecords shapes a result page, never returning nil so an empty result
// serializes as [].
func ShapeRecords(shape schema.Shape, rows []map[string]any) []map[string]any {
	shaped := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		shaped = append(shaped, ShapeRecord(shape, row))
	}
	return shaped
}

func presentValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []byte:
		return string(val)
	default:
		return v
	}
}
