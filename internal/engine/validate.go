package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"autobridge/internal/metadata"
	"autobridge/internal/schema"
)

// ValidateBody checks a decoded JSON body against one schema shape.
// Unknown fields are rejected, required fields must be present and non-null,
// and present values must match their declared type.
func ValidateBody(shape schema.Shape, body map[string]any) []ErrorDetail {
	var details []ErrorDetail

	for key := range body {
		if _, ok := shape[key]; !ok {
			details = append(details, ErrorDetail{
				Field:   key,
				Rule:    "unknown",
				Message: fmt.Sprintf("Unknown field: %s", key),
			})
		}
	}

	for name, spec := range shape {
		v, present := body[name]
		if !present {
			if spec.Required {
				details = append(details, ErrorDetail{
					Field:   name,
					Rule:    "required",
					Message: fmt.Sprintf("Field '%s' is required", name),
				})
			}
			continue
		}
		if v == nil {
			if spec.Required {
				details = append(details, ErrorDetail{
					Field:   name,
					Rule:    "required",
					Message: fmt.Sprintf("Field '%s' must not be null", name),
				})
			}
			continue
		}
		if !matchesType(spec.Type, v) {
			details = append(details, ErrorDetail{
				Field:   name,
				Rule:    "type_mismatch",
				Message: fmt.Sprintf("Field '%s' expected %s", name, spec.Type),
			})
		}
	}

	sort.Slice(details, func(i, j int) bool { return details[i].Field < details[j].Field })
	return details
}

// matchesType checks a JSON-decoded value against a semantic field type.
func matchesType(fieldType string, v any) bool {
	switch fieldType {
	case metadata.TypeString, metadata.TypeText:
		_, ok := v.(string)
		return ok
	case metadata.TypeUUID:
		s, ok := v.(string)
		if !ok {
			return false
		}
		_, err := uuid.Parse(s)
		return err == nil
	case metadata.TypeTimestamp:
		s, ok := v.(string)
		if !ok {
			return false
		}
		_, err := time.Parse(time.RFC3339, s)
		return err == nil
	case metadata.TypeInt:
		switch n := v.(type) {
		case float64:
			return n == float64(int64(n))
		case int, int64:
			return true
		}
		return false
	case metadata.TypeFloat:
		switch v.(type) {
		case float64, int, int64:
			return true
		}
		return false
	case metadata.TypeBoolean:
		_, ok := v.(bool)
		return ok
	default:
		// User-supplied shapes may carry types the engine never declares;
		// accept them untyped rather than failing every request.
		return true
	}
}

// coerceRecord converts JSON-decoded values into the typed values the store
// binds: integral floats become int64, timestamp strings become time.Time.
// Fields unknown to the entity are passed through untouched.
func coerceRecord(entity *metadata.Entity, body map[string]any) map[string]any {
	record := make(map[string]any, len(body))
	for name, v := range body {
		f := entity.GetField(name)
		if f == nil || v == nil {
			record[name] = v
			continue
		}
		switch f.Type {
		case metadata.TypeInt:
			if n, ok := v.(float64); ok {
				record[name] = int64(n)
				continue
			}
		case metadata.TypeTimestamp:
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339, s); err == nil {
					record[name] = t
					continue
				}
			}
		}
		record[name] = v
	}
	return record
}
