package schema

import "autobridge/internal/metadata"

// Synthesize derives the three shapes from an entity descriptor.
// Pure function: no persistence or HTTP coupling.
//
//   - Create: client-writable fields; the primary key appears (required) only
//     when the entity does not delegate its generation to the engine.
//     A field is required unless nullable or defaulted.
//   - Update: every non-PK field, all optional, so partial updates validate
//     regardless of the entity's own nullability. Server-managed timestamps
//     are accepted here too; the handler still controls updated_at.
//   - Response: every field, required. uuid fields are rendered as canonical
//     text and timestamps as RFC3339 by the response shaper, so the shapes
//     stay transport-safe.
func Synthesize(e *metadata.Entity) Set {
	create := make(Shape)
	update := make(Shape)
	response := make(Shape)

	for _, f := range e.Fields {
		response[f.Name] = FieldSpec{Type: f.Type, Required: true}

		if f.Name == e.PrimaryKey.Field {
			if !e.PrimaryKey.Generated {
				create[f.Name] = FieldSpec{Type: f.Type, Required: true}
			}
			continue
		}

		update[f.Name] = FieldSpec{Type: f.Type, Required: false}

		if f.IsServerManaged() {
			continue
		}
		create[f.Name] = FieldSpec{
			Type:     f.Type,
			Required: !f.Nullable && !f.HasDefault(),
		}
	}

	return Set{Create: create, Update: update, Response: response}
}
