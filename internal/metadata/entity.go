package metadata

type PrimaryKey struct {
	Field     string `json:"field" yaml:"field"`
	Type      string `json:"type" yaml:"type"` // uuid, int, string
	Generated bool   `json:"generated" yaml:"generated"`
}

// Entity is the normalized descriptor for one declared record shape.
// It is built once at setup and never mutated afterwards.
type Entity struct {
	Name       string     `json:"name" yaml:"name"`
	Table      string     `json:"table" yaml:"table"`
	PrimaryKey PrimaryKey `json:"primary_key" yaml:"primary_key"`
	Fields     []Field    `json:"fields" yaml:"fields"`
}

// GetField returns a pointer to the field with the given name, or nil.
func (e *Entity) GetField(name string) *Field {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i]
		}
	}
	return nil
}

// HasField returns true if the entity has a field with the given name.
func (e *Entity) HasField(name string) bool {
	return e.GetField(name) != nil
}

// FieldNames returns all field names in declaration order.
func (e *Entity) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return names
}

// WritableFields returns fields a client may supply on create.
// Excludes generated primary keys and server-managed timestamps.
func (e *Entity) WritableFields() []Field {
	var fields []Field
	for _, f := range e.Fields {
		if f.Name == e.PrimaryKey.Field && e.PrimaryKey.Generated {
			continue
		}
		if f.IsServerManaged() {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// UpdatableFields returns fields a client may supply on update.
// Excludes the primary key and server-managed timestamps.
func (e *Entity) UpdatableFields() []Field {
	var fields []Field
	for _, f := range e.Fields {
		if f.Name == e.PrimaryKey.Field {
			continue
		}
		if f.IsServerManaged() {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}
