package metadata

// Semantic field types understood by the engine. Storage column types and
// validation schemas are both projections of these.
const (
	TypeString    = "string"
	TypeText      = "text"
	TypeInt       = "int"
	TypeFloat     = "float"
	TypeBoolean   = "boolean"
	TypeTimestamp = "timestamp"
	TypeUUID      = "uuid"
)

// serverManagedFields are written by the engine, never by the client.
var serverManagedFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
}

type Field struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Nullable bool   `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Unique   bool   `json:"unique,omitempty" yaml:"unique,omitempty"`
	Default  any    `json:"default,omitempty" yaml:"default,omitempty"`
}

// HasDefault returns true if the field declares a default value.
func (f Field) HasDefault() bool {
	return f.Default != nil
}

// IsServerManaged returns true for timestamp fields the engine maintains
// itself (created_at, updated_at).
func (f Field) IsServerManaged() bool {
	return serverManagedFields[f.Name]
}

// KnownType reports whether t is a type the engine understands.
func KnownType(t string) bool {
	switch t {
	case TypeString, TypeText, TypeInt, TypeFloat, TypeBoolean, TypeTimestamp, TypeUUID:
		return true
	}
	return false
}
