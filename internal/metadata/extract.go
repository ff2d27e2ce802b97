package metadata

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDefinition marks an entity definition the extractor rejected.
// Discovery treats it as non-fatal: the definition is skipped with a warning.
var ErrInvalidDefinition = errors.New("invalid entity definition")

// Definition is one decoded entity definition document, before normalization.
type Definition struct {
	Name       string     `json:"name" yaml:"name"`
	Table      string     `json:"table" yaml:"table"`
	PrimaryKey PrimaryKey `json:"primary_key" yaml:"primary_key"`
	Fields     []Field    `json:"fields" yaml:"fields"`
}

// Extract normalizes one definition into an Entity descriptor.
// Pure transformation: no I/O, no registry access.
func Extract(def *Definition) (*Entity, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: missing entity name", ErrInvalidDefinition)
	}
	table := strings.TrimSpace(def.Table)
	if table == "" {
		return nil, fmt.Errorf("%w: entity %s declares no table", ErrInvalidDefinition, name)
	}
	if def.PrimaryKey.Field == "" {
		return nil, fmt.Errorf("%w: entity %s declares no primary key", ErrInvalidDefinition, name)
	}
	if len(def.Fields) == 0 {
		return nil, fmt.Errorf("%w: entity %s declares no fields", ErrInvalidDefinition, name)
	}

	seen := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: entity %s has a field without a name", ErrInvalidDefinition, name)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: entity %s declares field %s twice", ErrInvalidDefinition, name, f.Name)
		}
		seen[f.Name] = true
		if !KnownType(f.Type) {
			return nil, fmt.Errorf("%w: entity %s field %s has unknown type %q", ErrInvalidDefinition, name, f.Name, f.Type)
		}
	}
	if !seen[def.PrimaryKey.Field] {
		return nil, fmt.Errorf("%w: entity %s primary key %s is not among its fields",
			ErrInvalidDefinition, name, def.PrimaryKey.Field)
	}

	pk := def.PrimaryKey
	if pk.Type == "" {
		pk.Type = def.Fields[indexOf(def.Fields, pk.Field)].Type
	}
	if pk.Generated && pk.Type != TypeUUID {
		return nil, fmt.Errorf("%w: entity %s delegates generation of a non-uuid primary key",
			ErrInvalidDefinition, name)
	}

	return &Entity{
		Name:       name,
		Table:      table,
		PrimaryKey: pk,
		Fields:     def.Fields,
	}, nil
}

// Key returns the registry key for an entity name (lower-cased).
func Key(name string) string {
	return strings.ToLower(name)
}

func indexOf(fields []Field, name string) int {
	for i := range fields {
		if fields[i].Name == name {
			return i
		}
	}
	return -1
}
