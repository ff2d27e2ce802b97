// Package schema holds the request/response validation contracts for an
// entity: the Create, Update and Response shapes, either supplied by the
// user or synthesized from the entity descriptor.
package schema

// Origin records where an entity's schema set came from.
type Origin string

const (
	OriginUser        Origin = "user-supplied"
	OriginSynthesized Origin = "synthesized"
	OriginMixed       Origin = "mixed"
)

// FieldSpec is the validation contract for one field in one shape.
type FieldSpec struct {
	Type     string `json:"type" yaml:"type"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
}

// Shape maps field names to their specs.
type Shape map[string]FieldSpec

// Set bundles the three shapes for one entity.
type Set struct {
	Create   Shape
	Update   Shape
	Response Shape
}
