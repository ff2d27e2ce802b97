package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autobridge/internal/metadata"
)

func userEntity() *metadata.Entity {
	return &metadata.Entity{
		Name:       "user",
		Table:      "users",
		PrimaryKey: metadata.PrimaryKey{Field: "id", Type: "uuid", Generated: true},
		Fields: []metadata.Field{
			{Name: "id", Type: "uuid"},
			{Name: "name", Type: "string"},
			{Name: "email", Type: "string", Unique: true},
		},
	}
}

func writeSchemaFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestResolve_NoSchemasDirSynthesizesAll(t *testing.T) {
	entities := []*metadata.Entity{userEntity()}

	resolved := Resolve(entities, "")
	require.Contains(t, resolved, "user")
	assert.Equal(t, OriginSynthesized, resolved["user"].Origin)
	assert.Contains(t, resolved["user"].Set.Create, "name")
}

func TestResolve_MissingDirIsNotFatal(t *testing.T) {
	entities := []*metadata.Entity{userEntity()}

	resolved := Resolve(entities, filepath.Join(t.TempDir(), "nope"))
	assert.Equal(t, OriginSynthesized, resolved["user"].Origin)
}

func TestResolve_FullUserSuppliedSet(t *testing.T) {
	dir := t.TempDir()
	writeSchemaFile(t, dir, "user.yaml", `
UserCreate:
  name: {type: string, required: true}
  email: {type: string, required: true}
UserUpdate:
  name: {type: string}
  email: {type: string}
UserResponse:
  id: {type: uuid, required: true}
  name: {type: string, required: true}
  email: {type: string, required: true}
`)

	resolved := Resolve([]*metadata.Entity{userEntity()}, dir)
	r := resolved["user"]
	assert.Equal(t, OriginUser, r.Origin)
	assert.Equal(t, Shape{
		"name":  {Type: "string", Required: true},
		"email": {Type: "string", Required: true},
	}, r.Set.Create)
}

func TestResolve_PartialSetIsMixed(t *testing.T) {
	dir := t.TempDir()
	writeSchemaFile(t, dir, "user.json", `{
	  "UserCreate": {
	    "name": {"type": "string", "required": true}
	  }
	}`)

	resolved := Resolve([]*metadata.Entity{userEntity()}, dir)
	r := resolved["user"]
	assert.Equal(t, OriginMixed, r.Origin)

	// supplied shape used verbatim
	assert.Equal(t, Shape{"name": {Type: "string", Required: true}}, r.Set.Create)
	// the rest synthesized from the descriptor
	assert.Contains(t, r.Set.Update, "email")
	assert.Contains(t, r.Set.Response, "id")
}

func TestResolve_UnmatchedFileNameSynthesizes(t *testing.T) {
	dir := t.TempDir()
	writeSchemaFile(t, dir, "customer.yaml", `
CustomerCreate:
  name: {type: string}
`)

	resolved := Resolve([]*metadata.Entity{userEntity()}, dir)
	assert.Equal(t, OriginSynthesized, resolved["user"].Origin)
}

func TestResolve_WrongDocumentNamesSynthesize(t *testing.T) {
	dir := t.TempDir()
	// file matches the entity but documents don't follow the convention
	writeSchemaFile(t, dir, "user.yaml", `
SomethingElse:
  name: {type: string}
`)

	resolved := Resolve([]*metadata.Entity{userEntity()}, dir)
	assert.Equal(t, OriginSynthesized, resolved["user"].Origin)
}

func TestResolve_UnreadableSchemaFileIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeSchemaFile(t, dir, "user.json", `{"UserCreate": `)

	resolved := Resolve([]*metadata.Entity{userEntity()}, dir)
	assert.Equal(t, OriginSynthesized, resolved["user"].Origin)
}
