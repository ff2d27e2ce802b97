package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userJSON = `{
  "name": "user",
  "table": "users",
  "primary_key": {"field": "id", "type": "uuid", "generated": true},
  "fields": [
    {"name": "id", "type": "uuid"},
    {"name": "name", "type": "string"},
    {"name": "email", "type": "string", "unique": true}
  ]
}`

const employeeYAML = `name: employee
table: employees
primary_key:
  field: id
  type: uuid
  generated: true
fields:
  - name: id
    type: uuid
  - name: employee_id
    type: string
    unique: true
  - name: salary
    type: float
    nullable: true
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDiscover_FindsJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.json", userJSON)
	writeFile(t, dir, "employee.yaml", employeeYAML)

	entities, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	byKey := make(map[string]*Entity)
	for _, e := range entities {
		byKey[Key(e.Name)] = e
	}
	assert.Equal(t, "users", byKey["user"].Table)
	assert.Equal(t, "employees", byKey["employee"].Table)
	assert.True(t, byKey["employee"].GetField("salary").Nullable)
}

func TestDiscover_SkipsMalformedDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.json", userJSON)
	writeFile(t, dir, "broken.json", `{"name": "broken", "fields": `)
	// structurally valid JSON but rejected by the definition schema
	writeFile(t, dir, "badshape.json", `{"name": "bad", "fields": "nope"}`)
	// passes the document schema but fails extraction (pk not among fields)
	writeFile(t, dir, "nopk.json", `{
	  "name": "nopk", "table": "nopks",
	  "primary_key": {"field": "id"},
	  "fields": [{"name": "title", "type": "string"}]
	}`)

	entities, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "user", Key(entities[0].Name))
}

func TestDiscover_IgnoresNonDefinitionFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.json", userJSON)
	writeFile(t, dir, "README.md", "# models")
	writeFile(t, dir, "_draft.json", userJSON)
	writeFile(t, dir, ".hidden.json", userJSON)

	entities, err := Discover(dir)
	require.NoError(t, err)
	assert.Len(t, entities, 1)
}

func TestDiscover_DuplicateEntityNameFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.json", userJSON)
	// same entity name, different casing and file
	writeFile(t, dir, "user2.yaml", `name: USER
table: users_two
primary_key:
  field: id
  type: uuid
fields:
  - name: id
    type: uuid
`)

	_, err := Discover(dir)
	require.ErrorIs(t, err, ErrDuplicateEntity)
}

func TestDiscover_MissingDirIsError(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
