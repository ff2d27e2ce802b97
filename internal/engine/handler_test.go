package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autobridge/internal/metadata"
	"autobridge/internal/registry"
	"autobridge/internal/schema"
	"autobridge/internal/store"
)

// memStore is an in-memory Persistence used to exercise the generic
// handlers without a database.
type memStore struct {
	mu      sync.Mutex
	rows    map[string]map[string]any
	order   []string
	failure error // when set, every read fails with it
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]map[string]any)}
}

func clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m *memStore) Insert(_ context.Context, entity *metadata.Entity, record map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range entity.Fields {
		if !f.Unique {
			continue
		}
		for _, row := range m.rows {
			if row[f.Name] == record[f.Name] {
				return nil, &store.UniqueError{Table: entity.Table, Field: f.Name}
			}
		}
	}

	id := fmt.Sprint(record[entity.PrimaryKey.Field])
	m.rows[id] = clone(record)
	m.order = append(m.order, id)
	return clone(record), nil
}

func (m *memStore) Query(_ context.Context, _ *metadata.Entity, skip, limit int) ([]map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failure != nil {
		return nil, m.failure
	}
	var out []map[string]any
	for i := skip; i < len(m.order) && len(out) < limit; i++ {
		out = append(out, clone(m.rows[m.order[i]]))
	}
	return out, nil
}

func (m *memStore) GetByID(_ context.Context, _ *metadata.Entity, id any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failure != nil {
		return nil, m.failure
	}
	row, ok := m.rows[fmt.Sprint(id)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(row), nil
}

func (m *memStore) Update(_ context.Context, _ *metadata.Entity, id any, fields map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[fmt.Sprint(id)]
	if !ok {
		return nil, store.ErrNotFound
	}
	for k, v := range fields {
		row[k] = v
	}
	return clone(row), nil
}

func (m *memStore) Delete(_ context.Context, _ *metadata.Entity, id any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprint(id)
	if _, ok := m.rows[key]; !ok {
		return false, nil
	}
	delete(m.rows, key)
	for i, o := range m.order {
		if o == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func userTestEntity() *metadata.Entity {
	return &metadata.Entity{
		Name:       "user",
		Table:      "users",
		PrimaryKey: metadata.PrimaryKey{Field: "id", Type: "uuid", Generated: true},
		Fields: []metadata.Field{
			{Name: "id", Type: "uuid"},
			{Name: "name", Type: "string"},
			{Name: "email", Type: "string", Unique: true},
			{Name: "age", Type: "int", Nullable: true},
			{Name: "is_active", Type: "boolean", Default: true},
			{Name: "created_at", Type: "timestamp"},
			{Name: "updated_at", Type: "timestamp"},
		},
	}
}

func newTestApp(t *testing.T) (*fiber.App, *memStore) {
	t.Helper()

	entity := userTestEntity()
	reg := registry.New()
	reg.Load([]*registry.Entry{{
		Entity:  entity,
		Schemas: schema.Synthesize(entity),
		Origin:  schema.OriginSynthesized,
	}})

	ms := newMemStore()
	app := fiber.New()
	Register(app, reg, ms)
	return app, ms
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) == 0 {
		return resp, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// list responses decode elsewhere
		return resp, nil
	}
	return resp, decoded
}

func createUser(t *testing.T, app *fiber.App, name, email string, age int) map[string]any {
	t.Helper()
	resp, body := doJSON(t, app, "POST", "/users/", map[string]any{
		"name": name, "email": email, "age": age,
	})
	require.Equal(t, 201, resp.StatusCode)
	require.NotEmpty(t, body["id"])
	return body
}

func TestCreate_RoundTrip(t *testing.T) {
	app, _ := newTestApp(t)

	created := createUser(t, app, "Ada", "ada@example.com", 36)
	assert.Equal(t, "Ada", created["name"])
	assert.Equal(t, "ada@example.com", created["email"])
	assert.Equal(t, float64(36), created["age"])
	assert.Equal(t, true, created["is_active"]) // declared default applied
	assert.NotEmpty(t, created["created_at"])
	assert.NotEmpty(t, created["updated_at"])

	resp, fetched := doJSON(t, app, "GET", "/users/"+created["id"].(string), nil)
	require.Equal(t, 200, resp.StatusCode)
	for _, field := range []string{"id", "name", "email", "age", "is_active"} {
		assert.Equal(t, created[field], fetched[field], field)
	}
}

func TestCreate_ValidationFailure(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, "POST", "/users/", map[string]any{
		"email": "ada@example.com",
		"age":   "not-a-number",
	})
	require.Equal(t, 400, resp.StatusCode)

	errObj := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errObj["code"])
	details := errObj["details"].([]any)
	assert.Len(t, details, 2) // name required, age mismatch
}

func TestCreate_UnknownFieldRejected(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, "POST", "/users/", map[string]any{
		"name": "Ada", "email": "ada@example.com", "nickname": "ada",
	})
	require.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", body["error"].(map[string]any)["code"])
}

func TestCreate_ConflictTranslated(t *testing.T) {
	app, _ := newTestApp(t)
	createUser(t, app, "Ada", "ada@example.com", 36)

	resp, body := doJSON(t, app, "POST", "/users/", map[string]any{
		"name": "Grace", "email": "ada@example.com",
	})
	require.Equal(t, 409, resp.StatusCode)

	errObj := body["error"].(map[string]any)
	assert.Equal(t, "CONFLICT", errObj["code"])
	assert.Equal(t, "Email already exists. Please use a different email.", errObj["message"])
}

func TestList_PaginationClamped(t *testing.T) {
	app, _ := newTestApp(t)
	for i := 0; i < 5; i++ {
		createUser(t, app, "User", fmt.Sprintf("u%d@example.com", i), 20+i)
	}

	// negative skip and zero limit are clamped, not errors
	req := httptest.NewRequest("GET", "/users/?skip=-5&limit=0", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var rows []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	assert.Len(t, rows, 1)
	assert.Equal(t, "u0@example.com", rows[0]["email"]) // insertion order

	req = httptest.NewRequest("GET", "/users/?skip=2", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	assert.Len(t, rows, 3)
}

func TestList_EmptyIsEmptyArray(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/users/", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(raw))
}

func TestUpdate_PartialPatch(t *testing.T) {
	app, _ := newTestApp(t)
	created := createUser(t, app, "Ada", "ada@example.com", 36)
	id := created["id"].(string)

	resp, updated := doJSON(t, app, "PUT", "/users/"+id, map[string]any{"age": 37})
	require.Equal(t, 200, resp.StatusCode)

	assert.Equal(t, float64(37), updated["age"])
	assert.Equal(t, "Ada", updated["name"])
	assert.Equal(t, "ada@example.com", updated["email"])
}

func TestUpdate_RequiredFieldsAreOptional(t *testing.T) {
	app, _ := newTestApp(t)
	created := createUser(t, app, "Ada", "ada@example.com", 36)

	// empty body: nothing required on update
	resp, _ := doJSON(t, app, "PUT", "/users/"+created["id"].(string), map[string]any{})
	assert.Equal(t, 200, resp.StatusCode)
}

func TestUpdate_ServerManagedTimestampsAccepted(t *testing.T) {
	app, _ := newTestApp(t)
	created := createUser(t, app, "Ada", "ada@example.com", 36)
	id := created["id"].(string)

	resp, updated := doJSON(t, app, "PUT", "/users/"+id, map[string]any{
		"created_at": "2020-01-01T00:00:00Z",
		"updated_at": "2020-01-01T00:00:00Z",
	})
	require.Equal(t, 200, resp.StatusCode)

	assert.Equal(t, "2020-01-01T00:00:00Z", updated["created_at"])
	// updated_at is stamped by the handler, not taken from the payload
	assert.NotEqual(t, "2020-01-01T00:00:00Z", updated["updated_at"])
}

func TestReadFailuresTranslated(t *testing.T) {
	app, ms := newTestApp(t)
	created := createUser(t, app, "Ada", "ada@example.com", 36)
	ms.failure = errors.New(`driver: connection reset (table "users")`)

	for _, path := range []string{"/users/", "/users/" + created["id"].(string)} {
		resp, body := doJSON(t, app, "GET", path, nil)
		require.Equal(t, 400, resp.StatusCode, path)

		errObj := body["error"].(map[string]any)
		assert.Equal(t, "STORAGE_ERROR", errObj["code"], path)
		assert.NotContains(t, errObj["message"], "driver", path)
	}
}

func TestNotFound_Symmetry(t *testing.T) {
	app, _ := newTestApp(t)
	const missing = "/users/2a3a8fd0-69cb-4f4b-85b8-bc49d7a4a3a1"

	cases := []struct {
		method string
		body   any
	}{
		{"GET", nil},
		{"PUT", map[string]any{"name": "X"}},
		{"DELETE", nil},
	}
	for _, tc := range cases {
		resp, body := doJSON(t, app, tc.method, missing, tc.body)
		require.Equal(t, 404, resp.StatusCode, tc.method)
		if body != nil {
			errObj := body["error"].(map[string]any)
			assert.Equal(t, "NOT_FOUND", errObj["code"], tc.method)
			assert.Equal(t, "User not found", errObj["message"], tc.method)
		}
	}
}

func TestDelete_NoContentThenGone(t *testing.T) {
	app, _ := newTestApp(t)
	created := createUser(t, app, "Ada", "ada@example.com", 36)
	id := created["id"].(string)

	req := httptest.NewRequest("DELETE", "/users/"+id, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, raw)

	resp2, _ := doJSON(t, app, "GET", "/users/"+id, nil)
	assert.Equal(t, 404, resp2.StatusCode)
}
