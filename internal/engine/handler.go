package engine

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"autobridge/internal/metadata"
	"autobridge/internal/registry"
	"autobridge/internal/schema"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Persistence is the storage contract the generic handlers consume.
// *store.Store implements it.
type Persistence interface {
	Insert(ctx context.Context, entity *metadata.Entity, record map[string]any) (map[string]any, error)
	Query(ctx context.Context, entity *metadata.Entity, skip, limit int) ([]map[string]any, error)
	GetByID(ctx context.Context, entity *metadata.Entity, id any) (map[string]any, error)
	Update(ctx context.Context, entity *metadata.Entity, id any, fields map[string]any) (map[string]any, error)
	Delete(ctx context.Context, entity *metadata.Entity, id any) (bool, error)
}

// Resource serves all five endpoints for one entity. The handlers close over
// the descriptor and schema set rather than being generated per entity, so
// behavior is uniform and a fix here applies to every entity at once.
type Resource struct {
	entity  *metadata.Entity
	schemas schema.Set
	store   Persistence
}

func NewResource(entry *registry.Entry, p Persistence) *Resource {
	return &Resource{entity: entry.Entity, schemas: entry.Schemas, store: p}
}

// Create handles POST /<collection>/
func (r *Resource) Create(c *fiber.Ctx) error {
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body"))
	}

	if details := ValidateBody(r.schemas.Create, body); len(details) > 0 {
		return respondError(c, ValidationError(details))
	}

	record := coerceRecord(r.entity, body)
	r.applyDefaults(record)
	r.stampCreate(record)

	created, err := r.store.Insert(c.Context(), r.entity, record)
	if err != nil {
		return respondError(c, TranslateStoreError(r.entity, err))
	}

	return c.Status(201).JSON(ShapeRecord(r.schemas.Response, created))
}

// List handles GET /<collection>/
func (r *Resource) List(c *fiber.Ctx) error {
	skip := c.QueryInt("skip", 0)
	if skip < 0 {
		skip = 0
	}
	limit := c.QueryInt("limit", defaultLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	rows, err := r.store.Query(c.Context(), r.entity, skip, limit)
	if err != nil {
		return respondError(c, TranslateStoreError(r.entity, err))
	}

	return c.JSON(ShapeRecords(r.schemas.Response, rows))
}

// GetByID handles GET /<collection>/:id
func (r *Resource) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")

	row, err := r.store.GetByID(c.Context(), r.entity, id)
	if err != nil {
		return respondError(c, TranslateStoreError(r.entity, err))
	}

	return c.JSON(ShapeRecord(r.schemas.Response, row))
}

// Update handles PUT /<collection>/:id — partial patch semantics: only the
// fields present in the payload are applied.
func (r *Resource) Update(c *fiber.Ctx) error {
	id := c.Params("id")

	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body"))
	}

	if details := ValidateBody(r.schemas.Update, body); len(details) > 0 {
		return respondError(c, ValidationError(details))
	}

	fields := coerceRecord(r.entity, body)
	r.stampUpdate(fields)

	updated, err := r.store.Update(c.Context(), r.entity, id, fields)
	if err != nil {
		return respondError(c, TranslateStoreError(r.entity, err))
	}

	return c.JSON(ShapeRecord(r.schemas.Response, updated))
}

// Delete handles DELETE /<collection>/:id
func (r *Resource) Delete(c *fiber.Ctx) error {
	id := c.Params("id")

	deleted, err := r.store.Delete(c.Context(), r.entity, id)
	if err != nil {
		return respondError(c, TranslateStoreError(r.entity, err))
	}
	if !deleted {
		return respondError(c, NotFoundError(r.entity))
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// applyDefaults fills declared default values for fields absent from a
// create payload.
func (r *Resource) applyDefaults(record map[string]any) {
	for _, f := range r.entity.Fields {
		if !f.HasDefault() || f.IsServerManaged() {
			continue
		}
		if _, ok := record[f.Name]; !ok {
			record[f.Name] = f.Default
		}
	}
}

// stampCreate assigns the generated primary key and server-managed
// timestamps on insert.
func (r *Resource) stampCreate(record map[string]any) {
	pk := r.entity.PrimaryKey
	if pk.Generated {
		record[pk.Field] = uuid.NewString()
	}

	now := time.Now().UTC()
	if r.entity.HasField("created_at") {
		record["created_at"] = now
	}
	if r.entity.HasField("updated_at") {
		record["updated_at"] = now
	}
}

// stampUpdate bumps updated_at on every update.
func (r *Resource) stampUpdate(fields map[string]any) {
	if r.entity.HasField("updated_at") {
		fields["updated_at"] = time.Now().UTC()
	}
}

func respondError(c *fiber.Ctx, appErr *AppError) error {
	return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
}
