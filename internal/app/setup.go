// Package app wires the generation pipeline: discovery, schema resolution,
// storage preparation and route registration, in one pass at bootstrap.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"autobridge/internal/engine"
	"autobridge/internal/metadata"
	"autobridge/internal/registry"
	"autobridge/internal/schema"
	"autobridge/internal/store"
)

type Options struct {
	ModelsDir    string
	SchemasDir   string
	CreateTables bool
}

type Result struct {
	Count int
	Keys  []string
}

// Setup runs the full generation pipeline against a Fiber app. It must
// complete before the app starts listening: there is no partial availability
// window and the registry never changes afterwards.
func Setup(ctx context.Context, fiberApp *fiber.App, st *store.Store, opts Options) (*Result, error) {
	if opts.ModelsDir == "" {
		return nil, fmt.Errorf("models dir is required")
	}

	entities, err := metadata.Discover(opts.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("discover entities: %w", err)
	}

	resolved := schema.Resolve(entities, opts.SchemasDir)

	entries := make([]*registry.Entry, 0, len(entities))
	for _, e := range entities {
		r := resolved[metadata.Key(e.Name)]
		entries = append(entries, &registry.Entry{
			Entity:  e,
			Schemas: r.Set,
			Origin:  r.Origin,
		})
		log.Printf("Registered entity %s -> /%s (schemas: %s)", e.Name, e.Table, r.Origin)
	}

	reg := registry.New()
	reg.Load(entries)

	if opts.CreateTables {
		if err := st.EnsureSchema(ctx, entities); err != nil {
			return nil, fmt.Errorf("ensure storage: %w", err)
		}
	}

	engine.Register(fiberApp, reg, st)
	registerIndex(fiberApp, reg)

	result := &Result{Count: reg.Len(), Keys: reg.Keys()}
	log.Printf("Generated CRUD routes for %d entities: %v", result.Count, result.Keys)
	return result, nil
}

// registerIndex exposes a root endpoint listing every generated collection.
func registerIndex(fiberApp *fiber.App, reg *registry.Registry) {
	type collection struct {
		Entity string `json:"entity"`
		Path   string `json:"path"`
	}

	collections := make([]collection, 0, reg.Len())
	for _, entry := range reg.All() {
		collections = append(collections, collection{
			Entity: metadata.Key(entry.Entity.Name),
			Path:   "/" + entry.Entity.Table,
		})
	}

	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"collections": collections})
	})
}
