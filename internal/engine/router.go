package engine

import (
	"github.com/gofiber/fiber/v2"

	"autobridge/internal/registry"
)

// Register binds the five generic handlers for every registry entry under
// the entity's collection path.
func Register(app *fiber.App, reg *registry.Registry, p Persistence) {
	for _, entry := range reg.All() {
		r := NewResource(entry, p)
		grp := app.Group("/" + entry.Entity.Table)

		grp.Post("/", r.Create)
		grp.Get("/", r.List)
		grp.Get("/:id", r.GetByID)
		grp.Put("/:id", r.Update)
		grp.Delete("/:id", r.Delete)
	}
}
