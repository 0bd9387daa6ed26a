package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/handlers"
)

func init() { Register(registerResources) }

func registerResources(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Get("/api/resources", handlers.ListResources(d))
	g.Post("/api/resources", handlers.AddResource(d))
	g.Delete("/api/resources/{index}", handlers.RemoveResource(d))
}
