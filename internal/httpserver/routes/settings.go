package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/handlers"
)

func init() { Register(registerSettings) }

func registerSettings(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Get("/api/settings", handlers.GetSettings(d))
	g.Put("/api/settings", handlers.PutSettings(d))
	g.Delete("/api/settings", handlers.ResetSettings(d))
}
