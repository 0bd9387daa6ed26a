package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/handlers"
)

func init() { Register(registerTimeline) }

func registerTimeline(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Get("/api/timeline", handlers.Timeline(d))
	g.Get("/api/timeline/export", handlers.ExportCSV(d))
}
