package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/handlers"
)

func init() { Register(registerEntries) }

func registerEntries(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Get("/api/entries/{id}", handlers.GetEntry(d))
	g.Delete("/api/entries/{id}", handlers.DeleteEntry(d))
	g.Post("/api/entries/{id}/duplicate", handlers.DuplicateEntry(d))
	g.Post("/api/doses", handlers.AddDose(d))
	g.Post("/api/symptoms", handlers.AddSymptom(d))
}
