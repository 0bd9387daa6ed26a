package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/handlers"
)

func init() { Register(registerSymptomLog) }

func registerSymptomLog(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Get("/api/symptom-log", handlers.ListSymptomLog(d))
	g.Post("/api/symptom-log", handlers.LogSymptom(d))
}
