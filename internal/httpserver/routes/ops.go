package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/mw"
)

func init() { Register(registerOps) }

func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	probes := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	probes.Get("/readyz", handlers.Readyz(d))
	probes.Get("/infra", handlers.Infra(d))
	if d.Metrics != nil {
		probes.Method("GET", "/metrics", d.Metrics.Handler())
	}

	guarded(r, d).Post("/reload", handlers.Reload(d))
}
