package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
)

type componentStatus struct {
	OK            bool             `json:"ok"`
	EntriesLoaded *int             `json:"entries_loaded,omitempty"`
	Doses         *int             `json:"doses,omitempty"`
	Symptoms      *int             `json:"symptoms,omitempty"`
	LastReload    string           `json:"last_reload,omitempty"`
	Mode          string           `json:"mode,omitempty"`
	Impact        string           `json:"impact,omitempty"`
	Error         string           `json:"error,omitempty"`
	Usage         map[string]int64 `json:"usage,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := d.Index.Count()
		doses := d.Index.CountDoses()
		symptoms := d.Index.CountKind(domain.KindSymptom)
		lastReload := d.Index.GetLastReload()
		lastReloadStr := "never"
		if !lastReload.IsZero() {
			lastReloadStr = lastReload.Format("2006-01-02 15:04:05")
		}

		components := map[string]componentStatus{
			"timeline": {
				OK:            !lastReload.IsZero(),
				EntriesLoaded: &entries,
				Doses:         &doses,
				Symptoms:      &symptoms,
				LastReload:    lastReloadStr,
			},
			"redis": checkRedis(r.Context(), d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if timeline, exists := components["timeline"]; exists && !timeline.OK {
		return "critical" // nothing loaded yet
	}

	if redis, exists := components["redis"]; exists && !redis.OK && redis.Mode != "disabled" {
		return "degraded" // reads served from memory only
	}

	return "optimal"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.Cache == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "query-cache-disabled",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Cache.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "query-cache-unavailable",
			Error:  "timeout",
		}
	}

	usage, _ := d.Cache.GetUsageStats(ctx)
	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "query-cache-enabled",
		Usage:  usage,
	}
}
