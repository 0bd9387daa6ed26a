package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hrtlog/internal/logger"
	redisstore "github.com/MrSnakeDoc/hrtlog/internal/store/redis"
)

type timelineResponse struct {
	Count   int             `json:"count"`
	Entries []domain.Record `json:"entries"`
	Cached  bool            `json:"cached"`
}

// Timeline serves the filtered timeline, newest first. Redis is tried
// first when configured; the in-memory index answers otherwise.
func Timeline(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := filterFromRequest(r)

		records, cached, err := searchTimeline(r, d, f)
		if err != nil {
			writeError(w, d, err)
			return
		}

		writeJSON(w, http.StatusOK, timelineResponse{
			Count:   len(records),
			Entries: records,
			Cached:  cached,
		})
	}
}

func searchTimeline(r *http.Request, d deps.Deps, f domain.Filter) ([]domain.Record, bool, error) {
	ctx := r.Context()

	// Malformed bounds are rejected before the cache is consulted
	if _, err := domain.ParseFilter(f); err != nil {
		return nil, false, err
	}

	if d.Cache != nil {
		records, hit, err := d.Cache.GetCachedTimeline(ctx, d.Index.Generation(), f)
		recordLookup(r, d, redisstore.ScopeTimeline, hit, err)
		if err != nil {
			d.Logger.Warn("timeline cache lookup failed", logger.Error(err))
		} else if hit {
			return records, true, nil
		}
	}

	records, gen, err := d.Index.SearchAt(f)
	if err != nil {
		return nil, false, err
	}

	if d.Cache != nil {
		if err := d.Cache.CacheTimeline(ctx, gen, f, records); err != nil {
			d.Logger.Warn("failed to cache timeline", logger.Error(err))
		}
	}
	return records, false, nil
}
