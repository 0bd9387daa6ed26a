package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
	"github.com/MrSnakeDoc/hrtlog/internal/export"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hrtlog/internal/logger"
	redisstore "github.com/MrSnakeDoc/hrtlog/internal/store/redis"
)

// ExportCSV serves the filtered timeline as a CSV download
func ExportCSV(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := filterFromRequest(r)

		rows, err := exportRows(r, d, f)
		if err != nil {
			writeError(w, d, err)
			return
		}

		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, rows); err != nil {
			writeError(w, d, err)
			return
		}

		name := export.FileName(d.Now().Format(domain.DateLayout))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(buf.Bytes()); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}

func exportRows(r *http.Request, d deps.Deps, f domain.Filter) ([]domain.Row, error) {
	ctx := r.Context()

	if _, err := domain.ParseFilter(f); err != nil {
		return nil, err
	}

	if d.Cache != nil {
		rows, hit, err := d.Cache.GetCachedRows(ctx, d.Index.Generation(), f)
		recordLookup(r, d, redisstore.ScopeExport, hit, err)
		if err != nil {
			d.Logger.Warn("export cache lookup failed", logger.Error(err))
		} else if hit {
			return rows, nil
		}
	}

	records, gen, err := d.Index.SearchAt(f)
	if err != nil {
		return nil, err
	}
	rows := domain.ToFlatRows(records)

	if d.Cache != nil {
		if err := d.Cache.CacheRows(ctx, gen, f, rows); err != nil {
			d.Logger.Warn("failed to cache export rows", logger.Error(err))
		}
	}
	return rows, nil
}
