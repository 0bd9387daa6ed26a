package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hrtlog/internal/logger"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status: validation errors are 400, anything
// else is logged and reported as 500 without details.
func writeError(w http.ResponseWriter, d deps.Deps, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
		return
	}
	d.Logger.Error("request failed", logger.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
}

func writeNotFound(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: what + " not found"})
}

// decodeBody reads a JSON body of at most maxBodyBytes into v. A body that
// does not parse is a validation error on field "body".
func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) > maxBodyBytes {
		return &domain.ValidationError{Field: "body", Reason: "request body too large"}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "request body must be valid JSON"}
	}
	return nil
}

// filterFromRequest reads the q, start and end query parameters
func filterFromRequest(r *http.Request) domain.Filter {
	q := r.URL.Query()
	return domain.Filter{
		Search: q.Get("q"),
		Start:  q.Get("start"),
		End:    q.Get("end"),
	}
}

// afterMutation reloads the index so the next read sees the change. The
// mutation already succeeded, so a failed reload is only logged.
func afterMutation(r *http.Request, d deps.Deps) {
	if d.Reloader == nil {
		return
	}
	if err := d.Reloader.Reload(r.Context()); err != nil {
		d.Logger.Warn("reload after mutation failed", logger.Error(err))
	}
}

// recordLookup reports a cache lookup to metrics and to the usage counters
// shown on /infra.
func recordLookup(r *http.Request, d deps.Deps, scope string, hit bool, err error) {
	if d.Metrics != nil {
		d.Metrics.CacheLookup(scope, hit, err)
	}
	if err != nil || d.Cache == nil {
		return
	}
	op := scope + ":miss"
	if hit {
		op = scope + ":hit"
	}
	if err := d.Cache.IncrementUsage(r.Context(), op); err != nil {
		d.Logger.Debug("failed to count usage", logger.Error(err))
	}
}
