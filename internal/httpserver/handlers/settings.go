package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
)

// GetSettings returns every stored setting
func GetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Settings.All())
	}
}

// PutSettings sets every key of the body object, leaving other keys untouched
func PutSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		if err := decodeBody(r, &in); err != nil {
			writeError(w, d, err)
			return
		}
		if len(in) == 0 {
			writeError(w, d, &domain.ValidationError{Field: "body", Reason: "no settings given"})
			return
		}

		for key, value := range in {
			if err := d.Settings.Set(key, value); err != nil {
				writeError(w, d, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, d.Settings.All())
	}
}

// ResetSettings clears every setting
func ResetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Settings.Reset(); err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, mutationResponse{OK: true})
	}
}
