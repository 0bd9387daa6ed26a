package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
)

type symptomLogRequest struct {
	Symptom string `json:"symptom"`
}

type symptomLogResponse struct {
	Count    int                      `json:"count"`
	Symptoms []domain.SymptomLogEntry `json:"symptoms"`
}

// ListSymptomLog returns the flat symptom log
func ListSymptomLog(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := d.Store.LoadSymptomLog()
		writeJSON(w, http.StatusOK, symptomLogResponse{Count: len(entries), Symptoms: entries})
	}
}

// LogSymptom appends one line to the flat symptom log
func LogSymptom(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in symptomLogRequest
		if err := decodeBody(r, &in); err != nil {
			writeError(w, d, err)
			return
		}

		entry, err := d.Store.LogSymptom(in.Symptom)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}
