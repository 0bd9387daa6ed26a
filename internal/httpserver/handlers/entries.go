package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hrtlog/internal/logger"
)

type entryResponse struct {
	Entry  domain.Record `json:"entry"`
	Detail string        `json:"detail"`
}

type mutationResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id,omitempty"`
}

// GetEntry returns one entry with its rendered detail view
func GetEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		rec, ok, err := d.Store.Get(id)
		if err != nil {
			writeError(w, d, err)
			return
		}
		if !ok {
			writeNotFound(w, "entry")
			return
		}

		writeJSON(w, http.StatusOK, entryResponse{
			Entry:  rec,
			Detail: domain.Detail(rec, 0),
		})
	}
}

// DeleteEntry removes an entry by id
func DeleteEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		ok, err := d.Store.DeleteByID(id)
		if err != nil {
			writeError(w, d, err)
			return
		}
		if !ok {
			writeNotFound(w, "entry")
			return
		}

		d.Logger.Info("entry deleted via endpoint",
			logger.String("id", id))
		afterMutation(r, d)
		writeJSON(w, http.StatusOK, mutationResponse{OK: true, ID: id})
	}
}

// DuplicateEntry appends a copy of an entry with a fresh id and timestamp
func DuplicateEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		created, ok, err := d.Store.DuplicateByID(id)
		if err != nil {
			writeError(w, d, err)
			return
		}
		if !ok {
			writeNotFound(w, "entry")
			return
		}

		afterMutation(r, d)
		writeJSON(w, http.StatusCreated, mutationResponse{OK: true, ID: created.ID})
	}
}

// AddDose records a new dose entry
func AddDose(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.DoseInput
		if err := decodeBody(r, &in); err != nil {
			writeError(w, d, err)
			return
		}

		rec, err := d.Store.AddDose(in)
		if err != nil {
			writeError(w, d, err)
			return
		}

		afterMutation(r, d)
		writeJSON(w, http.StatusCreated, rec)
	}
}

// AddSymptom records a new symptom check-in
func AddSymptom(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.SymptomInput
		if err := decodeBody(r, &in); err != nil {
			writeError(w, d, err)
			return
		}

		rec, err := d.Store.AddSymptomEntry(in)
		if err != nil {
			writeError(w, d, err)
			return
		}

		afterMutation(r, d)
		writeJSON(w, http.StatusCreated, rec)
	}
}
