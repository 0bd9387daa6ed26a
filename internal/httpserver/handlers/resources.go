package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
)

type resourcesResponse struct {
	Count     int               `json:"count"`
	Resources []domain.Resource `json:"resources"`
}

// ListResources returns the resources in canonical form
func ListResources(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := d.Store.LoadResources()
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, resourcesResponse{Count: len(items), Resources: items})
	}
}

// AddResource appends a resource. Tags may be a list or a comma separated string.
func AddResource(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.Resource
		if err := decodeBody(r, &in); err != nil {
			writeError(w, d, err)
			return
		}

		res, err := d.Store.AddResource(in)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

// RemoveResource deletes the resource at the position given in the path
func RemoveResource(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			writeError(w, d, &domain.ValidationError{Field: "index", Reason: "index must be an integer"})
			return
		}

		ok, err := d.Store.RemoveResource(index)
		if err != nil {
			writeError(w, d, err)
			return
		}
		if !ok {
			writeNotFound(w, "resource")
			return
		}
		writeJSON(w, http.StatusOK, mutationResponse{OK: true})
	}
}
