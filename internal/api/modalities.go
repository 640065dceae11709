package api

import (
	"net/http"

	"github.com/florianilch/aihub/internal/generation"
)

type modalitiesResponse struct {
	Modalities []generation.Binding `json:"modalities"`
}

// modalitiesHandler lists which provider and model serve each modality, in
// display order, so the UI can label its panels.
func modalitiesHandler(bindings []generation.Binding) http.HandlerFunc {
	resp := modalitiesResponse{Modalities: generation.SortBindings(bindings)}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, resp, http.StatusOK)
	}
}
