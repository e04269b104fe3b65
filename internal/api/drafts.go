package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/pitchscore/internal/model"
)

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.drafts.Load(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeStoreError(w, r, err, codeInternal)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": d})
}

func (s *Server) handlePutDraft(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "could not read request body")
		return
	}
	var d model.Draft
	if err := json.Unmarshal(body, &d); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid json")
		return
	}
	if !d.FormIsObject() {
		writeError(w, http.StatusBadRequest, codeBadRequest, "form must be a JSON object")
		return
	}
	d.SavedAt = s.now()

	if err := s.drafts.Save(r.Context(), chi.URLParam(r, "key"), d); err != nil {
		writeStoreError(w, r, err, codeInternal)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": d})
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.drafts.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		writeStoreError(w, r, err, codeInternal)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
