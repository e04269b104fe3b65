package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/pitchscore/internal/export"
	"github.com/sells-group/pitchscore/internal/model"
	"github.com/sells-group/pitchscore/internal/store"
)

const publishMessage = "Publish request received; the record is now in review."

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "could not read request body")
		return
	}
	var in model.RecordInput
	if err := json.Unmarshal(body, &in); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid json")
		return
	}
	if in.Status != "" && !in.Status.Valid() {
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("unknown status %q", in.Status))
		return
	}

	rec, err := s.store.CreateRecord(r.Context(), in)
	if err != nil {
		writeStoreError(w, r, err, codeInsert)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": rec.ID, "data": rec})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadFilter, err.Error())
		return
	}
	page, err := s.store.ListRecords(r.Context(), f)
	if err != nil {
		writeStoreError(w, r, err, "DB_SELECT_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleExportRecords(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadFilter, err.Error())
		return
	}
	records, err := export.Collect(r.Context(), s.store, f)
	if err != nil {
		writeStoreError(w, r, err, "DB_SELECT_ERROR")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="founder_records_%s.%s"`,
		s.now().Format("20060102"), format.Ext()))
	w.WriteHeader(http.StatusOK)
	if err := export.Write(w, format, records); err != nil {
		zap.L().Error("export records", zap.String("format", string(format)), zap.Error(err))
	}
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, r, err, "DB_SELECT_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rec})
}

func (s *Server) handlePatchRecord(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "could not read request body")
		return
	}
	patch, err := store.PatchFromJSON(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid json")
		return
	}

	rec, err := s.store.UpdateRecord(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeStoreError(w, r, err, "DB_UPDATE_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rec})
}

func (s *Server) handlePublishRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.RequestPublish(r.Context(), id, s.now())
	if err != nil {
		writeStoreError(w, r, err, "DB_UPDATE_ERROR")
		return
	}

	err = s.notifier.PublishRequested(r.Context(), *rec)
	s.metrics.ObserveNotification(err)
	if err != nil {
		zap.L().Warn("publish notification failed", zap.String("id", id), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": publishMessage, "data": rec})
}
