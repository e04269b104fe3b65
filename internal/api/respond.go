package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/pitchscore/internal/draft"
	"github.com/sells-group/pitchscore/internal/store"
)

// Error codes carried in the error body.
const (
	codeBadRequest        = "BAD_REQUEST"
	codeBadFilter         = "BAD_FILTER"
	codeNoFields          = "NO_FIELDS"
	codeNotFound          = "NOT_FOUND"
	codeInvalidTransition = "INVALID_TRANSITION"
	codeInvalidKey        = "INVALID_KEY"
	codeRateLimited       = "RATE_LIMITED"
	codeInsert            = "DB_INSERT_ERROR"
	codeInternal          = "INTERNAL"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write json response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

// writeStoreError maps store and draft sentinels to client errors. Anything
// else is logged and reported as a 500 with fallbackCode.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, fallbackCode string) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, draft.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	case errors.Is(err, store.ErrNoFields):
		writeError(w, http.StatusBadRequest, codeNoFields, "no updatable fields")
	case errors.Is(err, store.ErrInvalidTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, "record cannot be submitted for review from its current status")
	case errors.Is(err, draft.ErrInvalidKey):
		writeError(w, http.StatusBadRequest, codeInvalidKey, err.Error())
	default:
		zap.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, fallbackCode, "internal error")
	}
}

// readBody reads a bounded request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}
