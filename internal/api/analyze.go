package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pitchscore/internal/model"
)

// DecodeSubmission accepts either {"form": Submission} or a bare Submission.
func DecodeSubmission(data []byte) (model.Submission, error) {
	var env struct {
		Form json.RawMessage `json:"form"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return model.Submission{}, eris.Wrap(err, "api: decode submission")
	}

	payload := data
	if len(env.Form) > 0 && !bytes.Equal(bytes.TrimSpace(env.Form), []byte("null")) {
		payload = env.Form
	}
	var sub model.Submission
	if err := json.Unmarshal(payload, &sub); err != nil {
		return model.Submission{}, eris.Wrap(err, "api: decode submission")
	}
	return sub, nil
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "could not read request body")
		return
	}
	sub, err := DecodeSubmission(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid json")
		return
	}

	a := s.engine.Analyze(sub)
	s.metrics.ObserveAnalysis(a)
	writeJSON(w, http.StatusOK, a)
}
