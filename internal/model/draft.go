package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Draft is an in-progress founder form, saved on change and restored on
// load. Form is the raw form object as the client sent it, nested P&L
// block included, so partially typed values survive a round trip.
type Draft struct {
	Form    json.RawMessage `json:"form"`
	Tags    Tags            `json:"tags,omitempty"`
	SavedAt time.Time       `json:"saved_at"`
}

// FormIsObject reports whether Form is absent, null, or a JSON object.
func (d Draft) FormIsObject() bool {
	trimmed := bytes.TrimSpace(d.Form)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true
	}
	return trimmed[0] == '{' && json.Valid(trimmed)
}
