package domain

import (
	"bytes"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// SymptomLogEntry is one line of the flat symptom log.
type SymptomLogEntry struct {
	Symptom   string `json:"symptom"`
	Timestamp string `json:"timestamp"`
}

// NewSymptomLogEntry validates text and stamps it with now.
func NewSymptomLogEntry(text string, now time.Time) (SymptomLogEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return SymptomLogEntry{}, invalid("symptom", "please enter a symptom")
	}
	return SymptomLogEntry{Symptom: text, Timestamp: FormatTimestamp(now)}, nil
}

// UnmarshalJSON also accepts a bare string, which becomes the symptom text.
func (e *SymptomLogEntry) UnmarshalJSON(data []byte) error {
	*e = SymptomLogEntry{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if s, ok := decodeText(trimmed); ok {
			e.Symptom = s
		}
		return nil
	}

	var w struct {
		Symptom   json.RawMessage `json:"symptom"`
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return err
	}
	e.Symptom = textOrEmpty(w.Symptom)
	e.Timestamp = textOrEmpty(w.Timestamp)
	return nil
}
