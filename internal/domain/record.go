package domain

import (
	"bytes"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

// Kind tags the collection a timeline record originates from.
type Kind string

const (
	KindDose    Kind = "dose"
	KindSymptom Kind = "symptom"

	// kindLegacyHRT is written by older builds for dose entries.
	kindLegacyHRT Kind = "hrt"
)

// IsDose reports whether the kind denotes a dose entry, legacy tags included.
func (k Kind) IsDose() bool {
	return k == KindDose || k == kindLegacyHRT
}

const (
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04"
	TimestampLayout = "2006-01-02T15:04:05"
)

// Record is one log entry of any kind.
//
// The fields the engine interprets are explicit. Everything else found on
// disk (energy, sleep, extra_context, fields added by future versions) is
// kept verbatim in Extra and written back unchanged.
//
// A timeline element that is not a JSON object decodes to an opaque record:
// it keeps its raw JSON, never gets an id or kind, and round-trips as is.
type Record struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is unique within its collection and stable once written.
	ID string

	// Kind is assigned at merge time when absent.
	Kind Kind

	// ─────────────────────────────
	// When
	// ─────────────────────────────

	Date      string // YYYY-MM-DD
	Time      string // HH:MM
	Timestamp string // ISO-8601, second precision, set at creation

	// ─────────────────────────────
	// Descriptive text
	// ─────────────────────────────

	Title    string
	Mood     string
	Symptoms string
	Entry    string // legacy free-text body
	Notes    string

	// Medications is never nil once decoded.
	Medications []Medication

	// Extra holds every field the engine does not interpret.
	Extra map[string]json.RawMessage

	raw json.RawMessage
}

type textField struct {
	key string
	ptr *string
}

// textFields lists the interpreted string fields in on-disk order.
func (r *Record) textFields() []textField {
	return []textField{
		{"id", &r.ID},
		{"kind", (*string)(&r.Kind)},
		{"date", &r.Date},
		{"time", &r.Time},
		{"timestamp", &r.Timestamp},
		{"title", &r.Title},
		{"mood", &r.Mood},
		{"symptoms", &r.Symptoms},
		{"entry", &r.Entry},
		{"notes", &r.Notes},
	}
}

func (r *Record) textField(key string) *string {
	for _, f := range r.textFields() {
		if f.key == key {
			return f.ptr
		}
	}
	return nil
}

// IsOpaque reports whether the record came from a non-object JSON value.
func (r Record) IsOpaque() bool {
	return r.raw != nil
}

// String returns the text form of an opaque record, or a short description otherwise.
func (r Record) String() string {
	if r.raw != nil {
		if s, ok := decodeText(r.raw); ok {
			return s
		}
		return string(r.raw)
	}
	if r.ID != "" {
		return "record " + r.ID
	}
	return "record"
}

// ExtraText returns the text form of an uninterpreted field.
func (r Record) ExtraText(key string) (string, bool) {
	raw, ok := r.Extra[key]
	if !ok {
		return "", false
	}
	return decodeText(raw)
}

// SetExtra stores value under key in the residual field map.
func (r *Record) SetExtra(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if r.Extra == nil {
		r.Extra = make(map[string]json.RawMessage)
	}
	r.Extra[key] = data
	return nil
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	if r.raw != nil {
		out.raw = append(json.RawMessage(nil), r.raw...)
	}
	if r.Medications != nil {
		out.Medications = make([]Medication, len(r.Medications))
		for i, m := range r.Medications {
			out.Medications[i] = m.clone()
		}
	}
	out.Extra = cloneRaw(r.Extra)
	return out
}

// UnmarshalJSON decodes any JSON value into a record, tolerating legacy shapes.
func (r *Record) UnmarshalJSON(data []byte) error {
	*r = Record{Medications: []Medication{}}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		r.raw = compactRaw(trimmed)
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return err
	}

	for key, value := range fields {
		if key == "medications" {
			r.Medications = decodeMedications(value)
			continue
		}
		if dst := r.textField(key); dst != nil {
			if s, ok := decodeText(value); ok {
				*dst = s
				continue
			}
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[key] = compactRaw(value)
	}
	return nil
}

// MarshalJSON writes interpreted fields first, then the residual fields by key.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}

	w := newObjectWriter()
	for _, f := range r.textFields() {
		if *f.ptr == "" {
			continue
		}
		if err := w.field(f.key, *f.ptr); err != nil {
			return nil, err
		}
	}
	if len(r.Medications) > 0 {
		if err := w.field("medications", r.Medications); err != nil {
			return nil, err
		}
	}
	for _, key := range sortedKeys(r.Extra) {
		if r.textField(key) != nil && *r.textField(key) != "" {
			continue
		}
		if key == "medications" && len(r.Medications) > 0 {
			continue
		}
		if err := w.raw(key, r.Extra[key]); err != nil {
			return nil, err
		}
	}
	return w.close(), nil
}

// Medication is one dose line of an entry.
type Medication struct {
	Name  string
	Dose  string
	Unit  string
	Time  string
	Route string

	// Text holds a legacy medication stored as a bare value.
	Text string

	Extra map[string]json.RawMessage
}

func (m *Medication) fields() []textField {
	return []textField{
		{"name", &m.Name},
		{"dose", &m.Dose},
		{"unit", &m.Unit},
		{"time", &m.Time},
		{"route", &m.Route},
	}
}

// IsBlank reports whether the medication carries no usable field.
func (m Medication) IsBlank() bool {
	return strings.TrimSpace(m.Name) == "" &&
		strings.TrimSpace(m.Dose) == "" &&
		strings.TrimSpace(m.Unit) == "" &&
		strings.TrimSpace(m.Time) == "" &&
		strings.TrimSpace(m.Route) == "" &&
		strings.TrimSpace(m.Text) == ""
}

// Render formats the medication as "name dose unit at time via route".
// A medication with nothing to show renders as "(blank)".
func (m Medication) Render() string {
	if m.Text != "" && m.Name == "" && m.Dose == "" && m.Unit == "" && m.Time == "" && m.Route == "" {
		return m.Text
	}

	dose := m.Dose
	if m.Unit != "" && m.Dose != "" {
		dose += " " + m.Unit
	}

	parts := make([]string, 0, 4)
	for _, p := range []string{
		m.Name,
		strings.TrimSpace(dose),
		prefixed("at ", m.Time),
		prefixed("via ", m.Route),
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "(blank)"
	}
	return strings.Join(parts, " ")
}

func prefixed(prefix, s string) string {
	if s == "" {
		return ""
	}
	return prefix + s
}

func (m Medication) clone() Medication {
	out := m
	out.Extra = cloneRaw(m.Extra)
	return out
}

func (m *Medication) UnmarshalJSON(data []byte) error {
	*m = Medication{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if s, ok := decodeText(trimmed); ok {
			m.Text = s
		} else {
			m.Text = string(trimmed)
		}
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return err
	}

	known := make(map[string]*string, 5)
	for _, f := range m.fields() {
		known[f.key] = f.ptr
	}
	for key, value := range fields {
		if dst, ok := known[key]; ok {
			if s, ok := decodeText(value); ok {
				*dst = s
				continue
			}
		}
		if m.Extra == nil {
			m.Extra = make(map[string]json.RawMessage)
		}
		m.Extra[key] = compactRaw(value)
	}
	return nil
}

func (m Medication) MarshalJSON() ([]byte, error) {
	if m.Text != "" && len(m.Extra) == 0 &&
		m.Name == "" && m.Dose == "" && m.Unit == "" && m.Time == "" && m.Route == "" {
		return json.Marshal(m.Text)
	}

	w := newObjectWriter()
	for _, f := range m.fields() {
		if err := w.field(f.key, *f.ptr); err != nil {
			return nil, err
		}
	}
	for _, key := range sortedKeys(m.Extra) {
		switch key {
		case "name", "dose", "unit", "time", "route":
			continue
		}
		if err := w.raw(key, m.Extra[key]); err != nil {
			return nil, err
		}
	}
	return w.close(), nil
}

func decodeMedications(value json.RawMessage) []Medication {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Medication{}
	}

	if trimmed[0] != '[' {
		var single Medication
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return []Medication{}
		}
		return []Medication{single}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return []Medication{}
	}
	meds := make([]Medication, 0, len(items))
	for _, item := range items {
		var m Medication
		if err := json.Unmarshal(item, &m); err != nil {
			m = Medication{Text: string(item)}
		}
		meds = append(meds, m)
	}
	return meds
}

// decodeText returns the text form of a scalar JSON value.
// Lists of scalars are comma-joined; objects are rejected.
func decodeText(value json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 {
		return "", false
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	case '{':
		return "", false
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return "", false
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := decodeText(item)
			if !ok {
				return "", false
			}
			if s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), true
	case 'n':
		return "", true
	default:
		// numbers and booleans keep their literal spelling
		return string(trimmed), true
	}
}

// compactRaw copies value without insignificant whitespace so that
// indented files decode to the same bytes they were written from.
func compactRaw(value []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return append(json.RawMessage(nil), value...)
	}
	return json.RawMessage(buf.Bytes())
}

func cloneRaw(in map[string]json.RawMessage) map[string]json.RawMessage {
	if in == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// objectWriter emits a JSON object with a fixed key order.
type objectWriter struct {
	buf   bytes.Buffer
	first bool
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{first: true}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) field(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return w.raw(key, data)
}

func (w *objectWriter) raw(key string, value json.RawMessage) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	if !w.first {
		w.buf.WriteByte(',')
	}
	w.first = false
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(value)
	return nil
}

func (w *objectWriter) close() []byte {
	w.buf.WriteByte('}')
	return w.buf.Bytes()
}
