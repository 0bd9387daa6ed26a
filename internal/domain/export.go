package domain

import "strings"

// Columns is the fixed header of a flattened timeline export.
var Columns = []string{
	"id", "date", "time", "timestamp", "title", "mood", "symptoms", "notes", "kind", "medications",
}

// MedicationDelimiter separates rendered medications in the medications column.
const MedicationDelimiter = " | "

// Row is one flattened timeline record.
type Row struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Timestamp   string `json:"timestamp"`
	Title       string `json:"title"`
	Mood        string `json:"mood"`
	Symptoms    string `json:"symptoms"`
	Notes       string `json:"notes"`
	Kind        string `json:"kind"`
	Medications string `json:"medications"`
}

// Values returns the row cells in Columns order.
func (r Row) Values() []string {
	return []string{
		r.ID, r.Date, r.Time, r.Timestamp, r.Title, r.Mood, r.Symptoms, r.Notes, r.Kind, r.Medications,
	}
}

// ToFlatRows flattens records into export rows.
// Opaque records degrade to a row carrying only their text in notes.
func ToFlatRows(records []Record) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		if r.IsOpaque() {
			rows = append(rows, Row{Notes: r.String()})
			continue
		}
		rows = append(rows, Row{
			ID:          r.ID,
			Date:        r.Date,
			Time:        r.Time,
			Timestamp:   r.Timestamp,
			Title:       r.Title,
			Mood:        r.Mood,
			Symptoms:    r.Symptoms,
			Notes:       r.Notes,
			Kind:        string(r.Kind),
			Medications: RenderMedications(r.Medications),
		})
	}
	return rows
}

// RenderMedications joins every rendered medication with MedicationDelimiter.
func RenderMedications(meds []Medication) string {
	parts := make([]string, 0, len(meds))
	for _, m := range meds {
		parts = append(parts, m.Render())
	}
	return strings.Join(parts, MedicationDelimiter)
}
