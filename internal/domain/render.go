package domain

import (
	"fmt"
	"strings"
)

// Summary renders a record as a single list line; index is its 0-based position.
func Summary(r Record, index int) string {
	if r.IsOpaque() {
		return fmt.Sprintf("%d: %s", index+1, r.String())
	}

	when := whenOf(r)
	if when == "" {
		when = fmt.Sprintf("Entry %d", index+1)
	}

	if r.Kind == KindSymptom {
		label := "Symptoms"
		if r.Symptoms != "" {
			label += ": " + r.Symptoms
		}
		return when + " - " + label
	}

	names := make([]string, 0, len(r.Medications))
	for _, m := range r.Medications {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			name = strings.TrimSpace(m.Text)
		}
		if name != "" {
			names = append(names, name)
		}
	}
	meds := ""
	if len(names) > 3 {
		meds = " (" + strings.Join(names[:3], ", ") + ", ...)"
	} else if len(names) > 0 {
		meds = " (" + strings.Join(names, ", ") + ")"
	}

	title := r.Title
	if title == "" {
		title = r.Entry
	}
	if title != "" {
		return when + " - " + title + meds
	}
	return when + meds
}

// Detail renders a record as a multi-line view. Check-in fields are only
// shown for symptom entries.
func Detail(r Record, index int) string {
	if r.IsOpaque() {
		return fmt.Sprintf("Entry %d\n\n%s", index+1, r.String())
	}

	var lines []string
	if r.Kind == KindSymptom {
		lines = append(lines, fmt.Sprintf("Symptom entry #%d", index+1))
	} else {
		lines = append(lines, fmt.Sprintf("HRT entry #%d", index+1))
	}
	if r.ID != "" {
		lines = append(lines, "ID: "+r.ID)
	}
	if r.Date != "" || r.Time != "" {
		lines = append(lines, strings.TrimSpace("Date / Time: "+r.Date+" "+r.Time))
	}
	if r.Timestamp != "" {
		lines = append(lines, "Recorded at: "+r.Timestamp)
	}
	if r.Title != "" {
		lines = append(lines, "Title: "+r.Title)
	}
	if r.Mood != "" {
		lines = append(lines, "Mood: "+r.Mood)
	}

	if r.Kind == KindSymptom {
		for _, f := range []struct{ key, label string }{
			{"energy", "Energy"},
			{"sleep", "Sleep"},
			{"dysphoria", "Dysphoria / distress"},
			{"euphoria", "Euphoria & wins"},
			{"freeform", "Freeform"},
		} {
			if v, ok := r.ExtraText(f.key); ok && v != "" {
				lines = append(lines, f.label+": "+v)
			}
		}
		if v, ok := r.ExtraText("extra_context"); ok && v != "" {
			lines = append(lines, "", "Extra context:", v)
		}
	}

	if r.Symptoms != "" {
		lines = append(lines, "Symptoms: "+r.Symptoms)
	}
	if r.Entry != "" && r.Entry != r.Title {
		lines = append(lines, "Text: "+r.Entry)
	}

	if len(r.Medications) > 0 {
		lines = append(lines, "", "Medications:")
		for i, m := range r.Medications {
			lines = append(lines, fmt.Sprintf("  %d. %s", i+1, m.Render()))
		}
	}

	if r.Notes != "" {
		lines = append(lines, "", "Notes:", r.Notes)
	}
	return strings.Join(lines, "\n")
}

func whenOf(r Record) string {
	switch {
	case r.Date != "" && r.Time != "":
		return r.Date + " " + r.Time
	case r.Date != "":
		return r.Date
	default:
		return r.Timestamp
	}
}
