package domain

import (
	"strings"
	"time"
)

// DoseInput is a new dose entry as submitted by a producing surface.
type DoseInput struct {
	Date        string       `json:"date"`
	Time        string       `json:"time"`
	Title       string       `json:"title"`
	Mood        string       `json:"mood"`
	Symptoms    string       `json:"symptoms"`
	Notes       string       `json:"notes"`
	Medications []Medication `json:"medications"`
}

// SymptomInput is a new symptom check-in.
type SymptomInput struct {
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Mood         string   `json:"mood"`
	Energy       string   `json:"energy"`
	Sleep        string   `json:"sleep"`
	Dysphoria    string   `json:"dysphoria"`
	Euphoria     string   `json:"euphoria"`
	Freeform     string   `json:"freeform"`
	ExtraContext string   `json:"extra_context"`
	Symptoms     []string `json:"symptoms"`
	Notes        string   `json:"notes"`
}

// BuildDose validates in and returns the record to append. Medications with
// none of name, dose or time are dropped; at least one must remain.
func BuildDose(in DoseInput, id string, now time.Time) (Record, error) {
	date, clock, err := validateWhen(in.Date, in.Time)
	if err != nil {
		return Record{}, err
	}

	meds := make([]Medication, 0, len(in.Medications))
	for _, m := range in.Medications {
		m = Medication{
			Name:  strings.TrimSpace(m.Name),
			Dose:  strings.TrimSpace(m.Dose),
			Unit:  strings.TrimSpace(m.Unit),
			Time:  strings.TrimSpace(m.Time),
			Route: strings.TrimSpace(m.Route),
		}
		if m.Name == "" && m.Dose == "" && m.Time == "" {
			continue
		}
		meds = append(meds, m)
	}
	if len(meds) == 0 {
		return Record{}, invalid("medications", "enter at least one medication (name/dose/time)")
	}

	return Record{
		ID:          id,
		Date:        date,
		Time:        clock,
		Timestamp:   FormatTimestamp(now),
		Title:       strings.TrimSpace(in.Title),
		Mood:        strings.TrimSpace(in.Mood),
		Symptoms:    strings.TrimSpace(in.Symptoms),
		Notes:       strings.TrimSpace(in.Notes),
		Medications: meds,
	}, nil
}

// BuildSymptom validates in and returns the record to append. The check-in
// specific fields are stored alongside the interpreted ones.
func BuildSymptom(in SymptomInput, id string, now time.Time) (Record, error) {
	date, clock, err := validateWhen(in.Date, in.Time)
	if err != nil {
		return Record{}, err
	}

	list := NormalizeTags(in.Symptoms)
	r := Record{
		ID:          id,
		Kind:        KindSymptom,
		Date:        date,
		Time:        clock,
		Timestamp:   FormatTimestamp(now),
		Mood:        strings.TrimSpace(in.Mood),
		Symptoms:    strings.Join(list, ", "),
		Notes:       strings.TrimSpace(in.Notes),
		Medications: []Medication{},
	}

	extras := []struct {
		key, value string
	}{
		{"energy", in.Energy},
		{"sleep", in.Sleep},
		{"dysphoria", in.Dysphoria},
		{"euphoria", in.Euphoria},
		{"freeform", in.Freeform},
		{"extra_context", in.ExtraContext},
	}
	empty := r.Mood == "" && r.Notes == "" && len(list) == 0
	for _, e := range extras {
		v := strings.TrimSpace(e.value)
		if v == "" {
			continue
		}
		empty = false
		if err := r.SetExtra(e.key, v); err != nil {
			return Record{}, err
		}
	}
	if empty {
		return Record{}, invalid("", "nothing to save: fill in at least one field")
	}
	if len(list) > 0 {
		if err := r.SetExtra("symptom_list", list); err != nil {
			return Record{}, err
		}
	}
	return r, nil
}

func validateWhen(date, clock string) (string, string, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date != "" {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return "", "", invalid("date", "date must be YYYY-MM-DD")
		}
	}
	if clock != "" {
		if _, err := time.Parse(TimeLayout, clock); err != nil {
			return "", "", invalid("time", "time must be HH:MM")
		}
	}
	return date, clock, nil
}
