package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func TestBuildDose(t *testing.T) {
	in := DoseInput{
		Date:  "2024-05-01",
		Time:  "09:00",
		Notes: " morning ",
		Medications: []Medication{
			{Name: "Estradiol", Dose: "2", Unit: "mg"},
			{Unit: "mg", Route: "oral"},
		},
	}

	r, err := BuildDose(in, "dose-x", testNow)
	if err != nil {
		t.Fatalf("BuildDose() error = %v", err)
	}
	if len(r.Medications) != 1 {
		t.Errorf("len(Medications) = %d, want 1 (unusable row dropped)", len(r.Medications))
	}
	if r.Notes != "morning" || r.Timestamp != "2024-05-01T09:30:00" || r.ID != "dose-x" {
		t.Errorf("BuildDose() = %+v", r)
	}
}

func TestBuildDoseValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    DoseInput
		field string
	}{
		{"bad date", DoseInput{Date: "01-05-2024", Medications: []Medication{{Name: "E"}}}, "date"},
		{"bad time", DoseInput{Time: "9am", Medications: []Medication{{Name: "E"}}}, "time"},
		{"no medication", DoseInput{Medications: []Medication{{Route: "oral"}}}, "medications"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildDose(tt.in, "id", testNow)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("BuildDose() error = %v, want validation error on %q", err, tt.field)
			}
		})
	}
}

func TestBuildSymptom(t *testing.T) {
	r, err := BuildSymptom(SymptomInput{
		Energy:   "low",
		Symptoms: []string{"headache", " fatigue ", "headache"},
	}, "sym-x", testNow)
	if err != nil {
		t.Fatalf("BuildSymptom() error = %v", err)
	}

	if r.Kind != KindSymptom {
		t.Errorf("Kind = %q, want %q", r.Kind, KindSymptom)
	}
	if r.Symptoms != "headache, fatigue" {
		t.Errorf("Symptoms = %q", r.Symptoms)
	}
	if got, _ := r.ExtraText("energy"); got != "low" {
		t.Errorf("energy = %q, want low", got)
	}
	if got, _ := r.ExtraText("symptom_list"); !strings.Contains(got, "fatigue") {
		t.Errorf("symptom_list = %q", got)
	}

	if _, err := BuildSymptom(SymptomInput{Date: "2024-05-01"}, "sym-y", testNow); err == nil {
		t.Errorf("BuildSymptom() with no content = nil, want error")
	}
}
