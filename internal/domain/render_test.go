package domain

import (
	"strings"
	"testing"
)

func TestSummary(t *testing.T) {
	records := Merge(
		decodeRecords(t, `[
			{"date": "2024-01-01", "time": "08:00", "title": "Morning", "medications": [{"name": "A"}, {"name": "B"}, {"name": "C"}, {"name": "D"}]},
			{"timestamp": "2024-01-02T10:00:00", "entry": "legacy text"},
			{},
			"bare"
		]`),
		decodeRecords(t, `[{"date": "2024-01-03", "symptoms": "headache"}]`),
	)

	want := []string{
		"2024-01-01 08:00 - Morning (A, B, C, ...)",
		"2024-01-02T10:00:00 - legacy text",
		"Entry 3",
		"4: bare",
		"2024-01-03 - Symptoms: headache",
	}
	for i, w := range want {
		if got := Summary(records[i], i); got != w {
			t.Errorf("Summary(%d) = %q, want %q", i, got, w)
		}
	}
}

func TestDetail(t *testing.T) {
	sym := Merge(nil, decodeRecords(t, `[{"id": "s1", "date": "2024-01-03", "mood": "ok", "energy": "low", "extra_context": "long day", "notes": "n"}]`))[0]

	got := Detail(sym, 0)
	for _, want := range []string{"Symptom entry #1", "ID: s1", "Energy: low", "Extra context:\nlong day", "Notes:\nn"} {
		if !strings.Contains(got, want) {
			t.Errorf("Detail() missing %q in:\n%s", want, got)
		}
	}

	dose := Merge(decodeRecords(t, `[{"id": "d1", "energy": "high", "medications": [{"name": "E", "dose": "2", "unit": "mg"}]}]`), nil)[0]
	got = Detail(dose, 1)
	if strings.Contains(got, "Energy") {
		t.Errorf("Detail() shows check-in fields for a dose entry:\n%s", got)
	}
	if !strings.Contains(got, "HRT entry #2") || !strings.Contains(got, "  1. E 2 mg") {
		t.Errorf("Detail() = %q", got)
	}
}
