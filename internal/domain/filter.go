package domain

import (
	"slices"
	"strings"
	"time"
)

// Filter is the raw, unvalidated filter input of a timeline query.
type Filter struct {
	Search string // case-insensitive substring
	Start  string // YYYY-MM-DD, inclusive, optional
	End    string // YYYY-MM-DD, inclusive, optional
}

// Query is a validated Filter.
type Query struct {
	Search string
	Start  *time.Time
	End    *time.Time
}

// HasDateBounds reports whether the query restricts dates at all.
func (q Query) HasDateBounds() bool {
	return q.Start != nil || q.End != nil
}

// ParseFilter validates the date bounds and normalizes the search text.
// A malformed bound is rejected, never ignored.
func ParseFilter(f Filter) (Query, error) {
	q := Query{Search: strings.ToLower(strings.TrimSpace(f.Search))}

	if s := strings.TrimSpace(f.Start); s != "" {
		d, err := time.Parse(DateLayout, s)
		if err != nil {
			return Query{}, invalid("start", "start date must be YYYY-MM-DD")
		}
		q.Start = &d
	}
	if s := strings.TrimSpace(f.End); s != "" {
		d, err := time.Parse(DateLayout, s)
		if err != nil {
			return Query{}, invalid("end", "end date must be YYYY-MM-DD")
		}
		q.End = &d
	}
	return q, nil
}

// Apply narrows the timeline to the records matching q and orders them newest
// first. Ties keep their input order. The input slice is left untouched.
func Apply(timeline []Record, q Query) []Record {
	out := make([]Record, 0, len(timeline))
	for _, r := range timeline {
		if inDateRange(r, q) && matchesSearch(r, q.Search) {
			out = append(out, r)
		}
	}

	keys := make(map[int]time.Time, len(out))
	idx := make([]int, len(out))
	for i := range out {
		idx[i] = i
		keys[i] = SortKey(out[i])
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return keys[b].Compare(keys[a])
	})

	sorted := make([]Record, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

// FilterTimeline parses f and applies it to the timeline.
func FilterTimeline(timeline []Record, f Filter) ([]Record, error) {
	q, err := ParseFilter(f)
	if err != nil {
		return nil, err
	}
	return Apply(timeline, q), nil
}

func inDateRange(r Record, q Query) bool {
	if !q.HasDateBounds() {
		return true
	}
	if r.IsOpaque() || r.Date == "" {
		return false
	}
	d, err := time.Parse(DateLayout, strings.TrimSpace(r.Date))
	if err != nil {
		return false
	}
	if q.Start != nil && d.Before(*q.Start) {
		return false
	}
	if q.End != nil && d.After(*q.End) {
		return false
	}
	return true
}

func matchesSearch(r Record, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(Haystack(r), search)
}

// Haystack is the lower-cased text a search term is matched against.
func Haystack(r Record) string {
	if r.IsOpaque() {
		return strings.ToLower(r.String())
	}

	fields := make([]string, 0, 16)
	add := func(s string) {
		if s != "" {
			fields = append(fields, s)
		}
	}

	for _, s := range []string{r.Title, r.Mood, r.Symptoms, r.Notes, r.Entry, r.Date, r.Time, r.Timestamp} {
		add(s)
	}
	for _, m := range r.Medications {
		if m.Text != "" {
			add(m.Text)
		}
		for _, s := range []string{m.Name, m.Dose, m.Unit, m.Route, m.Time} {
			add(s)
		}
	}
	if list, ok := r.ExtraText("symptom_list"); ok {
		add(list)
	}

	return strings.ToLower(strings.Join(fields, " "))
}

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05.999999999",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// SortKey derives the ordering time of a record: date and time together,
// then the date alone, then the creation timestamp. Records with none of
// them get the zero time and sort after everything else.
func SortKey(r Record) time.Time {
	if r.IsOpaque() {
		return time.Time{}
	}

	date := strings.TrimSpace(r.Date)
	clock := strings.TrimSpace(r.Time)

	if date != "" && clock != "" {
		if t, err := time.Parse(DateLayout+" "+TimeLayout, date+" "+clock); err == nil {
			return t
		}
	}
	if date != "" {
		if t, err := time.Parse(DateLayout, date); err == nil {
			return t
		}
	}
	if ts := strings.TrimSpace(r.Timestamp); ts != "" {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, ts); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
