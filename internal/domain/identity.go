package domain

import (
	"fmt"
	"time"
)

const (
	PrefixDose    = "dose"
	PrefixSymptom = "sym"

	idTimeLayout = "20060102150405"
)

// EnsureIDs backfills an id on every record that lacks one and reports
// whether anything was assigned.
//
// Assigned ids follow "<prefix>-<seed>-<index>", where seed is a stable
// value supplied by the caller (the storage file's modification time) and
// index is the record's position. The scheme is best-effort, not
// cryptographic: ids only become stable once the caller persists the
// collection, so a true result obliges the caller to save before returning
// the records to anyone.
//
// Ids already present are never changed. If a generated id is already taken
// in the collection, a "-<n>" counter is appended until it is free.
func EnsureIDs(records []Record, prefix string, seed int64) ([]Record, bool) {
	taken := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ID != "" {
			taken[r.ID] = struct{}{}
		}
	}

	changed := false
	for i := range records {
		if records[i].ID != "" || records[i].IsOpaque() {
			continue
		}
		id := fmt.Sprintf("%s-%d-%d", prefix, seed, i)
		for n := 1; ; n++ {
			if _, dup := taken[id]; !dup {
				break
			}
			id = fmt.Sprintf("%s-%d-%d-%d", prefix, seed, i, n)
		}
		records[i].ID = id
		taken[id] = struct{}{}
		changed = true
	}
	return records, changed
}

// NewID formats the id of a record created at now in a collection of n records.
func NewID(prefix string, now time.Time, n int) string {
	return fmt.Sprintf("%s-%s-%d", prefix, now.Format(idTimeLayout), n)
}

// FormatTimestamp renders now the way creation timestamps are stored.
func FormatTimestamp(now time.Time) string {
	return now.Format(TimestampLayout)
}
