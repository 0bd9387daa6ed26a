package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
)

// TimelineIndex holds the last loaded timeline in memory, newest first,
// so reads do not hit the data files.
type TimelineIndex struct {
	mu         sync.RWMutex
	ordered    []domain.Record          // newest first
	byID       map[string]domain.Record // ID -> Record
	kinds      map[domain.Kind]int
	lastReload time.Time
	generation uint64 // bumped by every Update
}

// NewTimelineIndex creates an empty index. The generation starts from the
// clock so it never repeats across restarts.
func NewTimelineIndex() *TimelineIndex {
	return &TimelineIndex{
		byID:       make(map[string]domain.Record),
		kinds:      make(map[domain.Kind]int),
		generation: uint64(time.Now().UnixNano()),
	}
}

// Update replaces the whole timeline. The slice is copied and ordered.
func (idx *TimelineIndex) Update(timeline []domain.Record) {
	ordered := domain.Apply(timeline, domain.Query{})

	byID := make(map[string]domain.Record, len(ordered))
	kinds := make(map[domain.Kind]int)
	for _, r := range ordered {
		if r.ID != "" {
			if _, dup := byID[r.ID]; !dup {
				byID[r.ID] = r
			}
		}
		kinds[r.Kind]++
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.ordered = ordered
	idx.byID = byID
	idx.kinds = kinds
	idx.lastReload = time.Now()
	idx.generation++
}

// Get retrieves a record by ID. The first record in scan order wins when
// two collections share an id.
func (idx *TimelineIndex) Get(id string) (domain.Record, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	r, ok := idx.byID[id]
	return r, ok
}

// All returns the timeline, newest first
func (idx *TimelineIndex) All() []domain.Record {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.Record, len(idx.ordered))
	copy(out, idx.ordered)
	return out
}

// Search applies f to the indexed timeline.
func (idx *TimelineIndex) Search(f domain.Filter) ([]domain.Record, error) {
	records, _, err := idx.SearchAt(f)
	return records, err
}

// SearchAt is Search that also returns the generation the result was read
// from, so a cached copy can be keyed to it.
func (idx *TimelineIndex) SearchAt(f domain.Filter) ([]domain.Record, uint64, error) {
	q, err := domain.ParseFilter(f)
	if err != nil {
		return nil, 0, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return domain.Apply(idx.ordered, q), idx.generation, nil
}

// Generation identifies the current content of the index
func (idx *TimelineIndex) Generation() uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.generation
}

// Count returns the number of records in the index
func (idx *TimelineIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.ordered)
}

// CountKind returns the number of records tagged with kind
func (idx *TimelineIndex) CountKind(kind domain.Kind) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.kinds[kind]
}

// GetLastReload returns the timestamp of the last update, zero before the first one
func (idx *TimelineIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}

// CountDoses returns the number of dose records, legacy tags included
func (idx *TimelineIndex) CountDoses() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := 0
	for kind, count := range idx.kinds {
		if kind.IsDose() {
			n += count
		}
	}
	return n
}
