package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
	"github.com/MrSnakeDoc/hrtlog/internal/logger"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

type recordingObserver struct {
	mu        sync.Mutex
	malformed []string
	backfills []string
	mutations map[string]int
}

func (o *recordingObserver) CollectionLoaded(string, int) {}
func (o *recordingObserver) CollectionSaved(string, int)  {}
func (o *recordingObserver) MalformedRead(c string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.malformed = append(o.malformed, c)
}
func (o *recordingObserver) IDsBackfilled(c string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.backfills = append(o.backfills, c)
}
func (o *recordingObserver) Mutation(op string, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mutations == nil {
		o.mutations = map[string]int{}
	}
	if ok {
		o.mutations[op]++
	}
}

func newTestStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(dir, logger.Nop(), opts...), dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func idsOf(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestLoadBackfillsAndPersistsIDs(t *testing.T) {
	obs := &recordingObserver{}
	s, dir := newTestStore(t, WithObserver(obs))
	writeFile(t, dir, DosesFile, `[{"date": "2024-01-01"}, {"id": "keep"}, {"date": "2024-01-03"}]`)

	first, err := s.LoadDoses()
	require.NoError(t, err)
	for _, r := range first {
		assert.NotEmpty(t, r.ID)
	}
	assert.Equal(t, "keep", first[1].ID)
	assert.Equal(t, []string{CollectionDoses}, obs.backfills)

	data, err := os.ReadFile(filepath.Join(dir, DosesFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n    \"entries\""), "backfill did not rewrite the wrapped form")

	second, err := s.LoadDoses()
	require.NoError(t, err)
	assert.Equal(t, idsOf(first), idsOf(second))
	assert.Len(t, obs.backfills, 1, "second load must not backfill again")
}

func TestBackfilledIDsUseFileModTime(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, SymptomsFile, `{"entries": [{"symptoms": "headache"}]}`)
	mtime := time.Unix(1700000000, 0)
	require.NoError(t, os.Chtimes(filepath.Join(dir, SymptomsFile), mtime, mtime))

	got, err := s.LoadSymptoms()
	require.NoError(t, err)
	assert.Equal(t, "sym-1700000000-0", got[0].ID)
}

func TestBackfillIsReproducibleWithInjectedSeed(t *testing.T) {
	const legacy = `[{"date": "2024-01-01"}, {"date": "2024-01-02"}]`

	a, dirA := newTestStore(t, WithSeed(42))
	b, dirB := newTestStore(t, WithSeed(42))
	writeFile(t, dirA, DosesFile, legacy)
	writeFile(t, dirB, DosesFile, legacy)

	ra, err := a.LoadDoses()
	require.NoError(t, err)
	rb, err := b.LoadDoses()
	require.NoError(t, err)

	assert.Equal(t, []string{"dose-42-0", "dose-42-1"}, idsOf(ra))
	assert.Equal(t, idsOf(ra), idsOf(rb))
}

func TestMalformedCollectionLoadsEmpty(t *testing.T) {
	obs := &recordingObserver{}
	s, dir := newTestStore(t, WithObserver(obs))
	writeFile(t, dir, DosesFile, `{not json`)

	got, err := s.LoadDoses()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, []string{CollectionDoses}, obs.malformed)
}

func TestDeleteByID(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, DosesFile, `{"entries": [{"id": "shared"}, {"id": "d2"}]}`)
	writeFile(t, dir, SymptomsFile, `{"entries": [{"id": "shared"}, {"id": "s2"}]}`)

	ok, err := s.DeleteByID("shared")
	require.NoError(t, err)
	assert.True(t, ok)

	doses, err := s.LoadDoses()
	require.NoError(t, err)
	assert.Equal(t, []string{"d2"}, idsOf(doses))

	symptoms, err := s.LoadSymptoms()
	require.NoError(t, err)
	assert.Equal(t, []string{"shared", "s2"}, idsOf(symptoms), "only the first collection is touched")

	ok, err = s.DeleteByID("s2")
	require.NoError(t, err)
	assert.True(t, ok)

	timeline, err := s.Timeline()
	require.NoError(t, err)
	assert.NotContains(t, idsOf(timeline), "s2")
}

func TestDeleteByIDNotFound(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, DosesFile, `{"entries": [{"id": "d1"}]}`)

	for _, id := range []string{"", "missing", "missing"} {
		ok, err := s.DeleteByID(id)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	doses, err := s.LoadDoses()
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, idsOf(doses))
}

func TestDuplicateByID(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, DosesFile, `{"entries": [
		{"id": "d1", "date": "2024-01-01", "timestamp": "2024-01-01T08:00:00", "medications": [{"name": "Estradiol", "dose": "2", "unit": "mg"}], "sleep": "ok"},
		{"id": "d2"}
	]}`)

	before, err := s.LoadDoses()
	require.NoError(t, err)

	created, ok, err := s.DuplicateByID("d1")
	require.NoError(t, err)
	require.True(t, ok)

	after, err := s.LoadDoses()
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)
	assert.Equal(t, before, after[:len(before)], "existing records must be unchanged")

	dup := after[len(after)-1]
	assert.Equal(t, "dose-20240501093000-2", dup.ID)
	assert.Equal(t, dup, created, "the returned record is the persisted copy")
	assert.Equal(t, "2024-05-01T09:30:00", dup.Timestamp)

	dup.ID, dup.Timestamp = before[0].ID, before[0].Timestamp
	assert.Equal(t, before[0], dup)

	second, ok, err := s.DuplicateByID("d1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dose-20240501093000-3", second.ID)
	again, err := s.LoadDoses()
	require.NoError(t, err)
	assert.Len(t, again, len(before)+2)
	assert.Equal(t, "dose-20240501093000-3", again[len(again)-1].ID)
}

func TestDuplicateByIDAvoidsTakenID(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, SymptomsFile, `{"entries": [{"id": "sym-20240501093000-1"}]}`)

	created, ok, err := s.DuplicateByID("sym-20240501093000-1")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.LoadSymptoms()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "sym-20240501093000-1", got[0].ID)
	assert.True(t, strings.HasPrefix(got[1].ID, "sym-20240501093000-1-"), "got %s", got[1].ID)
	assert.Equal(t, got[1].ID, created.ID)
}

func TestDuplicateByIDNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	created, ok, err := s.DuplicateByID("nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, created.ID)
}

func TestGetTimeline(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, DosesFile, `{"entries": [
		{"id": "a", "date": "2024-01-01", "time": "08:00", "medications": [{"name": "Estradiol (oral)"}]},
		{"id": "b", "date": "2024-01-05"}
	]}`)
	writeFile(t, dir, SymptomsFile, `{"entries": [{"id": "s", "symptoms": "headache"}]}`)

	all, err := s.GetTimeline(domain.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "s"}, idsOf(all))
	assert.Equal(t, domain.KindSymptom, all[2].Kind)

	window, err := s.GetTimeline(domain.Filter{Start: "2024-01-02", End: "2024-01-31"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, idsOf(window))

	search, err := s.GetTimeline(domain.Filter{Search: "estradiol"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, idsOf(search))

	_, err = s.GetTimeline(domain.Filter{End: "31/01/2024"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "end", verr.Field)
}

func TestExportToCsvRows(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, DosesFile, `{"entries": [{"id": "a", "date": "2024-01-01", "medications": [{"name": "E", "dose": "2", "unit": "mg"}, {}]}, "stray"]}`)

	rows, err := s.ExportToCsvRows(domain.Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "E 2 mg | (blank)", rows[0].Medications)
	assert.Equal(t, domain.Row{Notes: "stray"}, rows[1])
}

func TestGet(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, SymptomsFile, `{"entries": [{"id": "s1", "mood": "ok"}]}`)

	r, ok, err := s.Get("s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.KindSymptom, r.Kind)

	_, ok, err = s.Get("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddDose(t *testing.T) {
	obs := &recordingObserver{}
	s, _ := newTestStore(t, WithObserver(obs))

	r, err := s.AddDose(domain.DoseInput{
		Date:        "2024-05-01",
		Time:        "09:00",
		Medications: []domain.Medication{{Name: "Estradiol", Dose: "2", Unit: "mg"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "dose-20240501093000-0", r.ID)
	assert.Equal(t, domain.KindDose, r.Kind)

	doses, err := s.LoadDoses()
	require.NoError(t, err)
	require.Len(t, doses, 1)
	assert.Equal(t, domain.Kind(""), doses[0].Kind, "kind is assigned at merge time")

	_, err = s.AddDose(domain.DoseInput{Date: "bad", Medications: []domain.Medication{{Name: "E"}}})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, 1, obs.mutations[OpAddDose])
}

func TestAddSymptomEntry(t *testing.T) {
	s, _ := newTestStore(t)

	r, err := s.AddSymptomEntry(domain.SymptomInput{Mood: "tired", Symptoms: []string{"headache"}})
	require.NoError(t, err)
	assert.Equal(t, "sym-20240501093000-0", r.ID)

	got, err := s.GetTimeline(domain.Filter{Search: "headache"})
	require.NoError(t, err)
	assert.Equal(t, []string{r.ID}, idsOf(got))
}

func TestSymptomLog(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.LogSymptom("   ")
	assert.Error(t, err)

	e, err := s.LogSymptom(" hot flash ")
	require.NoError(t, err)
	assert.Equal(t, domain.SymptomLogEntry{Symptom: "hot flash", Timestamp: "2024-05-01T09:30:00"}, e)

	assert.Equal(t, []domain.SymptomLogEntry{e}, s.LoadSymptomLog())
}

func TestWriteFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o644))

	s := New(blocker, logger.Nop(), WithClock(func() time.Time { return fixedNow }))

	_, err := s.AddDose(domain.DoseInput{Medications: []domain.Medication{{Name: "E"}}})
	assert.Error(t, err)
	assert.Error(t, s.SaveSymptoms(nil))
}

func TestConcurrentAddsAreSerialized(t *testing.T) {
	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.LogSymptom("tired")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, s.LoadSymptomLog(), 10)
}
