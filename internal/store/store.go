package store

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
	"github.com/MrSnakeDoc/hrtlog/internal/logger"
	"github.com/MrSnakeDoc/hrtlog/internal/storage/jsonfile"
)

// File names inside the data directory.
const (
	DosesFile      = "hrt_entries.json"
	SymptomsFile   = "symptom_entries.json"
	SymptomLogFile = "symptoms.json"
	ResourcesFile  = "hrt_resources.json"
	SettingsFile   = "app_settings.json"
)

// Collection names, as reported to the observer and in logs.
const (
	CollectionDoses      = "doses"
	CollectionSymptoms   = "symptoms"
	CollectionSymptomLog = "symptom_log"
	CollectionResources  = "resources"
)

type entryCollection struct {
	name   string
	kind   domain.Kind
	prefix string
	file   *jsonfile.Collection[domain.Record]
}

// Store owns every collection of the data directory and serializes access to
// them. Identity-addressed operations scan the entry collections in priority
// order: doses, then symptoms.
type Store struct {
	mu sync.Mutex

	dataDir  string
	log      logger.Logger
	now      func() time.Time
	seed     *int64
	observer Observer

	doses    *entryCollection
	symptoms *entryCollection
	entries  []*entryCollection // scan order

	resources  *jsonfile.Collection[domain.Resource]
	symptomLog *jsonfile.Collection[domain.SymptomLogEntry]
}

type Option func(*Store)

// WithClock replaces the wall clock used for timestamps and new ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSeed fixes the id backfill seed instead of reading file modification times.
func WithSeed(seed int64) Option {
	return func(s *Store) { s.seed = &seed }
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// New creates a store over the collections in dataDir. Nothing is read until
// the first operation.
func New(dataDir string, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		dataDir:  dataDir,
		log:      log,
		now:      time.Now,
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.doses = s.newEntryCollection(CollectionDoses, domain.KindDose, domain.PrefixDose, DosesFile)
	s.symptoms = s.newEntryCollection(CollectionSymptoms, domain.KindSymptom, domain.PrefixSymptom, SymptomsFile)
	s.entries = []*entryCollection{s.doses, s.symptoms}

	s.resources = jsonfile.New[domain.Resource](filepath.Join(dataDir, ResourcesFile), "resources", log).
		OnMalformed(s.malformedHook(CollectionResources))
	s.symptomLog = jsonfile.New[domain.SymptomLogEntry](filepath.Join(dataDir, SymptomLogFile), "symptoms", log).
		OnMalformed(s.malformedHook(CollectionSymptomLog))

	return s
}

func (s *Store) newEntryCollection(name string, kind domain.Kind, prefix, file string) *entryCollection {
	return &entryCollection{
		name:   name,
		kind:   kind,
		prefix: prefix,
		file: jsonfile.New[domain.Record](filepath.Join(s.dataDir, file), "entries", s.log).
			OnMalformed(s.malformedHook(name)),
	}
}

func (s *Store) malformedHook(name string) func(string, error) {
	return func(string, error) { s.observer.MalformedRead(name) }
}

// DataDir returns the directory holding every collection file.
func (s *Store) DataDir() string { return s.dataDir }

// ─────────────────────────────
// Entry collections
// ─────────────────────────────

func (s *Store) LoadDoses() ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(s.doses)
}

func (s *Store) LoadSymptoms() ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(s.symptoms)
}

func (s *Store) SaveDoses(records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(s.doses, records)
}

func (s *Store) SaveSymptoms(records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(s.symptoms, records)
}

// load reads a collection and backfills missing ids. When ids were assigned
// the collection is written back before returning, so the next load sees the
// same ids; a failure of that write is the only error.
func (s *Store) load(c *entryCollection) ([]domain.Record, error) {
	records := c.file.LoadRaw()

	records, changed := domain.EnsureIDs(records, c.prefix, s.seedFor(c))
	if changed {
		s.log.Info("Backfilled missing entry ids",
			logger.String("collection", c.name),
			logger.Int("entries", len(records)),
		)
		s.observer.IDsBackfilled(c.name)
		if err := s.save(c, records); err != nil {
			return nil, err
		}
	}

	s.observer.CollectionLoaded(c.name, len(records))
	return records, nil
}

func (s *Store) save(c *entryCollection, records []domain.Record) error {
	if err := c.file.Save(records); err != nil {
		s.log.Error("Failed to save collection",
			logger.String("collection", c.name),
			logger.Error(err),
		)
		return fmt.Errorf("failed to save %s: %w", c.name, err)
	}
	s.observer.CollectionSaved(c.name, len(records))
	return nil
}

func (s *Store) seedFor(c *entryCollection) int64 {
	if s.seed != nil {
		return *s.seed
	}
	return c.file.Seed()
}

// locate scans the entry collections in priority order and returns the first
// one holding id, its records and the match position.
func (s *Store) locate(id string) (*entryCollection, []domain.Record, int, error) {
	for _, c := range s.entries {
		records, err := s.load(c)
		if err != nil {
			return nil, nil, -1, err
		}
		for i, r := range records {
			if r.ID == id {
				return c, records, i, nil
			}
		}
	}
	return nil, nil, -1, nil
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (domain.Record, bool, error) {
	if id == "" {
		return domain.Record{}, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, records, i, err := s.locate(id)
	if err != nil || c == nil {
		return domain.Record{}, false, err
	}
	r := records[i]
	if r.Kind == "" {
		r.Kind = c.kind
	}
	return r, true, nil
}

// DeleteByID removes the first entry with the given id and persists its
// collection. Only one collection is ever changed.
func (s *Store) DeleteByID(id string) (bool, error) {
	if id == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, records, i, err := s.locate(id)
	if err != nil {
		return false, err
	}
	if c == nil {
		s.observer.Mutation(OpDelete, false)
		return false, nil
	}

	kept := make([]domain.Record, 0, len(records)-1)
	kept = append(kept, records[:i]...)
	kept = append(kept, records[i+1:]...)
	if err := s.save(c, kept); err != nil {
		return false, err
	}

	s.log.Info("Entry deleted",
		logger.String("collection", c.name),
		logger.String("id", id),
	)
	s.observer.Mutation(OpDelete, true)
	return true, nil
}

// DuplicateByID appends a deep copy of the entry with the given id to its
// collection, with a fresh id and timestamp, and returns the copy. Calling it
// twice creates two copies.
func (s *Store) DuplicateByID(id string) (domain.Record, bool, error) {
	if id == "" {
		return domain.Record{}, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, records, i, err := s.locate(id)
	if err != nil {
		return domain.Record{}, false, err
	}
	if c == nil {
		s.observer.Mutation(OpDuplicate, false)
		return domain.Record{}, false, nil
	}

	now := s.now()
	cp := records[i].Clone()
	cp.Timestamp = domain.FormatTimestamp(now)
	cp.ID = newID(c.prefix, now, records)

	if err := s.save(c, append(records, cp)); err != nil {
		return domain.Record{}, false, err
	}

	s.log.Info("Entry duplicated",
		logger.String("collection", c.name),
		logger.String("id", id),
		logger.String("new_id", cp.ID),
	)
	s.observer.Mutation(OpDuplicate, true)
	return cp, true, nil
}

// newID builds the id of a record appended to records at now. A short random
// suffix is added when the formatted id is already taken.
func newID(prefix string, now time.Time, records []domain.Record) string {
	id := domain.NewID(prefix, now, len(records))
	for taken(records, id) {
		id = domain.NewID(prefix, now, len(records)) + "-" + uuid.NewString()[:8]
	}
	return id
}

func taken(records []domain.Record, id string) bool {
	for _, r := range records {
		if r.ID == id {
			return true
		}
	}
	return false
}

// AddDose validates in and appends it to the dose collection.
func (s *Store) AddDose(in domain.DoseInput) (domain.Record, error) {
	return s.add(s.doses, OpAddDose, func(id string, now time.Time) (domain.Record, error) {
		return domain.BuildDose(in, id, now)
	})
}

// AddSymptomEntry validates in and appends it to the symptom collection.
func (s *Store) AddSymptomEntry(in domain.SymptomInput) (domain.Record, error) {
	return s.add(s.symptoms, OpAddSymptom, func(id string, now time.Time) (domain.Record, error) {
		return domain.BuildSymptom(in, id, now)
	})
}

func (s *Store) add(c *entryCollection, op string, build func(string, time.Time) (domain.Record, error)) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(c)
	if err != nil {
		return domain.Record{}, err
	}

	now := s.now()
	r, err := build(newID(c.prefix, now, records), now)
	if err != nil {
		s.observer.Mutation(op, false)
		return domain.Record{}, err
	}

	if err := s.save(c, append(records, r)); err != nil {
		return domain.Record{}, err
	}
	s.observer.Mutation(op, true)

	if r.Kind == "" {
		r.Kind = c.kind
	}
	return r, nil
}

// ─────────────────────────────
// Timeline
// ─────────────────────────────

// Timeline loads both entry collections and merges them, unfiltered and unsorted.
func (s *Store) Timeline() ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline()
}

func (s *Store) timeline() ([]domain.Record, error) {
	sources := make([]domain.Source, 0, len(s.entries))
	for _, c := range s.entries {
		records, err := s.load(c)
		if err != nil {
			return nil, err
		}
		sources = append(sources, domain.Source{Kind: c.kind, Records: records})
	}
	return domain.MergeSources(sources...), nil
}

// GetTimeline returns the merged timeline narrowed and ordered by f.
// Malformed date bounds are reported as *domain.ValidationError.
func (s *Store) GetTimeline(f domain.Filter) ([]domain.Record, error) {
	q, err := domain.ParseFilter(f)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	timeline, err := s.timeline()
	if err != nil {
		return nil, err
	}
	return domain.Apply(timeline, q), nil
}

// ExportToCsvRows flattens the filtered timeline into export rows.
func (s *Store) ExportToCsvRows(f domain.Filter) ([]domain.Row, error) {
	records, err := s.GetTimeline(f)
	if err != nil {
		return nil, err
	}
	return domain.ToFlatRows(records), nil
}

// ─────────────────────────────
// Flat symptom log
// ─────────────────────────────

// LogSymptom appends a line to the flat symptom log.
func (s *Store) LogSymptom(text string) (domain.SymptomLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := domain.NewSymptomLogEntry(text, s.now())
	if err != nil {
		s.observer.Mutation(OpLogSymptom, false)
		return domain.SymptomLogEntry{}, err
	}

	entries := append(s.symptomLog.LoadRaw(), e)
	if err := s.symptomLog.Save(entries); err != nil {
		return domain.SymptomLogEntry{}, fmt.Errorf("failed to save %s: %w", CollectionSymptomLog, err)
	}
	s.observer.CollectionSaved(CollectionSymptomLog, len(entries))
	s.observer.Mutation(OpLogSymptom, true)
	return e, nil
}

func (s *Store) LoadSymptomLog() []domain.SymptomLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.symptomLog.LoadRaw()
	s.observer.CollectionLoaded(CollectionSymptomLog, len(entries))
	return entries
}
