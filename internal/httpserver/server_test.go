package httpserver

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hrtlog/internal/index"
	"github.com/MrSnakeDoc/hrtlog/internal/logger"
	"github.com/MrSnakeDoc/hrtlog/internal/metrics"
	"github.com/MrSnakeDoc/hrtlog/internal/scheduler"
	"github.com/MrSnakeDoc/hrtlog/internal/settings"
	"github.com/MrSnakeDoc/hrtlog/internal/store"
	redisstore "github.com/MrSnakeDoc/hrtlog/internal/store/redis"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

type testServer struct {
	handler http.Handler
	dir     string
	deps    deps.Deps
}

func newTestServer(t *testing.T, files map[string]string) *testServer {
	t.Helper()
	return newCachedTestServer(t, files, nil)
}

func newCachedTestServer(t *testing.T, files map[string]string, cache *redisstore.Store) *testServer {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	log := logger.Nop()
	m := metrics.New()
	st := store.New(dir, log,
		store.WithClock(func() time.Time { return fixedNow }),
		store.WithSeed(1),
		store.WithObserver(m),
	)
	idx := index.NewTimelineIndex()
	trigger := make(chan struct{}, 1)
	reloader := scheduler.NewTimelineReloader(st, cache, idx, m, log, time.Hour, trigger)
	require.NoError(t, reloader.Reload(t.Context()))

	d := deps.Deps{
		Logger:           log,
		StartTime:        fixedNow,
		Version:          "test",
		TimeNow:          func() time.Time { return fixedNow },
		RateBurst:        100,
		RateRefillPerMin: 100,
		Store:            st,
		Settings:         settings.Open(filepath.Join(dir, store.SettingsFile), log),
		Index:            idx,
		Reloader:         reloader,
		ReloadTrigger:    trigger,
		Metrics:          m,
		Cache:            cache,
	}
	return &testServer{handler: NewRouter(d), dir: dir, deps: d}
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

type timelineBody struct {
	Count   int             `json:"count"`
	Entries []domain.Record `json:"entries"`
	Cached  bool            `json:"cached"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func entryIDs(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

var sampleFiles = map[string]string{
	store.DosesFile: `{"entries": [
		{"id": "d1", "date": "2024-03-01", "time": "08:00", "medications": [{"name": "Estradiol", "dose": "2", "unit": "mg"}]},
		{"id": "d2", "date": "2024-03-03", "medications": [{"name": "Spironolactone"}]}
	]}`,
	store.SymptomsFile: `{"entries": [
		{"id": "s1", "date": "2024-03-02", "symptoms": "headache"}
	]}`,
}

func TestTimelineEndpoint(t *testing.T) {
	ts := newTestServer(t, sampleFiles)

	rec := ts.do(t, http.MethodGet, "/api/timeline", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[timelineBody](t, rec)
	assert.Equal(t, 3, body.Count)
	assert.Equal(t, []string{"d2", "s1", "d1"}, entryIDs(body.Entries))
	assert.Equal(t, domain.KindSymptom, body.Entries[1].Kind)

	rec = ts.do(t, http.MethodGet, "/api/timeline?q=ESTRADIOL", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"d1"}, entryIDs(decode[timelineBody](t, rec).Entries))

	rec = ts.do(t, http.MethodGet, "/api/timeline?start=2024-03-02&end=2024-03-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"s1"}, entryIDs(decode[timelineBody](t, rec).Entries))
}

func TestTimelineRejectsMalformedBounds(t *testing.T) {
	ts := newTestServer(t, sampleFiles)

	rec := ts.do(t, http.MethodGet, "/api/timeline?start=03/01/2024", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"start"`)
}

func TestExportEndpoint(t *testing.T) {
	ts := newTestServer(t, sampleFiles)

	rec := ts.do(t, http.MethodGet, "/api/timeline/export?q=estradiol", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "hrt_history_2024-05-01.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(domain.Columns, ","), lines[0])
	assert.Contains(t, lines[1], "Estradiol")
}

func TestEntryLifecycle(t *testing.T) {
	ts := newTestServer(t, sampleFiles)

	rec := ts.do(t, http.MethodGet, "/api/entries/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Symptom entry #1")

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/entries/nope", "").Code)

	rec = ts.do(t, http.MethodPost, "/api/entries/d1/duplicate", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 4, ts.deps.Index.Count(), "duplicate is visible without a manual reload")
	created := decode[struct {
		OK bool   `json:"ok"`
		ID string `json:"id"`
	}](t, rec)
	assert.True(t, created.OK)
	assert.NotEqual(t, "d1", created.ID)
	copied, ok := ts.deps.Index.Get(created.ID)
	require.True(t, ok, "response names the new entry")
	assert.Equal(t, "Estradiol", copied.Medications[0].Name)

	rec = ts.do(t, http.MethodDelete, "/api/entries/d1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, ok = ts.deps.Index.Get("d1")
	assert.False(t, ok)
	assert.Equal(t, 3, ts.deps.Index.Count())

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, "/api/entries/d1", "").Code)
}

func TestCachedTimelineDropsDeletedEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := redisstore.NewStore(client, time.Minute)
	t.Cleanup(func() { _ = cache.Close() })
	ts := newCachedTestServer(t, sampleFiles, cache)

	first := decode[timelineBody](t, ts.do(t, http.MethodGet, "/api/timeline", ""))
	assert.False(t, first.Cached)
	assert.Contains(t, entryIDs(first.Entries), "d1")

	second := decode[timelineBody](t, ts.do(t, http.MethodGet, "/api/timeline", ""))
	assert.True(t, second.Cached)
	assert.Equal(t, entryIDs(first.Entries), entryIDs(second.Entries))

	staleGen := ts.deps.Index.Generation()
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/api/entries/d1", "").Code)

	// A reader that searched before the delete finishes its cache write late
	require.NoError(t, cache.CacheTimeline(t.Context(), staleGen, domain.Filter{}, first.Entries))

	after := decode[timelineBody](t, ts.do(t, http.MethodGet, "/api/timeline", ""))
	assert.NotContains(t, entryIDs(after.Entries), "d1")
	assert.Equal(t, 2, after.Count)

	again := decode[timelineBody](t, ts.do(t, http.MethodGet, "/api/timeline", ""))
	assert.True(t, again.Cached)
	assert.NotContains(t, entryIDs(again.Entries), "d1")
}

func TestAddDoseAndSymptom(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/doses", `{"date": "2024-05-01", "medications": [{"name": ""}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "medications")

	rec = ts.do(t, http.MethodPost, "/api/doses", `{"date": "2024-05-01", "time": "08:00", "medications": [{"name": "Estradiol", "dose": "4", "unit": "mg"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	dose := decode[domain.Record](t, rec)
	assert.Equal(t, "dose-20240501093000-0", dose.ID)

	rec = ts.do(t, http.MethodPost, "/api/symptoms", `{"mood": "calm", "symptoms": ["fatigue"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/symptoms", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/symptoms", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 2, ts.deps.Index.Count())
}

func TestSymptomLogEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/symptom-log", `{"symptom": "  "}`).Code)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/symptom-log", `{"symptom": "cramps"}`).Code)

	rec := ts.do(t, http.MethodGet, "/api/symptom-log", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.Contains(t, rec.Body.String(), "cramps")
}

func TestResourceEndpoints(t *testing.T) {
	ts := newTestServer(t, map[string]string{store.ResourcesFile: `["Trans Lifeline"]`})

	rec := ts.do(t, http.MethodGet, "/api/resources", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Trans Lifeline"`)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/resources", `{"name": ""}`).Code)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/resources", `{"name": "Clinic", "tags": "local, hrt"}`).Code)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodDelete, "/api/resources/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, "/api/resources/9", "").Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/api/resources/0", "").Code)

	items, err := ts.deps.Store.LoadResources()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"local", "hrt"}, items[0].Tags)
}

func TestSettingsEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, "/api/settings", `{"theme": "dark", "reminders": true}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, "/api/settings", `{}`).Code)

	rec := ts.do(t, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"theme": "dark", "reminders": true}`, rec.Body.String())

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/api/settings", "").Code)
	assert.JSONEq(t, `{}`, ts.do(t, http.MethodGet, "/api/settings", "").Body.String())
}

func TestOpsEndpoints(t *testing.T) {
	ts := newTestServer(t, sampleFiles)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/readyz", "").Code)

	rec := ts.do(t, http.MethodGet, "/infra", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mode":"optimal"`)
	assert.Contains(t, rec.Body.String(), `"doses":2`)

	assert.Equal(t, http.StatusAccepted, ts.do(t, http.MethodPost, "/reload", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.do(t, http.MethodPost, "/reload", "").Code)

	rec = ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hrtlog_timeline_entries 3")
	assert.Contains(t, rec.Body.String(), `route="/infra"`)
}

func TestReadyzBeforeFirstReload(t *testing.T) {
	d := deps.Deps{Logger: logger.Nop(), Index: index.NewTimelineIndex()}
	rec := httptest.NewRecorder()
	NewRouter(d).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
