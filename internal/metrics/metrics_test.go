package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreEvents(t *testing.T) {
	m := New()

	m.CollectionLoaded("doses", 3)
	m.CollectionSaved("doses", 4)
	m.MalformedRead("symptoms")
	m.IDsBackfilled("doses")
	m.Mutation("delete", true)
	m.Mutation("delete", false)
	m.Mutation("delete", false)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.collectionSize.WithLabelValues("doses")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.collectionSaves.WithLabelValues("doses")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.malformedReads.WithLabelValues("symptoms")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.idBackfills.WithLabelValues("doses")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("delete", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues("delete", "error")))
}

func TestTimelineReloaded(t *testing.T) {
	m := New()

	m.TimelineReloaded(12, 5*time.Millisecond, nil)
	m.TimelineReloaded(0, time.Millisecond, errors.New("disk"))

	assert.Equal(t, 12.0, testutil.ToFloat64(m.timelineEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloads.WithLabelValues("error")))
}

func TestCacheLookup(t *testing.T) {
	m := New()

	m.CacheLookup("timeline", true, nil)
	m.CacheLookup("timeline", false, nil)
	m.CacheLookup("timeline", false, errors.New("down"))

	for _, res := range []string{"hit", "miss", "error"} {
		assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("timeline", res)), res)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.HTTPRequest(http.MethodGet, "/api/timeline", http.StatusOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `hrtlog_http_requests_total{code="200",method="GET",route="/api/timeline"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
