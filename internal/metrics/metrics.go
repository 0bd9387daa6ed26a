package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hrtlog"

// Metrics collects store, reload and HTTP activity on its own registry.
// It satisfies store.Observer and scheduler.ReloadRecorder.
type Metrics struct {
	registry *prometheus.Registry

	collectionSize  *prometheus.GaugeVec
	collectionSaves *prometheus.CounterVec
	malformedReads  *prometheus.CounterVec
	idBackfills     *prometheus.CounterVec
	mutations       *prometheus.CounterVec

	timelineEntries prometheus.Gauge
	reloads         *prometheus.CounterVec
	reloadDuration  prometheus.Histogram

	cacheLookups *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
}

// New registers every metric plus the Go and process collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		collectionSize: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "collection_records",
			Help:      "Records in a collection at its last load or save.",
		}, []string{"collection"}),
		collectionSaves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "saves_total",
			Help:      "Collection files written.",
		}, []string{"collection"}),
		malformedReads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "malformed_reads_total",
			Help:      "Reads that found an unparseable file and fell back to an empty collection.",
		}, []string{"collection"}),
		idBackfills: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "id_backfills_total",
			Help:      "Loads that assigned missing ids and persisted them.",
		}, []string{"collection"}),
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Mutating operations by outcome.",
		}, []string{"op", "result"}),
		timelineEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "timeline",
			Name:      "entries",
			Help:      "Entries in the merged timeline at the last reload.",
		}),
		reloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "timeline",
			Name:      "reloads_total",
			Help:      "Timeline reloads by outcome.",
		}, []string{"result"}),
		reloadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "timeline",
			Name:      "reload_duration_seconds",
			Help:      "Time spent merging and indexing the timeline.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Query cache lookups by outcome (hit, miss, error).",
		}, []string{"scope", "result"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"method", "route", "code"}),
	}
}

// Registry exposes the underlying registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) CollectionLoaded(collection string, size int) {
	m.collectionSize.WithLabelValues(collection).Set(float64(size))
}

func (m *Metrics) CollectionSaved(collection string, size int) {
	m.collectionSize.WithLabelValues(collection).Set(float64(size))
	m.collectionSaves.WithLabelValues(collection).Inc()
}

func (m *Metrics) MalformedRead(collection string) {
	m.malformedReads.WithLabelValues(collection).Inc()
}

func (m *Metrics) IDsBackfilled(collection string) {
	m.idBackfills.WithLabelValues(collection).Inc()
}

func (m *Metrics) Mutation(op string, ok bool) {
	m.mutations.WithLabelValues(op, result(ok)).Inc()
}

// TimelineReloaded records one reload
func (m *Metrics) TimelineReloaded(size int, took time.Duration, err error) {
	m.reloads.WithLabelValues(result(err == nil)).Inc()
	if err != nil {
		return
	}
	m.timelineEntries.Set(float64(size))
	m.reloadDuration.Observe(took.Seconds())
}

// CacheLookup records a query cache lookup. A nil err with hit=false is a miss.
func (m *Metrics) CacheLookup(scope string, hit bool, err error) {
	switch {
	case err != nil:
		m.cacheLookups.WithLabelValues(scope, "error").Inc()
	case hit:
		m.cacheLookups.WithLabelValues(scope, "hit").Inc()
	default:
		m.cacheLookups.WithLabelValues(scope, "miss").Inc()
	}
}

// HTTPRequest records one served request. route is the router pattern, not the raw path.
func (m *Metrics) HTTPRequest(method, route string, status int) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
