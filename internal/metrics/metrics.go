// v1
// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus instruments for the attendance service.
// Each instance carries its own registry so parallel test servers never
// collide on registration.
type Metrics struct {
	reg               *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	marksConsumed     prometheus.Counter
	markDrops         *prometheus.CounterVec
	storePersons      prometheus.Gauge
	storeDays         prometheus.Gauge
	seedDuration      prometheus.Histogram
	seedErrors        prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits observed.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses observed.",
		}),
		marksConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_marks_consumed_total",
			Help: "Total mark messages fetched from the stream.",
		}),
		markDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_mark_drops_total",
			Help: "Total mark messages dropped during decode by reason.",
		}, []string{"reason"}),
		storePersons: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "attendance_store_persons",
			Help: "Persons currently tracked by the in-memory store.",
		}),
		storeDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "attendance_store_event_days",
			Help: "Event days currently tracked by the in-memory store.",
		}),
		seedDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "seed_http_duration_seconds",
			Help:    "Histogram of seed snapshot HTTP request durations.",
			Buckets: prometheus.DefBuckets,
		}),
		seedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seed_http_errors_total",
			Help: "Total seed snapshot HTTP errors encountered.",
		}),
	}

	m.reg.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.cacheHits,
		m.cacheMisses,
		m.marksConsumed,
		m.markDrops,
		m.storePersons,
		m.storeDays,
		m.seedDuration,
		m.seedErrors,
	)

	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Seconds()
		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(duration)
		}
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) MarkConsumed() {
	if m == nil {
		return
	}
	m.marksConsumed.Inc()
}

func (m *Metrics) MarkDropped(reason string) {
	if m == nil {
		return
	}
	m.markDrops.WithLabelValues(reason).Inc()
}

func (m *Metrics) StoreDepth(persons, days int) {
	if m == nil {
		return
	}
	m.storePersons.Set(float64(persons))
	m.storeDays.Set(float64(days))
}

func (m *Metrics) SeedRequest(duration time.Duration, success bool) {
	if m == nil {
		return
	}
	m.seedDuration.Observe(duration.Seconds())
	if !success {
		m.seedErrors.Inc()
	}
}
