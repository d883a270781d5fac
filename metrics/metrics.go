// Package metrics exposes Prometheus metrics for HTTP traffic and uploads on
// a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ripta/updir/upload"
)

const namespace = "updir"

// Metrics implements upload.Observer.
type Metrics struct {
	reg *prometheus.Registry

	inflight prometheus.Gauge
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec

	batches      *prometheus.CounterVec
	files        *prometheus.CounterVec
	bytes        *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec
}

var _ upload.Observer = (*Metrics)(nil)

// New creates a Metrics instance with a fresh registry and registers its collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of inflight HTTP requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests processed, partitioned by status code and method.",
		}, []string{"code", "method"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of latencies for HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "batches_total",
			Help:      "Upload batches, partitioned by sink and result.",
		}, []string{"sink", "result"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "files_total",
			Help:      "Uploaded files, partitioned by sink and outcome.",
		}, []string{"sink", "outcome"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "stored_bytes_total",
			Help:      "Bytes written to the sink.",
		}, []string{"sink"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "store_duration_seconds",
			Help:      "Time spent storing a single file.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sink"}),
	}

	m.reg.MustRegister(
		m.inflight, m.requests, m.latency,
		m.batches, m.files, m.bytes, m.storeLatency,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry, e.g. to register process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records inflight requests, request counts and latency.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inflight.Inc()
		defer m.inflight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		code := strconv.Itoa(rec.status)
		m.requests.WithLabelValues(code, r.Method).Inc()
		m.latency.WithLabelValues(code, r.Method).Observe(time.Since(start).Seconds())
	})
}

// ObserveBatch counts one finished batch as ok or error.
func (m *Metrics) ObserveBatch(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.batches.WithLabelValues(sink, result).Inc()
}

// ObserveFile counts one file by outcome. Bytes and latency are only
// recorded for stored files.
func (m *Metrics) ObserveFile(sink, outcome string, bytes int, dur time.Duration) {
	m.files.WithLabelValues(sink, outcome).Inc()
	if outcome != upload.OutcomeStored {
		return
	}
	m.bytes.WithLabelValues(sink).Add(float64(bytes))
	m.storeLatency.WithLabelValues(sink).Observe(dur.Seconds())
}
