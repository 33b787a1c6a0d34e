// Package metrics records fintrack operations in Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fintrack/internal/core"
)

// Recorder owns its registry so several recorders can coexist in tests.
type Recorder struct {
	registry        *prometheus.Registry
	analysisLatency prometheus.Histogram
	forecasts       *prometheus.CounterVec
	recommendations *prometheus.CounterVec
	importedRows    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	digests         *prometheus.CounterVec
}

// New creates a recorder with Go runtime and process collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		analysisLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fintrack",
			Subsystem: "analytics",
			Name:      "duration_seconds",
			Help:      "Duration of a full analysis run",
			Buckets:   prometheus.DefBuckets,
		}),
		forecasts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Subsystem: "analytics",
			Name:      "forecasts_total",
			Help:      "Forecasts produced by method",
		}, []string{"method"}),
		recommendations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Subsystem: "analytics",
			Name:      "recommendations_total",
			Help:      "Recommendations produced by topic and severity",
		}, []string{"topic", "severity"}),
		importedRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Imported CSV rows by outcome",
		}, []string{"outcome"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "status"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fintrack",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		digests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Subsystem: "worker",
			Name:      "digests_total",
			Help:      "Analytics digests by outcome",
		}, []string{"outcome"}),
	}
}

// RecordAnalysis records one Analyze call and what it produced.
func (r *Recorder) RecordAnalysis(res core.AnalyticsResult, took time.Duration) {
	r.analysisLatency.Observe(took.Seconds())
	r.forecasts.WithLabelValues(string(res.Forecast.Method)).Inc()
	for _, rec := range res.Recommendations {
		r.recommendations.WithLabelValues(rec.Topic, string(rec.Severity)).Inc()
	}
}

// RecordImport records the rows of one import.
func (r *Recorder) RecordImport(imported, skipped int) {
	r.importedRows.WithLabelValues("imported").Add(float64(imported))
	r.importedRows.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordHTTP records one served request. route is the chi route pattern.
func (r *Recorder) RecordHTTP(route string, status int, took time.Duration) {
	r.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	r.httpLatency.WithLabelValues(route).Observe(took.Seconds())
}

// RecordDigest records a digest publication attempt.
func (r *Recorder) RecordDigest(err error) {
	outcome := "published"
	if err != nil {
		outcome = "failed"
	}
	r.digests.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
