// Package metrics exposes Prometheus collectors for download jobs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "imagegrab"

// Job outcomes.
const (
	JobOK        = "ok"
	JobFailed    = "failed"
	JobCancelled = "cancelled"
)

// Page outcomes.
const (
	PageOK       = "ok"
	PageError    = "error"
	PageNoImages = "no_images"
)

// Image outcomes.
const (
	ImageArchived     = "archived"
	ImageFetchError   = "fetch_error"
	ImageProcessError = "process_error"
)

// Metrics groups the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	jobs        *prometheus.CounterVec
	pages       *prometheus.CounterVec
	images      *prometheus.CounterVec
	activeJobs  prometheus.Gauge
	jobDuration prometheus.Histogram
	whiteBg     prometheus.Counter
}

// New registers the collectors on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Download jobs by outcome.",
		}, []string{"status"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Product pages processed by outcome.",
		}, []string{"result"}),
		images: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_total",
			Help:      "Images handled by outcome.",
		}, []string{"result"}),
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_jobs",
			Help:      "Download jobs currently streaming.",
		}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of download jobs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		whiteBg: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "white_bg_images_total",
			Help:      "Images converted by the white background tool.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.jobs, m.pages, m.images, m.activeJobs, m.jobDuration, m.whiteBg,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// JobStarted increments the active gauge and returns a func recording the
// outcome and duration.
func (m *Metrics) JobStarted() func(status string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.activeJobs.Inc()
	return func(status string) {
		m.activeJobs.Dec()
		m.jobs.WithLabelValues(status).Inc()
		m.jobDuration.Observe(time.Since(start).Seconds())
	}
}

// Page records one page outcome.
func (m *Metrics) Page(result string) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(result).Inc()
}

// Image records one image outcome.
func (m *Metrics) Image(result string) {
	if m == nil {
		return
	}
	m.images.WithLabelValues(result).Inc()
}

// WhiteBackground counts converted images.
func (m *Metrics) WhiteBackground(n int) {
	if m == nil {
		return
	}
	m.whiteBg.Add(float64(n))
}
