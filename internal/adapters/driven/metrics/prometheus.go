// Package metrics provides a Prometheus implementation of driven.MetricsRecorder.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
)

const namespace = "cvescope"

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

// Recorder collects registry, generation and report metrics in its own
// registry so several instances can coexist (tests, embedded servers).
type Recorder struct {
	registry *prometheus.Registry

	registryRequests *prometheus.CounterVec
	registryDuration *prometheus.HistogramVec
	generations      *prometheus.CounterVec
	generationTime   *prometheus.HistogramVec
	reportsSaved     prometheus.Counter
}

// NewRecorder creates a recorder with Go runtime and process collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.registryRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_requests_total",
			Help:      "Total number of vulnerability registry attempts by outcome",
		},
		[]string{"outcome"},
	)

	r.registryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registry_request_duration_seconds",
			Help:      "Duration of vulnerability registry attempts in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	r.generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of text generation calls",
		},
		[]string{"model", "ok"},
	)

	r.generationTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of text generation calls in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"model"},
	)

	r.reportsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_saved_total",
			Help:      "Total number of analysis reports persisted",
		},
	)

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.registryRequests,
		r.registryDuration,
		r.generations,
		r.generationTime,
		r.reportsSaved,
	)

	return r
}

// RegistryRequest records one registry attempt.
func (r *Recorder) RegistryRequest(outcome string, d time.Duration) {
	r.registryRequests.WithLabelValues(outcome).Inc()
	r.registryDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Generation records one text-generation call.
func (r *Recorder) Generation(model string, ok bool, d time.Duration) {
	r.generations.WithLabelValues(model, strconv.FormatBool(ok)).Inc()
	r.generationTime.WithLabelValues(model).Observe(d.Seconds())
}

// ReportSaved records a persisted report.
func (r *Recorder) ReportSaved() {
	r.reportsSaved.Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns the Prometheus HTTP handler for this recorder.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
