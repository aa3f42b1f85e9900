// Package metrics exposes Prometheus counters for the request logger.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reqlog"

// Recorder counts what the request logger does. It implements
// logging.Observer.
type Recorder struct {
	registry  *prometheus.Registry
	skipped   *prometheus.CounterVec
	responses *prometheus.CounterVec
	errors    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with its own registry, so tests and
// multiple servers in one process do not collide on the default registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_skipped_total",
			Help:      "Requests whose path matched the skip list.",
		}, []string{"method"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_logged_total",
			Help:      "Responses written to the log, by method and status code.",
		}, []string{"method", "code"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_logged_total",
			Help:      "Request errors written to the log, by error name.",
		}, []string{"name"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of logged requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	r.registry.MustRegister(
		r.skipped,
		r.responses,
		r.errors,
		r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// methodLabel keeps the method label set bounded; any method outside the
// standard set is counted as OTHER.
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodConnect,
		http.MethodOptions, http.MethodTrace:
		return method
	}
	return "OTHER"
}

// RequestSkipped counts a request left out of the logs.
func (r *Recorder) RequestSkipped(method string) {
	r.skipped.WithLabelValues(methodLabel(method)).Inc()
}

// ResponseLogged counts a logged response and observes its duration.
func (r *Recorder) ResponseLogged(method string, status int, duration time.Duration) {
	method = methodLabel(method)
	r.responses.WithLabelValues(method, strconv.Itoa(status)).Inc()
	r.duration.WithLabelValues(method).Observe(duration.Seconds())
}

// ErrorLogged counts a logged error.
func (r *Recorder) ErrorLogged(name string) {
	r.errors.WithLabelValues(name).Inc()
}

// Handler serves the metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
