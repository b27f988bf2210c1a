// Package metrics exposes Prometheus collectors for views and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the collectors of one server
type Registry struct {
	registry *prometheus.Registry

	// Views
	SimulationTicks *prometheus.CounterVec
	SimulationAlpha *prometheus.GaugeVec
	FramesPublished *prometheus.CounterVec
	ActiveViews     prometheus.Gauge
	Gestures        *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SSEClients          prometheus.Gauge
}

// NewRegistry creates a registry with every collector registered
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r.initViewMetrics()
	r.initHTTPMetrics()
	return r
}

func (r *Registry) initViewMetrics() {
	r.SimulationTicks = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "forceview_simulation_ticks_total",
			Help: "Simulation ticks run per view",
		},
		[]string{"view"},
	)

	r.SimulationAlpha = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "forceview_simulation_alpha",
			Help: "Current simulation alpha per view",
		},
		[]string{"view"},
	)

	r.FramesPublished = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "forceview_frames_published_total",
			Help: "Scene frames published to subscribers per view",
		},
		[]string{"view"},
	)

	r.ActiveViews = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "forceview_active_views",
			Help: "Number of views with a running loop",
		},
	)

	r.Gestures = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "forceview_gestures_total",
			Help: "Pointer gestures applied to views",
		},
		[]string{"kind", "status"},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "forceview_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forceview_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	r.SSEClients = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "forceview_sse_clients",
			Help: "Connected event stream clients",
		},
	)
}

// ObserveTicks records simulation progress of a view
func (r *Registry) ObserveTicks(viewID string, ticks int, alpha float64) {
	r.SimulationTicks.WithLabelValues(viewID).Add(float64(ticks))
	r.SimulationAlpha.WithLabelValues(viewID).Set(alpha)
}

// RecordFrame counts a published frame
func (r *Registry) RecordFrame(viewID string) {
	r.FramesPublished.WithLabelValues(viewID).Inc()
}

// RecordGesture counts a gesture by kind and outcome
func (r *Registry) RecordGesture(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.Gestures.WithLabelValues(kind, status).Inc()
}

// ForgetView drops the per-view series of a closed view
func (r *Registry) ForgetView(viewID string) {
	r.SimulationTicks.DeleteLabelValues(viewID)
	r.SimulationAlpha.DeleteLabelValues(viewID)
	r.FramesPublished.DeleteLabelValues(viewID)
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// SetActiveViews records the number of running views
func (r *Registry) SetActiveViews(n int) {
	r.ActiveViews.Set(float64(n))
}
