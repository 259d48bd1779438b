// Package metrics exposes Prometheus counters and histograms for tool calls
// and figure rendering.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so several servers (and tests) can coexist in
// one process.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls     *prometheus.CounterVec
	renderSeconds *prometheus.HistogramVec
	figurePixels  prometheus.Histogram
}

// New creates and registers the metric set. Nil buckets fall back to
// prometheus.DefBuckets.
func New(renderBuckets []float64) *Metrics {
	if renderBuckets == nil {
		renderBuckets = prometheus.DefBuckets
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maskviz_tool_calls_total",
				Help: "Number of tool calls by tool and outcome.",
			},
			[]string{"tool", "status"},
		),
		renderSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "maskviz_render_seconds",
				Help:    "Histogram of tool execution times.",
				Buckets: renderBuckets,
			},
			[]string{"tool"},
		),
		figurePixels: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "maskviz_figure_pixels",
				Help:    "Histogram of rendered figure sizes in pixels.",
				Buckets: prometheus.ExponentialBuckets(1<<14, 4, 8),
			},
		),
	}

	m.registry.MustRegister(m.toolCalls, m.renderSeconds, m.figurePixels)
	return m
}

// ObserveTool records one tool call and its duration.
func (m *Metrics) ObserveTool(tool string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
	m.renderSeconds.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveFigure records the size of a rendered figure.
func (m *Metrics) ObserveFigure(width, height int) {
	if m == nil {
		return
	}
	m.figurePixels.Observe(float64(width * height))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve blocks serving /metrics on addr.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
