// Package metrics exports conversion metrics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	htmlpdf "github.com/porticus-lab/go-native-html-pdf"
)

// Prometheus metric names.
const (
	MetricConversionsTotal          = "htmlpdf_conversions_total"
	MetricConversionDurationSeconds = "htmlpdf_conversion_duration_seconds"
	MetricPagesTotal                = "htmlpdf_pages_total"
	MetricInFlight                  = "htmlpdf_in_flight"
)

// Metrics collects conversion outcomes on its own registry.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Metrics struct {
	registry    *prometheus.Registry
	conversions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	pages       prometheus.Counter
	inFlight    prometheus.Gauge
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricConversionsTotal,
			Help: "Delivered conversions by output kind and result code.",
		}, []string{"output", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricConversionDurationSeconds,
			Help:    "Time from acceptance to delivery of accepted conversions.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"output"}),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricPagesTotal,
			Help: "Pages produced by successful conversions.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricInFlight,
			Help: "1 while a conversion owns the render surface.",
		}),
	}
	m.registry.MustRegister(
		m.conversions,
		m.duration,
		m.pages,
		m.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Hooks returns converter hooks feeding these metrics.
func (m *Metrics) Hooks() htmlpdf.Hooks {
	return htmlpdf.Hooks{
		OnTransition: m.ObserveTransition,
		OnOutcome:    m.ObserveOutcome,
	}
}

// ObserveTransition tracks the in-flight gauge. The slot is released during
// CleaningUp, and that transition is reported before the release, so the
// next request's Accepted always follows it.
func (m *Metrics) ObserveTransition(tr htmlpdf.Transition) {
	switch tr.To {
	case htmlpdf.StateAccepted:
		m.inFlight.Set(1)
	case htmlpdf.StateCleaningUp:
		m.inFlight.Set(0)
	}
}

// ObserveOutcome counts a delivered outcome.
func (m *Metrics) ObserveOutcome(ev htmlpdf.OutcomeEvent) {
	code := ev.Code
	if code == "" {
		code = "OK"
	}
	m.conversions.WithLabelValues(ev.Output.String(), code).Inc()
	if ev.Duration > 0 {
		m.duration.WithLabelValues(ev.Output.String()).Observe(ev.Duration.Seconds())
	}
	if ev.Code == "" {
		m.pages.Add(float64(ev.Pages))
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
