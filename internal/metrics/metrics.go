// Package metrics exposes Prometheus counters for selections, lookups and fan-out.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"airweather-map/internal/mapview"
)

const namespace = "airweather"

// Metrics implements lookup.Observer.
type Metrics struct {
	registry *prometheus.Registry

	selections     *prometheus.CounterVec
	lookups        *prometheus.CounterVec
	lookupDuration prometheus.Histogram
	inFlight       prometheus.Gauge
	staleDropped   prometheus.Counter
	toasts         *prometheus.CounterVec
	publishes      *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Selections received from the map surface, by source.",
		}, []string{"source"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Finished lookup sessions, by outcome.",
		}, []string{"outcome"}),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Time from session start to a result or error.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lookups_in_flight",
			Help:      "Lookup sessions started and not yet finished.",
		}),
		staleDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_dropped_total",
			Help:      "Results discarded because a newer session had already rendered.",
		}),
		toasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toasts_total",
			Help:      "Toast notifications shown, by type.",
		}, []string{"type"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mqtt_publishes_total",
			Help:      "MQTT publish attempts, by topic and result.",
		}, []string{"topic", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.selections,
		m.lookups,
		m.lookupDuration,
		m.inFlight,
		m.staleDropped,
		m.toasts,
		m.publishes,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) SelectionReceived(source mapview.Source) {
	m.selections.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) LookupStarted() {
	m.inFlight.Inc()
}

func (m *Metrics) LookupFinished(kind string, d time.Duration) {
	m.inFlight.Dec()
	m.lookups.WithLabelValues(kind).Inc()
	m.lookupDuration.Observe(d.Seconds())
}

func (m *Metrics) StaleResultDropped() {
	m.staleDropped.Inc()
}

func (m *Metrics) ToastShown(typ string) {
	m.toasts.WithLabelValues(typ).Inc()
}

// Published records one MQTT publish attempt.
func (m *Metrics) Published(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.publishes.WithLabelValues(topic, result).Inc()
}
