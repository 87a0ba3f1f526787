// Package metrics exposes timer and scheduler measurements to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/emom-timer/internal/logic"
)

const namespace = "emom"

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ticks    prometheus.Counter
	resyncs  prometheus.Counter
	lateness prometheus.Histogram
	commands *prometheus.CounterVec
	events   *prometheus.CounterVec
	running  prometheus.Gauge
	round    prometheus.Gauge
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{registry: registry}

	m.ticks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Engine ticks applied by the scheduler",
		},
	)
	m.resyncs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resyncs_total",
			Help:      "Times the tick count was snapped to the wall clock",
		},
	)
	m.lateness = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_lateness_seconds",
			Help:      "How far after its deadline each timer firing ran",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)
	m.commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands applied, by name",
		},
		[]string{"command"},
	)
	m.events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Timer events produced, by type",
		},
		[]string{"type"},
	)
	m.running = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "running",
			Help:      "1 while the countdown is running",
		},
	)
	m.round = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_round",
			Help:      "The round currently displayed",
		},
	)

	registry.MustRegister(m.ticks, m.resyncs, m.lateness, m.commands, m.events, m.running, m.round)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordTick counts applied ticks and observes firing lateness.
func (m *Metrics) RecordTick(due int, lateness time.Duration) {
	m.ticks.Add(float64(due))
	if lateness < 0 {
		lateness = 0
	}
	m.lateness.Observe(lateness.Seconds())
}

// RecordResync counts a drift correction.
func (m *Metrics) RecordResync() {
	m.resyncs.Inc()
}

// RecordCommand counts an applied command.
func (m *Metrics) RecordCommand(cmd logic.Command) {
	m.commands.WithLabelValues(string(cmd)).Inc()
}

// Observe tracks the running state, round and event types.
func (m *Metrics) Observe(view logic.View, evs []logic.Event) {
	if view.Running {
		m.running.Set(1)
	} else {
		m.running.Set(0)
	}
	m.round.Set(float64(view.Round))
	for _, e := range evs {
		m.events.WithLabelValues(string(e.Type)).Inc()
	}
}

// WatchConnection exports a broker connection state as a 0/1 gauge.
func (m *Metrics) WatchConnection(broker string, isConnected func() bool) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "broker_connected",
			Help:        "1 while the broker connection is up",
			ConstLabels: prometheus.Labels{"broker": broker},
		},
		func() float64 {
			if isConnected() {
				return 1
			}
			return 0
		},
	))
}

// WatchQueue exports the number of events dropped by the publish queue.
func (m *Metrics) WatchQueue(dropped func() int64) {
	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events dropped because the publish queue was full",
		},
		func() float64 { return float64(dropped()) },
	))
}
