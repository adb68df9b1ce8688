package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the relay counters on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	InstructionsEnqueued  *prometheus.CounterVec
	InstructionsDelivered prometheus.Counter
	ReadingsIngested      *prometheus.CounterVec
	ValidationErrors      *prometheus.CounterVec
	MirrorPublishes       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		InstructionsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_instructions_enqueued_total",
			Help: "Instructions written to the pending queue.",
		}, []string{"type"}),
		InstructionsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_instructions_delivered_total",
			Help: "Instructions handed to the device poller and marked SENT.",
		}),
		ReadingsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_readings_ingested_total",
			Help: "Sensor readings persisted.",
		}, []string{"kind"}),
		ValidationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_validation_errors_total",
			Help: "Requests rejected before any write.",
		}, []string{"endpoint"}),
		MirrorPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_mirror_publishes_total",
			Help: "Best-effort mirror publishes by payload kind and outcome.",
		}, []string{"kind", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.InstructionsEnqueued,
		m.InstructionsDelivered,
		m.ReadingsIngested,
		m.ValidationErrors,
		m.MirrorPublishes,
	)

	return m
}

// MirrorOutcome records one mirror publish attempt.
func (m *Metrics) MirrorOutcome(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.MirrorPublishes.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
