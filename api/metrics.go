package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the Prometheus collectors of the HTTP host. Each Metrics owns
// its registry so several routers can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	Assessments *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Degraded    *prometheus.CounterVec
	Ambiguous   prometheus.Counter
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Assessments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flyingstar_assessments_total",
				Help: "Assessments run, by outcome",
			},
			[]string{"outcome"},
		),

		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flyingstar_assessment_duration_seconds",
				Help:    "Engine time per assessment in seconds",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
			},
			[]string{"depth"},
		),

		Degraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flyingstar_degraded_stages_total",
				Help: "Pipeline stages that fell back to their neutral value",
			},
			[]string{"stage"},
		),

		Ambiguous: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flyingstar_ambiguous_periods_total",
				Help: "Assessments whose reference date was near a period boundary",
			},
		),
	}

	m.registry.MustRegister(
		m.Assessments,
		m.Duration,
		m.Degraded,
		m.Ambiguous,
		collectors.NewGoCollector(),
	)
	return m
}

// Gatherer exposes the registry to promhttp.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }
