package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the instrumentation for one handler instance. Each
// handler carries its own registry so tests can build handlers freely
// without collisions in the default registry.
type metrics struct {
	casesStarted *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	dangling     prometheus.Counter
	exports      prometheus.Counter

	handler http.Handler
}

func newMetrics() *metrics {
	m := &metrics{
		casesStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "icuflow_cases_started_total",
				Help: "Cases started, by document.",
			},
			[]string{"document"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "icuflow_transitions_total",
				Help: "Choices applied, by document.",
			},
			[]string{"document"},
		),
		dangling: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icuflow_dangling_transitions_total",
			Help: "Transitions that landed on an unknown node id.",
		}),
		exports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icuflow_exports_total",
			Help: "Transcript exports handed to the persistence collaborator.",
		}),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(m.casesStarted, m.transitions, m.dangling, m.exports)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	return m
}
