package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics are registered on a per-server registry, so several servers (and tests) can
// coexist in one process.
type metrics struct {
	registry        *prometheus.Registry
	frames          prometheus.Counter
	visited         prometheus.Gauge
	activeClients   prometheus.Gauge
	sessionDuration prometheus.Histogram
	inputEvents     *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellgrid_frames_total",
			Help: "Replay frames received by the server",
		}),
		visited: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cellgrid_visited_cells",
			Help: "Distinct floor cells visited by the current replay",
		}),
		activeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cellgrid_active_clients",
			Help: "Pages currently connected over websocket",
		}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cellgrid_session_duration_seconds",
			Help:    "Duration of websocket sessions",
			Buckets: prometheus.DefBuckets,
		}),
		inputEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellgrid_input_events_total",
			Help: "Input events received from pages, by result",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.frames, m.visited, m.activeClients, m.sessionDuration, m.inputEvents)
	return m
}
