// Package metrics exposes Prometheus instrumentation for the server and
// the optional HTTP handler that serves it.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	// CommandsTotal counts processed commands by verb and reply status
	// (success or fail).
	CommandsTotal *prometheus.CounterVec
	// SessionsActive tracks open client connections.
	SessionsActive prometheus.Gauge
	// RoomsActive tracks rooms held in the registry.
	RoomsActive prometheus.Gauge
	// AutoSubmits counts participants the timer loop submitted.
	AutoSubmits prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "examhall_commands_total",
			Help: "Commands processed, by verb and reply status.",
		}, []string{"verb", "status"}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "examhall_sessions_active",
			Help: "Open client connections.",
		}),
		RoomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "examhall_rooms_active",
			Help: "Rooms currently held in the registry.",
		}),
		AutoSubmits: factory.NewCounter(prometheus.CounterOpts{
			Name: "examhall_auto_submits_total",
			Help: "Participants auto-submitted by the timer loop.",
		}),
	}
}

// Handler routes the metrics listener: the Prometheus scrape endpoint
// plus a liveness probe.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}
