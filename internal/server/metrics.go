package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsNamespace prefixes every bridge metric.
const MetricsNamespace = "rev4switch"

// Metrics holds the Prometheus collectors of one bridge.
type Metrics struct {
	connections     prometheus.Gauge
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	codes           *prometheus.CounterVec
	broadcastDrops  prometheus.Counter
}

// NewMetrics registers the bridge collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "websocket_connections",
			Help:      "Number of open WebSocket connections",
		}),

		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "requests_total",
			Help:      "WebSocket requests handled, by action and status",
		}, []string{"action", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "Time to handle a WebSocket request",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"action"}),

		codes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "codes_total",
			Help:      "Codes encoded or decoded, by origin and state",
		}, []string{"origin", "state"}),

		broadcastDrops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "broadcast_drops_total",
			Help:      "Broadcasts dropped because a client was not reading",
		}),
	}
}

// newRegistry returns a registry with the Go runtime and process collectors.
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
