// Package metrics exposes Prometheus counters/gauges for the server,
// grounded on the teacher's connection/message metric set and widened to
// this protocol's command dispatch and pub/sub delivery paths.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvstored_connections_total",
		Help: "Total number of client connections accepted.",
	})

	ConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kvstored_connections_active",
		Help: "Current number of active client connections.",
	})

	ConnectionsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kvstored_connections_rejected_total",
		Help: "Connections rejected by reason.",
	}, []string{"reason"})

	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kvstored_commands_total",
		Help: "Commands executed, by name and outcome.",
	}, []string{"command", "outcome"})

	BytesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvstored_bytes_read_total",
		Help: "Total bytes read from client connections.",
	})

	BytesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvstored_bytes_written_total",
		Help: "Total bytes written to client connections.",
	})

	PubSubDeliveries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvstored_pubsub_deliveries_total",
		Help: "Total pub/sub messages delivered to subscriber reply channels.",
	})

	PubSubDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvstored_pubsub_dropped_total",
		Help: "Total pub/sub and monitor deliveries dropped due to a full or closed reply channel.",
	})

	DelegatorQueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kvstored_delegator_queue_depth",
		Help: "Current depth of each delegator worker's task queue.",
	}, []string{"worker"})

	StoreKeys = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kvstored_store_keys",
		Help: "Number of keys in the store after the startup snapshot load; not updated afterwards.",
	})
)

func init() {
	prometheus.MustRegister(
		ConnectionsTotal,
		ConnectionsActive,
		ConnectionsRejected,
		CommandsTotal,
		BytesRead,
		BytesWritten,
		PubSubDeliveries,
		PubSubDropped,
		DelegatorQueueDepth,
		StoreKeys,
	)
}

// Handler returns the HTTP handler for a /metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
