package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors, exposed on the dedicated metrics port.
var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brigade_orders_created_total",
		Help: "Number of orders created through the mutation gateway",
	})

	EventsBroadcast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brigade_events_broadcast_total",
		Help: "Events fanned out by the broadcast router, by event kind",
	}, []string{"event"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "brigade_ws_connections",
		Help: "Currently authenticated real-time connections",
	})

	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brigade_auth_failures_total",
		Help: "Rejected handshakes and REST requests",
	})
)
