package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ServerMetrics holds all Prometheus metrics for the dashboard server.
type ServerMetrics struct {
	DealsTotal        *prometheus.CounterVec
	FeedEventsTotal   *prometheus.CounterVec
	StreamClients     prometheus.Gauge
	AuthFailures      *prometheus.CounterVec
	OutboxActive      prometheus.Gauge
	SnapshotRebuilds  prometheus.Counter
	RollupBatches     prometheus.Counter
	RollupDeadLetters prometheus.Counter
}

// NewServerMetrics initializes and registers the Prometheus metrics.
func NewServerMetrics() *ServerMetrics {
	return &ServerMetrics{
		DealsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sales_dashboard",
			Subsystem: "deals",
			Name:      "submitted_total",
			Help:      "Total number of deal submissions by status.",
		}, []string{"status"}), // status: accepted, error_validation, error_rejected, error_internal
		FeedEventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sales_dashboard",
			Subsystem: "feed",
			Name:      "events_total",
			Help:      "Total number of change feed events by outcome.",
		}, []string{"outcome"}), // outcome: applied, out_of_quarter, published, publish_failed
		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "sales_dashboard",
			Subsystem: "feed",
			Name:      "stream_clients_gauge",
			Help:      "Number of currently connected dashboard stream clients.",
		}),
		AuthFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sales_dashboard",
			Subsystem: "auth",
			Name:      "failures_total",
			Help:      "Total number of failed authentication attempts by reason.",
		}, []string{"reason"}), // reason: credentials, unconfirmed, token, revoked
		OutboxActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "sales_dashboard",
			Subsystem: "feed",
			Name:      "outbox_active_gauge",
			Help:      "Indicates if the publish outbox is currently active (1 for active, 0 for inactive).",
		}),
		SnapshotRebuilds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "sales_dashboard",
			Subsystem: "dashboard",
			Name:      "snapshot_rebuilds_total",
			Help:      "Total number of full dashboard snapshot rebuilds.",
		}),
		RollupBatches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "sales_dashboard",
			Subsystem: "rollup",
			Name:      "batches_total",
			Help:      "Total number of rollup batches processed.",
		}),
		RollupDeadLetters: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "sales_dashboard",
			Subsystem: "rollup",
			Name:      "dead_letters_total",
			Help:      "Total number of deal events moved to the dead letter stream.",
		}),
	}
}
