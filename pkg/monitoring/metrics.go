package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliations_total",
			Help: "Reconciliation attempts by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	gatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Outbound payment gateway calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	gatewayLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Latency of outbound payment gateway calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
		},
		[]string{"operation"},
	)

	reconcileJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_jobs_total",
			Help: "Queued IPN reconciliation jobs by result",
		},
		[]string{"result"},
	)

	payoutActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payout_actions_total",
			Help: "Payout workflow actions by type and result",
		},
		[]string{"action", "result"},
	)

	oversoldTickets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oversold_tickets_total",
			Help: "Tickets issued past a capacity-limited event's capacity",
		},
	)
)

func TrackReconciliation(source, outcome string) {
	reconciliations.WithLabelValues(source, outcome).Inc()
}

func TrackGatewayRequest(operation, result string, duration time.Duration) {
	gatewayRequests.WithLabelValues(operation, result).Inc()
	gatewayLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

func TrackReconcileJob(result string) {
	reconcileJobs.WithLabelValues(result).Inc()
}

func TrackPayoutAction(action, result string) {
	payoutActions.WithLabelValues(action, result).Inc()
}

func TrackOversell() {
	oversoldTickets.Inc()
}
