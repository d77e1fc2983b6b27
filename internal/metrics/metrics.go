// Package metrics registers the Prometheus collectors the server exposes.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "noodlz",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		},
		[]string{"route", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "noodlz",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	ordersReconciled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "noodlz",
			Name:      "orders_reconciled_total",
			Help:      "Order form submissions applied.",
		},
	)

	tripsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "noodlz",
			Name:      "trips_created_total",
			Help:      "Trips registered.",
		},
	)

	settleUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "noodlz",
			Name:      "settle_updates_total",
			Help:      "Settled flags flipped.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, requestDuration,
			ordersReconciled, tripsCreated, settleUpdates)
	})
}

// ObserveRequest records one handled HTTP request.
func ObserveRequest(route, status string, seconds float64) {
	httpRequests.WithLabelValues(route, status).Inc()
	requestDuration.WithLabelValues(route).Observe(seconds)
}

// IncOrdersReconciled counts an applied order form.
func IncOrdersReconciled() { ordersReconciled.Inc() }

// IncTripsCreated counts a registered trip.
func IncTripsCreated() { tripsCreated.Inc() }

// AddSettleUpdates counts flipped settled flags.
func AddSettleUpdates(n int) { settleUpdates.Add(float64(n)) }
