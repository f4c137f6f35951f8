package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pos_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	OrdersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_orders_created_total",
			Help: "Orders created and paid",
		},
	)

	SessionsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_sessions_started_total",
			Help: "Rental sessions started",
		},
	)

	SessionsSettledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_sessions_settled_total",
			Help: "Rental sessions ended and invoiced",
		},
	)

	RevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_revenue_total",
			Help: "Billed totals recorded in the payment ledger",
		},
		[]string{"source", "method"},
	)

	RejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_rejections_total",
			Help: "Billing operations rejected, by operation and error kind",
		},
		[]string{"operation", "kind"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pos_active_sessions",
			Help: "Rental sessions active at the last scheduler sweep",
		},
	)

	EventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_events_dropped_total",
			Help: "Billing events dropped because the publish buffer was full",
		},
	)
)

var registerOnce sync.Once

// InitMetrics registers every collector with the default registry.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			OrdersCreatedTotal,
			SessionsStartedTotal,
			SessionsSettledTotal,
			RevenueTotal,
			RejectionsTotal,
			ActiveSessions,
			EventsDroppedTotal,
		)
	})
}

func RecordRevenue(source, method string, amount decimal.Decimal) {
	RevenueTotal.WithLabelValues(source, method).Add(amount.InexactFloat64())
}
