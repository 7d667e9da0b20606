package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiba_admin_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tiba_admin_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SmartParkCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiba_admin_smartpark_calls_total",
			Help: "Total number of SmartPark API calls by outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	MonthlyUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiba_admin_monthly_updates_total",
			Help: "Total number of monthly account update attempts",
		},
		[]string{"action", "outcome"},
	)

	WalletAmountChangedCents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiba_admin_wallet_amount_changed_cents_total",
			Help: "Sum of wallet balance deltas applied, in cents, by update method",
		},
		[]string{"method"},
	)

	AuditWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiba_admin_audit_writes_total",
			Help: "Total number of audit log writes",
		},
		[]string{"status"},
	)

	AuditRetryQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tiba_admin_audit_retry_queue_length",
			Help: "Current length of the audit retry queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordSmartParkCall(endpoint, outcome string) {
	SmartParkCallsTotal.WithLabelValues(endpoint, outcome).Inc()
}

func RecordMonthlyUpdate(action, outcome string) {
	MonthlyUpdatesTotal.WithLabelValues(action, outcome).Inc()
}

func RecordWalletChange(method string, amountCents int64) {
	if amountCents < 0 {
		amountCents = -amountCents
	}
	WalletAmountChangedCents.WithLabelValues(method).Add(float64(amountCents))
}

func RecordAuditWrite(status string) {
	AuditWritesTotal.WithLabelValues(status).Inc()
}
