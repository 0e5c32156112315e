package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "tieba"
	subsystem = "messaging_api"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_sent_total",
			Help:      "Messages committed, by send path",
		},
		[]string{"path"},
	)

	SendRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "send_rejected_total",
			Help:      "Sends refused before commit, by error type",
		},
		[]string{"reason"},
	)

	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhook_deliveries_total",
			Help:      "Outbound message.created webhook attempts",
		},
		[]string{"status"},
	)

	ReconciledRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconciled_rows_total",
			Help:      "Counter rows corrected by reconciliation",
		},
		[]string{"table"},
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconcile_duration_seconds",
			Help:      "Reconciliation pass duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 30, 120},
		},
	)

	BackgroundJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "background_jobs_active",
			Help:      "Background jobs currently running",
		},
		[]string{"job"},
	)

	BackgroundJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "background_jobs_total",
			Help:      "Finished background jobs by outcome",
		},
		[]string{"job", "status"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordMessageSent counts a committed message.
func RecordMessageSent(path string) {
	MessagesSentTotal.WithLabelValues(path).Inc()
}

// RecordSendRejected counts a send refused with the given error type.
func RecordSendRejected(reason string) {
	SendRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordWebhook counts a webhook delivery outcome.
func RecordWebhook(status string) {
	WebhookDeliveriesTotal.WithLabelValues(status).Inc()
}

// RecordReconcile records a reconciliation pass.
func RecordReconcile(conversations, participants int64, duration time.Duration) {
	ReconciledRowsTotal.WithLabelValues("conversations").Add(float64(conversations))
	ReconciledRowsTotal.WithLabelValues("conversation_participants").Add(float64(participants))
	ReconcileDuration.Observe(duration.Seconds())
}

// JobStarted marks a background job as running and returns the func that
// records its outcome.
func JobStarted(job string) func(err error) {
	BackgroundJobsActive.WithLabelValues(job).Inc()
	return func(err error) {
		BackgroundJobsActive.WithLabelValues(job).Dec()
		status := "success"
		if err != nil {
			status = "error"
		}
		BackgroundJobsTotal.WithLabelValues(job, status).Inc()
	}
}
