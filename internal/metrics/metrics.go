package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerMetrics holds the counters exposed on /metrics.
type ServerMetrics struct {
	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
	WebhookEvents *prometheus.CounterVec
	EmailsSent    *prometheus.CounterVec
}

// Webhook outcome labels.
const (
	WebhookOutcomeRecorded  = "recorded"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeRejected  = "rejected"
	WebhookOutcomeRetried   = "retried"
)

func NewServerMetrics(service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leathershop",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "leathershop",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leathershop",
		Subsystem: service,
		Name:      "webhook_events_total",
		Help:      "Payment webhook events by outcome.",
	}, []string{"outcome"})
	emailsSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leathershop",
		Subsystem: service,
		Name:      "emails_sent_total",
		Help:      "Transactional emails by kind and result.",
	}, []string{"kind", "result"})

	prometheus.MustRegister(requests, latency, webhookEvents, emailsSent)
	return &ServerMetrics{
		Requests:      requests,
		LatencyMS:     latency,
		WebhookEvents: webhookEvents,
		EmailsSent:    emailsSent,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
