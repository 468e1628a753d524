package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tms_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tms_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tms_bookings_created_total",
			Help: "Total number of bookings created",
		},
		[]string{"source"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tms_booking_transitions_total",
			Help: "Booking status transitions by outcome",
		},
		[]string{"from", "to", "result"},
	)

	AssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tms_assignments_total",
			Help: "Guide assignment commits by outcome",
		},
		[]string{"result"},
	)

	GuideNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tms_guide_notifications_total",
			Help: "Real-time events published, by type",
		},
		[]string{"type"},
	)

	BookingTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tms_booking_tokens_total",
			Help: "Booking token operations by result",
		},
		[]string{"operation", "result"},
	)

	StaleOffersSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tms_stale_offers_swept_total",
			Help: "Unanswered guide offers removed by the sweeper",
		},
	)

	SSEConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tms_sse_connections",
			Help: "Open guide event streams",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBookingCreated(source string) {
	BookingsCreatedTotal.WithLabelValues(source).Inc()
}

func RecordTransition(from, to, result string) {
	BookingTransitionsTotal.WithLabelValues(from, to, result).Inc()
}

func RecordAssignment(result string) {
	AssignmentsTotal.WithLabelValues(result).Inc()
}

func RecordNotification(eventType string) {
	GuideNotificationsTotal.WithLabelValues(eventType).Inc()
}

func RecordBookingToken(operation, result string) {
	BookingTokensTotal.WithLabelValues(operation, result).Inc()
}

func RecordStaleOffersSwept(n int64) {
	StaleOffersSweptTotal.Add(float64(n))
}
