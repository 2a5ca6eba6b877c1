package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stream event outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeDropped   = "dropped"
	OutcomeIgnored   = "ignored"
	OutcomeDiscarded = "discarded" // arrived after teardown
)

var (
	// Registry holds the client's collectors.
	Registry = prometheus.NewRegistry()

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quickcart",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Backend API requests by route and response status (0 = transport failure).",
		},
		[]string{"method", "route", "status"},
	)

	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "quickcart",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Backend API request latency.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	streamEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quickcart",
			Subsystem: "stream",
			Name:      "events_total",
			Help:      "Cart stream events by outcome.",
		},
		[]string{"outcome"},
	)

	streamConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "quickcart",
			Subsystem: "stream",
			Name:      "connected",
			Help:      "1 while the cart stream is open.",
		},
	)
)

func init() {
	Registry.MustRegister(
		apiRequests,
		apiDuration,
		streamEvents,
		streamConnected,
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveAPIRequest matches apiclient.ObserveFunc.
func ObserveAPIRequest(method, route string, status int, elapsed time.Duration) {
	apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	apiDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func RecordStreamEvent(outcome string) {
	streamEvents.WithLabelValues(outcome).Inc()
}

func SetStreamConnected(connected bool) {
	if connected {
		streamConnected.Set(1)
		return
	}
	streamConnected.Set(0)
}
