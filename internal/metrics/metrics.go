package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gasthof",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	derivations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gasthof",
			Name:      "status_derivations_total",
			Help:      "Display status derivations by resulting status.",
		},
		[]string{"status"},
	)

	idFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gasthof",
			Name:      "invoice_booking_id_fallbacks_total",
			Help:      "Derivations that resolved the booking id through the offer id heuristic.",
		},
	)

	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gasthof",
			Name:      "status_cache_results_total",
			Help:      "Derived status cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	syncTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gasthof",
			Name:      "sheet_sync_tasks_total",
			Help:      "Sheet sync tasks by final outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, derivations, idFallbacks, cacheHits, syncTasks)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncDerivation counts a derivation result.
func IncDerivation(bookingStatus string) {
	derivations.WithLabelValues(bookingStatus).Inc()
}

// IncIDFallback counts a booking-id fallback resolution.
func IncIDFallback() {
	idFallbacks.Inc()
}

// IncCache counts a cache lookup outcome ("hit" or "miss").
func IncCache(outcome string) {
	cacheHits.WithLabelValues(outcome).Inc()
}

// IncSync counts a sheet sync task outcome.
func IncSync(outcome string) {
	syncTasks.WithLabelValues(outcome).Inc()
}
