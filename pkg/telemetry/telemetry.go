// Package telemetry records request metrics, exported at /metrics.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerdesk_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledgerdesk_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	conversationsClaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerdesk_conversations_claimed_total",
			Help: "Conversations claimed by staff.",
		},
	)
	messagesAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerdesk_messages_appended_total",
			Help: "Messages appended by origin.",
		},
		[]string{"from"},
	)
	storeSizeBytes = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ledgerdesk_store_size_bytes",
			Help: "Approximate on-disk size of the record store.",
		},
		func() float64 { return storeSize() },
	)

	storeSize = func() float64 { return 0 }
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, conversationsClaimed, messagesAppended, storeSizeBytes)
}

// SetStoreSizer installs the function backing the store size gauge.
func SetStoreSizer(fn func() float64) {
	if fn != nil {
		storeSize = fn
	}
}

// CountClaim records a successful conversation claim.
func CountClaim() { conversationsClaimed.Inc() }

// CountMessage records an appended message by origin.
func CountMessage(from string) { messagesAppended.WithLabelValues(from).Inc() }

// Middleware records request count and latency. Mount it with
// router.Use so the route template is available for the label; raw
// paths would blow up label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(srw.status)).Inc()
		requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
