// Package metrics provides Prometheus metrics for the catalog admin server.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	fileMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_file_mutations_total",
			Help: "Catalog file mutations by action and outcome",
		},
		[]string{"action", "status"},
	)

	uploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_upload_bytes_total",
			Help: "Total bytes uploaded into the catalog",
		},
	)

	ordersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_orders_total",
			Help: "Orders created and completed",
		},
		[]string{"event"},
	)

	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_auth_attempts_total",
			Help: "Total admin login attempts",
		},
		[]string{"result"},
	)

	s3OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_s3_operation_duration_seconds",
			Help:    "S3 operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	s3OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_s3_operations_total",
			Help: "Total S3 operations",
		},
		[]string{"operation", "status"},
	)

	wsClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_ws_clients",
			Help: "Connected websocket clients",
		},
	)

	eventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_events_published_total",
			Help: "Catalog events published by sink",
		},
		[]string{"sink", "status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordFileMutation records createFolder / upload / delete outcomes.
func RecordFileMutation(action string, success bool) {
	fileMutationsTotal.WithLabelValues(action, statusLabel(success)).Inc()
}

// RecordUploadBytes adds uploaded bytes.
func RecordUploadBytes(n int64) {
	uploadBytesTotal.Add(float64(n))
}

// RecordOrderEvent counts "created" / "completed" orders.
func RecordOrderEvent(event string) {
	ordersTotal.WithLabelValues(event).Inc()
}

// RecordAuthAttempt records an authentication attempt.
func RecordAuthAttempt(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	authAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordS3Operation records an S3 operation.
func RecordS3Operation(operation string, duration time.Duration, success bool) {
	s3OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	s3OperationsTotal.WithLabelValues(operation, statusLabel(success)).Inc()
}

// SetWSClients sets the number of connected websocket clients.
func SetWSClients(n int) {
	wsClients.Set(float64(n))
}

// RecordEventPublished records an event delivery attempt to a sink.
func RecordEventPublished(sink string, success bool) {
	eventsPublishedTotal.WithLabelValues(sink, statusLabel(success)).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

// Middleware returns HTTP middleware that records request metrics.
// The route template is used as label so path parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
	})
}
