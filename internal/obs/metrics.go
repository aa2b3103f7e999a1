package obs

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "civic_http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civic_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// UrgencyAssessments counts scoring results by origin (assessed, fallback).
	UrgencyAssessments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_urgency_assessments_total",
			Help: "Urgency scoring results by origin.",
		},
		[]string{"backend", "origin"},
	)

	// StatusTransitions counts applied complaint transitions by target status.
	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_status_transitions_total",
			Help: "Applied complaint status transitions.",
		},
		[]string{"to"},
	)

	registerOnce sync.Once
)

// Init registers the collectors on the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration,
			UrgencyAssessments, StatusTransitions)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinMiddleware records request metrics and writes one log line per request.
// Routes are labelled by their template so ids do not explode cardinality.
func GinMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInFlight.Inc()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		labels := []string{c.Request.Method, route, strconv.Itoa(status)}

		httpRequestDuration.WithLabelValues(labels...).Observe(elapsed.Seconds())
		httpRequestsTotal.WithLabelValues(labels...).Inc()
		httpInFlight.Dec()

		if logger != nil {
			logger.Info("http request",
				zap.String("method", c.Request.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("latency", elapsed),
			)
		}
	}
}
