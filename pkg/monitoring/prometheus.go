package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by route and status
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bluecycle_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration observes HTTP request latency
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bluecycle_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// RequestsInFlight is the number of requests being served
	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bluecycle_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// LocationFetchesTotal counts tracking poller fetches by outcome
	LocationFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bluecycle_tracking_location_fetches_total",
			Help: "Driver location fetches issued by tracking sessions, by outcome",
		},
		[]string{"outcome"},
	)

	// LocationFetchDuration observes tracking poller fetch latency
	LocationFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bluecycle_tracking_location_fetch_duration_seconds",
			Help:    "Driver location fetch latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 3, 5},
		},
		[]string{"outcome"},
	)
)

// PrometheusMiddleware collects request metrics
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		RequestsInFlight.Inc()
		defer RequestsInFlight.Dec()

		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())

		RequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// FetchRecorder exports tracking poller fetch outcomes to Prometheus
type FetchRecorder struct{}

// RecordLocationFetch implements the tracking poller's Recorder
func (FetchRecorder) RecordLocationFetch(outcome string, latency time.Duration) {
	LocationFetchesTotal.WithLabelValues(outcome).Inc()
	LocationFetchDuration.WithLabelValues(outcome).Observe(latency.Seconds())
}
