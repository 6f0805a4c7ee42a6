package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yamdb_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Domain Metrics
	ConfirmationEmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_confirmation_emails_total",
			Help: "Confirmation code emails by outcome",
		},
		[]string{"outcome"}, // "sent", "failed"
	)

	TitleCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_title_cache_lookups_total",
			Help: "Title view cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "error"
	)
)

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry for scraping.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// RecordEmail counts one confirmation email outcome.
func RecordEmail(err error) {
	if err != nil {
		ConfirmationEmailsTotal.WithLabelValues("failed").Inc()
		return
	}
	ConfirmationEmailsTotal.WithLabelValues("sent").Inc()
}
