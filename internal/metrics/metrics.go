// Package metrics provides Prometheus metrics for the fsclass server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CageChen/fsclass/internal/classify"
)

var (
	entriesClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fsclass_entries_classified_total",
			Help: "Total number of entries classified, by category",
		},
		[]string{"category"},
	)

	listingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fsclass_listings_total",
			Help: "Total number of directory listings, by outcome",
		},
		[]string{"status"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fsclass_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fsclass_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordEntry counts one classified entry.
func RecordEntry(e classify.Entry) {
	entriesClassified.WithLabelValues(e.Category.String()).Inc()
}

// RecordListing counts a listing and every entry in it.
func RecordListing(l classify.Listing, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	listingsTotal.WithLabelValues(status).Inc()
	for _, e := range l.Entries {
		RecordEntry(e)
	}
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the Prometheus exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
